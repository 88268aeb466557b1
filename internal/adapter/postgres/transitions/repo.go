// Package transitions implements the append-only case history using PostgreSQL.
package transitions

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/whosright-backend/internal/adapter/postgres"
	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// Repo stores case status transitions.
type Repo struct {
	db postgres.Querier
}

// New creates a new transitions repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// Append records one transition.
func (r *Repo) Append(ctx context.Context, tr domain.CaseTransition) error {
	sql, args, err := postgres.Builder().
		Insert("case_transitions").
		Columns("id", "case_id", "from_status", "to_status", "reason", "created_at").
		Values(tr.ID, tr.CaseID, tr.From, tr.To, tr.Reason, tr.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build transition insert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "transition for case", tr.CaseID)
	}
	return nil
}

// ListByCase returns the history of a case in the order it happened.
func (r *Repo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]domain.CaseTransition, error) {
	sql, args, err := postgres.Builder().
		Select("id", "case_id", "from_status", "to_status", "reason", "created_at").
		From("case_transitions").
		Where(squirrel.Eq{"case_id": caseID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transition query: %w", err)
	}

	var rows []struct {
		ID        uuid.UUID `db:"id"`
		CaseID    uuid.UUID `db:"case_id"`
		From      string    `db:"from_status"`
		To        string    `db:"to_status"`
		Reason    string    `db:"reason"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}

	out := make([]domain.CaseTransition, len(rows))
	for i, row := range rows {
		out[i] = domain.CaseTransition{
			ID:        row.ID,
			CaseID:    row.CaseID,
			From:      domain.CaseStatus(row.From),
			To:        domain.CaseStatus(row.To),
			Reason:    row.Reason,
			CreatedAt: row.CreatedAt,
		}
	}
	return out, nil
}
