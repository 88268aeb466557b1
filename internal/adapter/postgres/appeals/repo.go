// Package appeals implements the appeal repository using PostgreSQL.
package appeals

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/whosright-backend/internal/adapter/postgres"
	"github.com/heartmarshall/whosright-backend/internal/domain"
)

var columns = []string{
	"a.id", "a.case_id", "c.code AS case_code", "a.party", "a.reason",
	"a.new_evidence", "a.new_evidence_images", "a.filed_by_user_id", "a.filed_by_ip_hash",
	"a.status", "a.original", "a.outcome", "a.created_at", "a.updated_at", "a.processed_at",
}

const from = "appeals a JOIN cases c ON c.id = a.case_id"

// Repo provides appeal persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new appeal repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns an appeal by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Appeal, error) {
	sql, args, err := postgres.Builder().Select(columns...).From(from).
		Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build appeal query: %w", err)
	}

	var row appealRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "appeal", id)
	}
	return row.toDomain()
}

// ListByCase returns every appeal filed on a case, oldest first.
func (r *Repo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*domain.Appeal, error) {
	return r.list(ctx, postgres.Builder().Select(columns...).From(from).
		Where(squirrel.Eq{"a.case_id": caseID}).
		OrderBy("a.created_at ASC"))
}

// ListByStatus returns appeals in status last touched before updatedBefore.
func (r *Repo) ListByStatus(ctx context.Context, status domain.AppealStatus, updatedBefore time.Time, limit int) ([]*domain.Appeal, error) {
	q := postgres.Builder().Select(columns...).From(from).
		Where(squirrel.Eq{"a.status": status}).
		Where(squirrel.Lt{"a.updated_at": updatedBefore}).
		OrderBy("a.updated_at ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.list(ctx, q)
}

func (r *Repo) list(ctx context.Context, q squirrel.SelectBuilder) ([]*domain.Appeal, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build appeal list: %w", err)
	}

	var rows []appealRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list appeals: %w", err)
	}

	out := make([]*domain.Appeal, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create stores a new appeal. A second appeal by the same party on the same
// case returns domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, a *domain.Appeal) (*domain.Appeal, error) {
	original, err := json.Marshal(a.Original)
	if err != nil {
		return nil, fmt.Errorf("marshal verdict snapshot: %w", err)
	}

	var filedBy *uuid.UUID
	if a.FiledBy.Authenticated() {
		u := a.FiledBy.UserID
		filedBy = &u
	}

	sql, args, err := postgres.Builder().
		Insert("appeals").
		Columns(
			"id", "case_id", "party", "reason", "new_evidence", "new_evidence_images",
			"filed_by_user_id", "filed_by_ip_hash", "status", "original", "created_at", "updated_at",
		).
		Values(
			a.ID, a.CaseID, a.Party, a.Reason, nonNil(a.NewEvidence), nonNil(a.NewEvidenceImages),
			filedBy, a.FiledBy.IPHash, a.Status, original, a.CreatedAt, a.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build appeal insert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...); err != nil {
		return nil, postgres.MapError(err, "appeal", a.ID)
	}
	return a, nil
}

// Transition moves an appeal between statuses. It returns domain.ErrConflict
// when the appeal is not currently in from.
func (r *Repo) Transition(ctx context.Context, id uuid.UUID, from, to domain.AppealStatus, now time.Time) (*domain.Appeal, error) {
	q := postgres.Builder().Update("appeals").
		Set("status", to).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": from})
	return r.updateOne(ctx, q, id)
}

// Finish records the final status and outcome of an appeal in processing.
func (r *Repo) Finish(ctx context.Context, id uuid.UUID, status domain.AppealStatus, outcome *domain.AppealOutcome, now time.Time) (*domain.Appeal, error) {
	var raw []byte
	if outcome != nil {
		var err error
		if raw, err = json.Marshal(outcome); err != nil {
			return nil, fmt.Errorf("marshal appeal outcome: %w", err)
		}
	}

	q := postgres.Builder().Update("appeals").
		Set("status", status).
		Set("outcome", raw).
		Set("processed_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": domain.AppealStatusProcessing})
	return r.updateOne(ctx, q, id)
}

func (r *Repo) updateOne(ctx context.Context, q squirrel.UpdateBuilder, id uuid.UUID) (*domain.Appeal, error) {
	sql, args, err := q.Suffix("RETURNING id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build appeal update: %w", err)
	}

	var got uuid.UUID
	err = postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&got)
	if postgres.IsNoRows(err) {
		return nil, fmt.Errorf("appeal %s: %w", id, domain.ErrConflict)
	}
	if err != nil {
		return nil, postgres.MapError(err, "appeal", id)
	}
	return r.GetByID(ctx, id)
}

type appealRow struct {
	ID                uuid.UUID  `db:"id"`
	CaseID            uuid.UUID  `db:"case_id"`
	CaseCode          string     `db:"case_code"`
	Party             string     `db:"party"`
	Reason            string     `db:"reason"`
	NewEvidence       []string   `db:"new_evidence"`
	NewEvidenceImages []string   `db:"new_evidence_images"`
	FiledByUserID     *uuid.UUID `db:"filed_by_user_id"`
	FiledByIPHash     string     `db:"filed_by_ip_hash"`
	Status            string     `db:"status"`
	Original          []byte     `db:"original"`
	Outcome           []byte     `db:"outcome"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
	ProcessedAt       *time.Time `db:"processed_at"`
}

func (r *appealRow) toDomain() (*domain.Appeal, error) {
	a := &domain.Appeal{
		ID:                r.ID,
		CaseID:            r.CaseID,
		CaseCode:          r.CaseCode,
		Party:             domain.Party(r.Party),
		Reason:            r.Reason,
		NewEvidence:       r.NewEvidence,
		NewEvidenceImages: r.NewEvidenceImages,
		FiledBy:           domain.Identity{IPHash: r.FiledByIPHash},
		Status:            domain.AppealStatus(r.Status),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		ProcessedAt:       r.ProcessedAt,
	}
	if r.FiledByUserID != nil {
		a.FiledBy.UserID = *r.FiledByUserID
	}
	if err := json.Unmarshal(r.Original, &a.Original); err != nil {
		return nil, fmt.Errorf("decode verdict snapshot: %w", err)
	}
	if len(r.Outcome) > 0 && !strings.EqualFold(string(r.Outcome), "null") {
		a.Outcome = &domain.AppealOutcome{}
		if err := json.Unmarshal(r.Outcome, a.Outcome); err != nil {
			return nil, fmt.Errorf("decode appeal outcome: %w", err)
		}
	}
	return a, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
