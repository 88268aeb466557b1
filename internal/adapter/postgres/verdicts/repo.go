// Package verdicts implements the verdict repository using PostgreSQL.
// A case has at most one verdict; the case_id UNIQUE constraint enforces it.
package verdicts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/whosright-backend/internal/adapter/postgres"
	"github.com/heartmarshall/whosright-backend/internal/domain"
)

var columns = []string{
	"id", "case_id", "winner", "party_a_score", "party_b_score",
	"party_a_analysis", "party_b_analysis", "confidence",
	"summary", "reasoning", "advice", "provider", "model", "created_at",
}

// Repo provides verdict persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new verdict repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// Create stores a verdict. A second verdict for the same case returns
// domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, v *domain.Verdict) (*domain.Verdict, error) {
	a, err := json.Marshal(v.PartyA)
	if err != nil {
		return nil, fmt.Errorf("marshal party A analysis: %w", err)
	}
	b, err := json.Marshal(v.PartyB)
	if err != nil {
		return nil, fmt.Errorf("marshal party B analysis: %w", err)
	}

	sql, args, err := postgres.Builder().
		Insert("verdicts").
		Columns(columns...).
		Values(
			v.ID, v.CaseID, v.Winner, v.PartyA.Score, v.PartyB.Score,
			a, b, v.Confidence,
			v.Summary, v.Reasoning, v.Advice, v.Provider, v.Model, v.CreatedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build verdict insert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...); err != nil {
		return nil, postgres.MapError(err, "verdict for case", v.CaseID)
	}
	return v, nil
}

// GetByCaseID returns the verdict issued for a case.
func (r *Repo) GetByCaseID(ctx context.Context, caseID uuid.UUID) (*domain.Verdict, error) {
	sql, args, err := postgres.Builder().
		Select(columns...).
		From("verdicts").
		Where(squirrel.Eq{"case_id": caseID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build verdict query: %w", err)
	}

	var row verdictRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "verdict for case", caseID)
	}
	return row.toDomain()
}

type verdictRow struct {
	ID             uuid.UUID `db:"id"`
	CaseID         uuid.UUID `db:"case_id"`
	Winner         string    `db:"winner"`
	PartyAScore    int       `db:"party_a_score"`
	PartyBScore    int       `db:"party_b_score"`
	PartyAAnalysis []byte    `db:"party_a_analysis"`
	PartyBAnalysis []byte    `db:"party_b_analysis"`
	Confidence     int       `db:"confidence"`
	Summary        string    `db:"summary"`
	Reasoning      string    `db:"reasoning"`
	Advice         string    `db:"advice"`
	Provider       string    `db:"provider"`
	Model          string    `db:"model"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r *verdictRow) toDomain() (*domain.Verdict, error) {
	v := &domain.Verdict{
		ID:         r.ID,
		CaseID:     r.CaseID,
		Winner:     domain.Winner(r.Winner),
		Confidence: r.Confidence,
		Summary:    r.Summary,
		Reasoning:  r.Reasoning,
		Advice:     r.Advice,
		Provider:   r.Provider,
		Model:      r.Model,
		CreatedAt:  r.CreatedAt,
	}
	if err := json.Unmarshal(r.PartyAAnalysis, &v.PartyA); err != nil {
		return nil, fmt.Errorf("decode party A analysis: %w", err)
	}
	if err := json.Unmarshal(r.PartyBAnalysis, &v.PartyB); err != nil {
		return nil, fmt.Errorf("decode party B analysis: %w", err)
	}
	// Score columns are authoritative; the sum constraint lives on them.
	v.PartyA.Score = r.PartyAScore
	v.PartyB.Score = r.PartyBScore
	return v, nil
}
