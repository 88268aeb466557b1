// Package cases implements the case repository using PostgreSQL.
// Every status-changing write is a conditional UPDATE: the expected current
// state is part of the WHERE clause, and zero affected rows means another
// writer got there first.
package cases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/whosright-backend/internal/adapter/postgres"
	"github.com/heartmarshall/whosright-backend/internal/domain"
)

const table = "cases"

var columns = []string{
	"id", "code", "category", "tone", "status",
	"party_a_name", "party_a_argument", "party_a_evidence", "party_a_evidence_images",
	"party_a_user_id", "party_a_ip_hash",
	"party_b_name", "party_b_argument", "party_b_evidence", "party_b_evidence_images",
	"party_b_user_id", "party_b_ip_hash",
	"appealed_by_a", "appealed_by_b", "appeal_count",
	"expires_at", "responded_at", "created_at", "updated_at",
}

// Repo provides case persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new case repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a case by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Case, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, id)
}

// GetByCode returns a case by its human-facing code.
func (r *Repo) GetByCode(ctx context.Context, code string) (*domain.Case, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *Repo) getOne(ctx context.Context, where squirrel.Sqlizer, key any) (*domain.Case, error) {
	sql, args, err := postgres.Builder().Select(columns...).From(table).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build case query: %w", err)
	}

	var row caseRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "case", key)
	}
	return row.toDomain(), nil
}

// List returns cases matching the filter, oldest update first.
func (r *Repo) List(ctx context.Context, f domain.CaseFilter) ([]*domain.Case, error) {
	q := postgres.Builder().Select(columns...).From(table).OrderBy("updated_at ASC")

	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}
	if f.Responded != nil {
		if *f.Responded {
			q = q.Where(squirrel.NotEq{"party_b_argument": nil})
		} else {
			q = q.Where(squirrel.Eq{"party_b_argument": nil})
		}
	}
	if f.UpdatedBefore != nil {
		q = q.Where(squirrel.Lt{"updated_at": *f.UpdatedBefore})
	}
	if f.ExpiresBefore != nil {
		q = q.Where(squirrel.LtOrEq{"expires_at": *f.ExpiresBefore})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build case list: %w", err)
	}

	var rows []caseRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}

	out := make([]*domain.Case, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new case. A code collision returns domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, c *domain.Case) (*domain.Case, error) {
	a := c.PartyA
	sql, args, err := postgres.Builder().
		Insert(table).
		Columns(
			"id", "code", "category", "tone", "status",
			"party_a_name", "party_a_argument", "party_a_evidence", "party_a_evidence_images",
			"party_a_user_id", "party_a_ip_hash",
			"expires_at", "created_at", "updated_at",
		).
		Values(
			c.ID, c.Code, c.Category, c.Tone, c.Status,
			a.Name, a.Argument, nonNil(a.Evidence), nonNil(a.EvidenceImages),
			userID(a.Identity), a.Identity.IPHash,
			c.ExpiresAt, c.CreatedAt, c.UpdatedAt,
		).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build case insert: %w", err)
	}

	var row caseRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "case", c.Code)
	}
	return row.toDomain(), nil
}

// CommitResponse stores party B's submission. It succeeds only while the case
// is pending, has no response yet and has not passed its expiry; otherwise
// domain.ErrConflict is returned and nothing changes.
func (r *Repo) CommitResponse(ctx context.Context, id uuid.UUID, sub domain.PartySubmission, now time.Time) (*domain.Case, error) {
	q := postgres.Builder().
		Update(table).
		Set("party_b_name", sub.Name).
		Set("party_b_argument", sub.Argument).
		Set("party_b_evidence", nonNil(sub.Evidence)).
		Set("party_b_evidence_images", nonNil(sub.EvidenceImages)).
		Set("party_b_user_id", userID(sub.Identity)).
		Set("party_b_ip_hash", sub.Identity.IPHash).
		Set("responded_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": domain.CaseStatusPendingResponse, "party_b_argument": nil}).
		Where(squirrel.Gt{"expires_at": now})

	return r.updateOne(ctx, q, id)
}

// Transition moves a case from one status to another. It returns
// domain.ErrConflict when the case is not currently in from.
func (r *Repo) Transition(ctx context.Context, id uuid.UUID, from, to domain.CaseStatus, now time.Time) (*domain.Case, error) {
	q := postgres.Builder().
		Update(table).
		Set("status", to).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": from})

	return r.updateOne(ctx, q, id)
}

// Expire marks an unanswered case whose window elapsed as expired.
func (r *Repo) Expire(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Case, error) {
	q := postgres.Builder().
		Update(table).
		Set("status", domain.CaseStatusExpired).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": domain.CaseStatusPendingResponse, "party_b_argument": nil}).
		Where(squirrel.LtOrEq{"expires_at": now})

	return r.updateOne(ctx, q, id)
}

// MarkAppealed flags that party used its single appeal on a complete case.
func (r *Repo) MarkAppealed(ctx context.Context, id uuid.UUID, party domain.Party, now time.Time) (*domain.Case, error) {
	flag := "appealed_by_a"
	if party == domain.PartyB {
		flag = "appealed_by_b"
	}

	q := postgres.Builder().
		Update(table).
		Set(flag, true).
		Set("appeal_count", squirrel.Expr("appeal_count + 1")).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": domain.CaseStatusComplete, flag: false})

	return r.updateOne(ctx, q, id)
}

func (r *Repo) updateOne(ctx context.Context, q squirrel.UpdateBuilder, id uuid.UUID) (*domain.Case, error) {
	sql, args, err := q.Suffix(returning()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build case update: %w", err)
	}

	var row caseRow
	err = pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, sql, args...)
	if postgres.IsNoRows(err) {
		return nil, fmt.Errorf("case %s: %w", id, domain.ErrConflict)
	}
	if err != nil {
		return nil, postgres.MapError(err, "case", id)
	}
	return row.toDomain(), nil
}

func returning() string {
	return "RETURNING " + strings.Join(columns, ", ")
}
