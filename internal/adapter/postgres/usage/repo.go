// Package usage implements the daily verdict quota ledger using PostgreSQL.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	postgres "github.com/heartmarshall/whosright-backend/internal/adapter/postgres"
)

// Repo stores per-identity, per-day verdict counts.
type Repo struct {
	db postgres.Querier
}

// New creates a new usage repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// Used returns how many verdicts key consumed on day. Missing rows count as zero.
func (r *Repo) Used(ctx context.Context, key string, day time.Time) (int, error) {
	sql, args, err := postgres.Builder().
		Select("used").
		From("usage_records").
		Where(squirrel.Eq{"identity_key": key, "day": day}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build usage query: %w", err)
	}

	var used int
	err = postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&used)
	if postgres.IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, postgres.MapError(err, "usage", key)
	}
	return used, nil
}

// Increment atomically adds one verdict to key's count for day and returns the new total.
func (r *Repo) Increment(ctx context.Context, key string, day time.Time) (int, error) {
	sql, args, err := postgres.Builder().
		Insert("usage_records").
		Columns("identity_key", "day", "used", "updated_at").
		Values(key, day, 1, squirrel.Expr("now()")).
		Suffix("ON CONFLICT (identity_key, day) DO UPDATE SET used = usage_records.used + 1, updated_at = now() RETURNING used").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build usage upsert: %w", err)
	}

	var used int
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&used); err != nil {
		return 0, postgres.MapError(err, "usage", key)
	}
	return used, nil
}
