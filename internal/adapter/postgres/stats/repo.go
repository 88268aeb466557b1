// Package stats implements identity statistics persistence using PostgreSQL.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	postgres "github.com/heartmarshall/whosright-backend/internal/adapter/postgres"
	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// Repo provides win/loss statistics backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new stats repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// Get returns the statistics for key.
// Returns domain.ErrNotFound when the identity has no history yet.
func (r *Repo) Get(ctx context.Context, key string) (*domain.IdentityStats, error) {
	return r.get(ctx, key, "")
}

// GetForUpdate locks the statistics row for key inside the current
// transaction, creating an empty row first so that concurrent first results
// for the same identity serialize on it.
func (r *Repo) GetForUpdate(ctx context.Context, key string) (*domain.IdentityStats, error) {
	sql, args, err := postgres.Builder().
		Insert("identity_stats").
		Columns("identity_key").
		Values(key).
		Suffix("ON CONFLICT (identity_key) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats seed: %w", err)
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...); err != nil {
		return nil, postgres.MapError(err, "stats", key)
	}
	return r.get(ctx, key, "FOR UPDATE")
}

func (r *Repo) get(ctx context.Context, key, suffix string) (*domain.IdentityStats, error) {
	q := postgres.Builder().
		Select("identity_key", "wins", "losses", "draws", "current_streak", "best_streak", "badges", "updated_at").
		From("identity_stats").
		Where(squirrel.Eq{"identity_key": key})
	if suffix != "" {
		q = q.Suffix(suffix)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats query: %w", err)
	}

	var row statsRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "stats", key)
	}
	return &domain.IdentityStats{
		IdentityKey:   row.IdentityKey,
		Wins:          row.Wins,
		Losses:        row.Losses,
		Draws:         row.Draws,
		CurrentStreak: row.CurrentStreak,
		BestStreak:    row.BestStreak,
		Badges:        row.Badges,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

// Upsert writes s, replacing any previous statistics for the identity.
func (r *Repo) Upsert(ctx context.Context, s *domain.IdentityStats) error {
	badges := s.Badges
	if badges == nil {
		badges = []string{}
	}

	sql, args, err := postgres.Builder().
		Insert("identity_stats").
		Columns("identity_key", "wins", "losses", "draws", "current_streak", "best_streak", "badges", "updated_at").
		Values(s.IdentityKey, s.Wins, s.Losses, s.Draws, s.CurrentStreak, s.BestStreak, badges, s.UpdatedAt).
		Suffix(`ON CONFLICT (identity_key) DO UPDATE SET
			wins = EXCLUDED.wins, losses = EXCLUDED.losses, draws = EXCLUDED.draws,
			current_streak = EXCLUDED.current_streak, best_streak = EXCLUDED.best_streak,
			badges = EXCLUDED.badges, updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build stats upsert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "stats", s.IdentityKey)
	}
	return nil
}

type statsRow struct {
	IdentityKey   string    `db:"identity_key"`
	Wins          int       `db:"wins"`
	Losses        int       `db:"losses"`
	Draws         int       `db:"draws"`
	CurrentStreak int       `db:"current_streak"`
	BestStreak    int       `db:"best_streak"`
	Badges        []string  `db:"badges"`
	UpdatedAt     time.Time `db:"updated_at"`
}
