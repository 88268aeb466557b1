package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/whosright-backend/internal/adapter/memory"
	"github.com/heartmarshall/whosright-backend/internal/adapter/postgres"
	"github.com/heartmarshall/whosright-backend/internal/adapter/postgres/appeals"
	"github.com/heartmarshall/whosright-backend/internal/adapter/postgres/cases"
	"github.com/heartmarshall/whosright-backend/internal/adapter/postgres/stats"
	"github.com/heartmarshall/whosright-backend/internal/adapter/postgres/transitions"
	"github.com/heartmarshall/whosright-backend/internal/adapter/postgres/usage"
	"github.com/heartmarshall/whosright-backend/internal/adapter/postgres/verdicts"
	redisadapter "github.com/heartmarshall/whosright-backend/internal/adapter/redis"
	"github.com/heartmarshall/whosright-backend/internal/config"
	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/metrics"
	"github.com/heartmarshall/whosright-backend/internal/transport/rest"
	"github.com/heartmarshall/whosright-backend/migrations"
)

// The store interfaces are the union of what the services ask for, so the
// postgres and memory backends are interchangeable here.

type caseStore interface {
	Create(ctx context.Context, c *domain.Case) (*domain.Case, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Case, error)
	GetByCode(ctx context.Context, code string) (*domain.Case, error)
	List(ctx context.Context, f domain.CaseFilter) ([]*domain.Case, error)
	CommitResponse(ctx context.Context, id uuid.UUID, sub domain.PartySubmission, now time.Time) (*domain.Case, error)
	Transition(ctx context.Context, id uuid.UUID, from, to domain.CaseStatus, now time.Time) (*domain.Case, error)
	Expire(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Case, error)
	MarkAppealed(ctx context.Context, id uuid.UUID, party domain.Party, now time.Time) (*domain.Case, error)
}

type verdictStore interface {
	Create(ctx context.Context, v *domain.Verdict) (*domain.Verdict, error)
	GetByCaseID(ctx context.Context, caseID uuid.UUID) (*domain.Verdict, error)
}

type appealStore interface {
	Create(ctx context.Context, a *domain.Appeal) (*domain.Appeal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Appeal, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*domain.Appeal, error)
	ListByStatus(ctx context.Context, status domain.AppealStatus, updatedBefore time.Time, limit int) ([]*domain.Appeal, error)
	Transition(ctx context.Context, id uuid.UUID, from, to domain.AppealStatus, now time.Time) (*domain.Appeal, error)
	Finish(ctx context.Context, id uuid.UUID, status domain.AppealStatus, outcome *domain.AppealOutcome, now time.Time) (*domain.Appeal, error)
}

type usageStore interface {
	Used(ctx context.Context, key string, day time.Time) (int, error)
	Increment(ctx context.Context, key string, day time.Time) (int, error)
}

type statsStore interface {
	Get(ctx context.Context, key string) (*domain.IdentityStats, error)
	GetForUpdate(ctx context.Context, key string) (*domain.IdentityStats, error)
	Upsert(ctx context.Context, s *domain.IdentityStats) error
}

type transitionStore interface {
	Append(ctx context.Context, tr domain.CaseTransition) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]domain.CaseTransition, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type stores struct {
	cases       caseStore
	verdicts    verdictStore
	appeals     appealStore
	usage       usageStore
	stats       statsStore
	transitions transitionStore
	tx          txRunner

	checks  []rest.Check
	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects the configured storage driver and quota store.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, migrate bool) (*stores, error) {
	s := &stores{}

	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn("using in-memory storage, data is lost on restart")
		mem := memory.New()
		s.cases = mem.Cases()
		s.verdicts = mem.Verdicts()
		s.appeals = mem.Appeals()
		s.usage = mem.Usage()
		s.stats = mem.Stats()
		s.transitions = mem.Transitions()
		s.tx = mem
	default:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		s.checks = append(s.checks, rest.Check{Name: "postgres", Dep: pool})
		m.RegisterPool(pool)

		if migrate {
			if err := postgres.Migrate(ctx, pool, migrations.FS, logger); err != nil {
				s.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		s.usePostgres(pool)
	}

	if cfg.Storage.QuotaStore == "redis" {
		client, err := redisadapter.NewClient(ctx, cfg.Redis)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.closers = append(s.closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("close redis", slog.String("error", err.Error()))
			}
		})
		qs := redisadapter.NewQuotaStore(client, cfg.Redis, logger)
		s.usage = qs
		s.checks = append(s.checks, rest.Check{Name: "redis", Dep: qs})
	}

	return s, nil
}

func (s *stores) usePostgres(pool *pgxpool.Pool) {
	s.cases = cases.New(pool)
	s.verdicts = verdicts.New(pool)
	s.appeals = appeals.New(pool)
	s.usage = usage.New(pool)
	s.stats = stats.New(pool)
	s.transitions = transitions.New(pool)
	s.tx = postgres.NewTxManager(pool)
}
