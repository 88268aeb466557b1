// Package appeal implements the post-verdict appeal workflow: each party of a
// complete case may file one appeal, which is processed once in the
// background and ends completed or rejected. The original verdict is never
// modified; the appeal carries its own before and after snapshots.
package appeal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/config"
	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/metrics"
	"github.com/heartmarshall/whosright-backend/internal/service/judge"
	"github.com/heartmarshall/whosright-backend/internal/worker"
	"github.com/heartmarshall/whosright-backend/pkg/ctxutil"
)

type caseRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Case, error)
	GetByCode(ctx context.Context, code string) (*domain.Case, error)
	MarkAppealed(ctx context.Context, id uuid.UUID, party domain.Party, now time.Time) (*domain.Case, error)
}

type verdictRepo interface {
	GetByCaseID(ctx context.Context, caseID uuid.UUID) (*domain.Verdict, error)
}

type appealRepo interface {
	Create(ctx context.Context, a *domain.Appeal) (*domain.Appeal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Appeal, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*domain.Appeal, error)
	ListByStatus(ctx context.Context, status domain.AppealStatus, updatedBefore time.Time, limit int) ([]*domain.Appeal, error)
	Transition(ctx context.Context, id uuid.UUID, from, to domain.AppealStatus, now time.Time) (*domain.Appeal, error)
	Finish(ctx context.Context, id uuid.UUID, status domain.AppealStatus, outcome *domain.AppealOutcome, now time.Time) (*domain.Appeal, error)
}

type reconsiderer interface {
	Reconsider(ctx context.Context, req judge.AppealRequest) (*domain.AppealDecision, error)
}

type dispatcher interface {
	Submit(ctx context.Context, task worker.Task) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TaskKind labels appeal tasks in the worker pool and metrics.
const TaskKind = "appeal"

// Service is the appeal workflow.
type Service struct {
	cases    caseRepo
	verdicts verdictRepo
	appeals  appealRepo
	judge    reconsiderer
	queue    dispatcher
	tx       txManager
	cfg      config.CaseConfig
	metrics  *metrics.Metrics
	now      func() time.Time
	log      *slog.Logger
}

// NewService creates a new appeal service.
func NewService(
	log *slog.Logger,
	cases caseRepo,
	verdicts verdictRepo,
	appeals appealRepo,
	judge reconsiderer,
	queue dispatcher,
	tx txManager,
	cfg config.CaseConfig,
	m *metrics.Metrics,
) *Service {
	return &Service{
		cases:    cases,
		verdicts: verdicts,
		appeals:  appeals,
		judge:    judge,
		queue:    queue,
		tx:       tx,
		cfg:      cfg,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.With("service", "appeal"),
	}
}

// Enqueue schedules processing of a pending appeal.
func (s *Service) Enqueue(ctx context.Context, appealID uuid.UUID) error {
	return s.queue.Submit(ctx, worker.Task{
		Kind: TaskKind,
		Key:  TaskKind + ":" + appealID.String(),
		Run: func(ctx context.Context) error {
			return s.Process(ctx, appealID)
		},
	})
}

func callerIdentity(ctx context.Context) domain.Identity {
	return domain.NewIdentity(ctxutil.CallerFromCtx(ctx))
}
