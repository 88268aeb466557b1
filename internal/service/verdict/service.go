// Package verdict runs verdict generation for cases in analyzing. Generation
// is queued on the worker pool and never reported to the request that
// triggered it; failures are resolved by moving the case back to
// pending_response so it can be retriggered.
package verdict

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/metrics"
	"github.com/heartmarshall/whosright-backend/internal/service/judge"
	"github.com/heartmarshall/whosright-backend/internal/worker"
)

type caseRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Case, error)
	Transition(ctx context.Context, id uuid.UUID, from, to domain.CaseStatus, now time.Time) (*domain.Case, error)
}

type verdictRepo interface {
	Create(ctx context.Context, v *domain.Verdict) (*domain.Verdict, error)
}

type transitionLog interface {
	Append(ctx context.Context, tr domain.CaseTransition) error
}

type statsRepo interface {
	GetForUpdate(ctx context.Context, key string) (*domain.IdentityStats, error)
	Upsert(ctx context.Context, s *domain.IdentityStats) error
}

type quotaRecorder interface {
	Record(ctx context.Context, id domain.Identity) (domain.QuotaStatus, error)
}

type judger interface {
	Judge(ctx context.Context, req judge.VerdictRequest) (*domain.Verdict, error)
}

type dispatcher interface {
	Submit(ctx context.Context, task worker.Task) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TaskKind labels generation tasks in the worker pool and metrics.
const TaskKind = "verdict"

// Service is the verdict generation orchestrator.
type Service struct {
	cases    caseRepo
	verdicts verdictRepo
	history  transitionLog
	stats    statsRepo
	quota    quotaRecorder
	judge    judger
	queue    dispatcher
	tx       txManager
	metrics  *metrics.Metrics
	now      func() time.Time
	log      *slog.Logger
}

// NewService creates a new verdict service.
func NewService(
	log *slog.Logger,
	cases caseRepo,
	verdicts verdictRepo,
	history transitionLog,
	stats statsRepo,
	quota quotaRecorder,
	judge judger,
	queue dispatcher,
	tx txManager,
	m *metrics.Metrics,
) *Service {
	return &Service{
		cases:    cases,
		verdicts: verdicts,
		history:  history,
		stats:    stats,
		quota:    quota,
		judge:    judge,
		queue:    queue,
		tx:       tx,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.With("service", "verdict"),
	}
}

// Enqueue schedules generation for a case that has just entered analyzing.
// It returns as soon as the task is queued.
func (s *Service) Enqueue(ctx context.Context, caseID uuid.UUID) error {
	return s.queue.Submit(ctx, worker.Task{
		Kind: TaskKind,
		Key:  TaskKind + ":" + caseID.String(),
		Run: func(ctx context.Context) error {
			return s.Generate(ctx, caseID)
		},
	})
}

func (s *Service) appendHistory(ctx context.Context, c *domain.Case, from, to domain.CaseStatus, reason string) {
	s.metrics.Transition(string(from), string(to))
	err := s.history.Append(ctx, domain.CaseTransition{
		ID:        uuid.New(),
		CaseID:    c.ID,
		From:      from,
		To:        to,
		Reason:    reason,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.log.WarnContext(ctx, "transition not logged",
			slog.String("case_code", c.Code),
			slog.String("to", string(to)),
			slog.String("error", err.Error()),
		)
	}
}
