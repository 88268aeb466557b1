package dispute

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/config"
	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/metrics"
	"github.com/heartmarshall/whosright-backend/pkg/ctxutil"
)

type caseRepo interface {
	Create(ctx context.Context, c *domain.Case) (*domain.Case, error)
	GetByCode(ctx context.Context, code string) (*domain.Case, error)
	CommitResponse(ctx context.Context, id uuid.UUID, sub domain.PartySubmission, now time.Time) (*domain.Case, error)
	Transition(ctx context.Context, id uuid.UUID, from, to domain.CaseStatus, now time.Time) (*domain.Case, error)
	Expire(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Case, error)
	List(ctx context.Context, f domain.CaseFilter) ([]*domain.Case, error)
}

type verdictRepo interface {
	GetByCaseID(ctx context.Context, caseID uuid.UUID) (*domain.Verdict, error)
}

type transitionLog interface {
	Append(ctx context.Context, tr domain.CaseTransition) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]domain.CaseTransition, error)
}

type statsReader interface {
	Get(ctx context.Context, key string) (*domain.IdentityStats, error)
}

type quotaGate interface {
	Check(ctx context.Context, id domain.Identity) (domain.QuotaStatus, error)
	CheckAll(ctx context.Context, ids ...domain.Identity) (bool, []domain.QuotaStatus, error)
}

type generator interface {
	Enqueue(ctx context.Context, caseID uuid.UUID) error
}

// Service drives the case lifecycle from creation to the hand-off to
// verdict generation. Every status change is a conditional write keyed on the
// status the service last read; losing that race surfaces as domain.ErrConflict.
type Service struct {
	cases     caseRepo
	verdicts  verdictRepo
	history   transitionLog
	stats     statsReader
	quota     quotaGate
	generator generator
	cfg       config.CaseConfig
	metrics   *metrics.Metrics
	now       func() time.Time
	log       *slog.Logger
}

// NewService creates a new dispute service.
func NewService(
	log *slog.Logger,
	cases caseRepo,
	verdicts verdictRepo,
	history transitionLog,
	stats statsReader,
	quota quotaGate,
	gen generator,
	cfg config.CaseConfig,
	m *metrics.Metrics,
) *Service {
	return &Service{
		cases:     cases,
		verdicts:  verdicts,
		history:   history,
		stats:     stats,
		quota:     quota,
		generator: gen,
		cfg:       cfg,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log.With("service", "dispute"),
	}
}

// callerIdentity builds the acting identity from the request context.
func callerIdentity(ctx context.Context) domain.Identity {
	return domain.NewIdentity(ctxutil.CallerFromCtx(ctx))
}

// move performs a conditional status change and logs it.
func (s *Service) move(ctx context.Context, c *domain.Case, from, to domain.CaseStatus, reason string) (*domain.Case, error) {
	moved, err := s.cases.Transition(ctx, c.ID, from, to, s.now())
	if err != nil {
		return nil, err
	}
	s.appendHistory(ctx, moved, from, to, reason)
	return moved, nil
}

func (s *Service) appendHistory(ctx context.Context, c *domain.Case, from, to domain.CaseStatus, reason string) {
	if from != to {
		s.metrics.Transition(string(from), string(to))
	}
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

// conflictFor explains why a case no longer accepts the requested step.
func conflictFor(c *domain.Case, reason string) error {
	if c.Status == domain.CaseStatusExpired {
		return domain.ErrExpired
	}
	ce := &domain.ConflictError{CaseCode: c.Code, Status: c.Status, Reason: reason}
	if c.Verdict != nil {
		id := c.Verdict.ID
		ce.VerdictID = &id
	}
	return ce
}

func isConflict(err error) bool { return errors.Is(err, domain.ErrConflict) }
