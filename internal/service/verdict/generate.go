package verdict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/service/judge"
)

// Generate computes and stores the verdict for a case in analyzing.
//
// The verdict insert and the analyzing -> complete transition commit together,
// so no reader observes a complete case without a verdict. Quota spend and
// identity statistics are recorded afterwards and only logged on failure.
// Engine failures revert the case to pending_response and return nil.
func (s *Service) Generate(ctx context.Context, caseID uuid.UUID) error {
	start := time.Now()

	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return fmt.Errorf("verdict.Generate: %w", err)
	}
	if c.Status != domain.CaseStatusAnalyzing {
		s.log.DebugContext(ctx, "case no longer analyzing",
			slog.String("case_code", c.Code),
			slog.String("status", string(c.Status)),
		)
		return nil
	}

	if c.PartyB == nil {
		s.log.ErrorContext(ctx, "case in analyzing without a response", slog.String("case_code", c.Code))
		s.revert(ctx, c, domain.ReasonMissingResponse)
		s.metrics.Verdict("missing_response", time.Since(start))
		return nil
	}

	v, err := s.judge.Judge(ctx, judge.VerdictRequest{
		CaseCode: c.Code,
		Category: c.Category,
		Tone:     c.Tone,
		PartyA:   c.PartyA,
		PartyB:   *c.PartyB,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "verdict generation failed",
			slog.String("case_code", c.Code),
			slog.Bool("engine_failure", domain.IsEngineFailure(err)),
			slog.String("error", err.Error()),
		)
		s.revert(ctx, c, domain.ReasonEngineFailed)
		s.metrics.Verdict("engine_failed", time.Since(start))
		return nil
	}

	now := s.now()
	v.ID = uuid.New()
	v.CaseID = c.ID
	v.CreatedAt = now

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.verdicts.Create(ctx, v); err != nil {
			return err
		}
		_, err := s.cases.Transition(ctx, c.ID, domain.CaseStatusAnalyzing, domain.CaseStatusComplete, now)
		return err
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		s.log.WarnContext(ctx, "case resolved concurrently, verdict discarded",
			slog.String("case_code", c.Code),
			slog.String("error", err.Error()),
		)
		s.metrics.Verdict("discarded", time.Since(start))
		return nil
	case err != nil:
		s.revert(ctx, c, domain.ReasonPersistFailed)
		s.metrics.Verdict("persist_failed", time.Since(start))
		return fmt.Errorf("verdict.Generate: store verdict for %s: %w", c.Code, err)
	}

	s.appendHistory(ctx, c, domain.CaseStatusAnalyzing, domain.CaseStatusComplete, domain.ReasonVerdictIssued)
	s.recordSpend(ctx, c)
	s.updateStats(ctx, c, v)

	s.metrics.Verdict(string(v.Winner), time.Since(start))
	s.log.InfoContext(ctx, "verdict issued",
		slog.String("case_code", c.Code),
		slog.String("verdict_id", v.ID.String()),
		slog.String("winner", string(v.Winner)),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

// revert moves the case back to pending_response. It runs even when ctx was
// cancelled, so a timed-out generation never leaves the case in analyzing.
func (s *Service) revert(ctx context.Context, c *domain.Case, reason string) {
	ctx = context.WithoutCancel(ctx)

	_, err := s.cases.Transition(ctx, c.ID, domain.CaseStatusAnalyzing, domain.CaseStatusPendingResponse, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.log.DebugContext(ctx, "revert skipped, case moved on", slog.String("case_code", c.Code))
			return
		}
		s.log.ErrorContext(ctx, "revert to pending_response failed",
			slog.String("case_code", c.Code),
			slog.String("error", err.Error()),
		)
		return
	}
	s.appendHistory(ctx, c, domain.CaseStatusAnalyzing, domain.CaseStatusPendingResponse, reason)
}

// recordSpend charges one verdict to each party.
func (s *Service) recordSpend(ctx context.Context, c *domain.Case) {
	ctx = context.WithoutCancel(ctx)
	for _, sub := range []*domain.PartySubmission{&c.PartyA, c.PartyB} {
		if _, err := s.quota.Record(ctx, sub.Identity); err != nil {
			s.log.ErrorContext(ctx, "quota spend not recorded",
				slog.String("case_code", c.Code),
				slog.String("error", err.Error()),
			)
		}
	}
}
