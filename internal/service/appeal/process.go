package appeal

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

// changeSummaryFailed is shown when the engine could not evaluate the appeal.
const changeSummaryFailed = "The appeal could not be evaluated. The original verdict stands."

// Process evaluates a pending appeal. It runs at most once per appeal:
// anything not pending returns domain.ErrAlreadyProcessed. Engine failures
// end the appeal as rejected and are not returned.
func (s *Service) Process(ctx context.Context, appealID uuid.UUID) error {
	a, err := s.appeals.Transition(ctx, appealID, domain.AppealStatusPending, domain.AppealStatusProcessing, s.now())
	if errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("appeal %s: %w", appealID, domain.ErrAlreadyProcessed)
	}
	if err != nil {
		return fmt.Errorf("appeal.Process: %w", err)
	}
	s.metrics.Appeal(string(domain.AppealStatusProcessing))

	c, err := s.cases.GetByID(ctx, a.CaseID)
	if err != nil {
		s.reject(ctx, a, "case unavailable: "+err.Error())
		return fmt.Errorf("appeal.Process: %w", err)
	}
	if c.PartyB == nil {
		s.reject(ctx, a, "case has no response")
		return nil
	}

	start := time.Now()
	d, err := s.judge.Reconsider(ctx, judge.AppealRequest{
		VerdictRequest: judge.VerdictRequest{
			CaseCode: c.Code,
			Category: c.Category,
			Tone:     c.Tone,
			PartyA:   c.PartyA,
			PartyB:   *c.PartyB,
		},
		Appellant:         a.Party,
		Reason:            a.Reason,
		NewEvidence:       a.NewEvidence,
		NewEvidenceImages: a.NewEvidenceImages,
		Original:          a.Original,
	})
	if err != nil {
		s.reject(ctx, a, err.Error())
		return nil
	}

	outcome := &domain.AppealOutcome{
		NewVerdict:        d.Snapshot(),
		VerdictChanged:    d.Winner != a.Original.Winner,
		ChangeSummary:     d.ChangeSummary,
		Meritorious:       d.Meritorious,
		NewEvidenceImpact: d.NewEvidenceImpact,
	}
	done, err := s.appeals.Finish(context.WithoutCancel(ctx), a.ID, domain.AppealStatusCompleted, outcome, s.now())
	if err != nil {
		s.log.ErrorContext(ctx, "appeal outcome not stored",
			slog.String("appeal_id", a.ID.String()),
			slog.String("error", err.Error()),
		)
		s.reject(ctx, a, "outcome not stored")
		return fmt.Errorf("appeal.Process: %w", err)
	}

	s.metrics.Appeal(string(domain.AppealStatusCompleted))
	s.log.InfoContext(ctx, "appeal completed",
		slog.String("case_code", c.Code),
		slog.String("appeal_id", done.ID.String()),
		slog.Bool("verdict_changed", outcome.VerdictChanged),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

// reject ends an appeal in processing as rejected with the original verdict
// standing. It runs even if ctx was cancelled.
func (s *Service) reject(ctx context.Context, a *domain.Appeal, cause string) bool {
	ctx = context.WithoutCancel(ctx)
	outcome := &domain.AppealOutcome{
		NewVerdict:    a.Original,
		ChangeSummary: changeSummaryFailed,
	}
	if _, err := s.appeals.Finish(ctx, a.ID, domain.AppealStatusRejected, outcome, s.now()); err != nil {
		s.log.ErrorContext(ctx, "appeal not rejected",
			slog.String("appeal_id", a.ID.String()),
			slog.String("error", err.Error()),
		)
		return false
	}
	s.metrics.Appeal(string(domain.AppealStatusRejected))
	s.log.WarnContext(ctx, "appeal rejected",
		slog.String("case_code", a.CaseCode),
		slog.String("appeal_id", a.ID.String()),
		slog.String("cause", cause),
	)
	return true
}
