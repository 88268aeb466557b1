package dispute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// SubmitResponse commits party B's response. Exactly one concurrent call wins;
// the rest get a conflict describing the case as it now stands. A case that
// cannot pass the joint quota check is parked in blocked_quota and returned
// without an error.
func (s *Service) SubmitResponse(ctx context.Context, rawCode string, in ResponseInput) (*domain.Case, error) {
	in.normalize()
	if err := in.Validate(s.cfg); err != nil {
		return nil, err
	}

	c, err := s.GetCase(ctx, rawCode)
	if err != nil {
		return nil, err
	}
	if err := acceptsResponse(c); err != nil {
		return nil, err
	}

	id := callerIdentity(ctx)
	if id.IsZero() {
		return nil, domain.NewValidationError("identity", "caller could not be identified")
	}
	if c.PartyA.Identity.Same(id) {
		return nil, fmt.Errorf("dispute.SubmitResponse: party A cannot respond to its own case: %w", domain.ErrForbidden)
	}

	sub := domain.PartySubmission{
		Name:           in.Name,
		Argument:       in.Argument,
		Evidence:       in.Evidence,
		EvidenceImages: in.EvidenceImages,
		Identity:       id,
	}
	responded, err := s.cases.CommitResponse(ctx, c.ID, sub, s.now())
	if isConflict(err) {
		// Lost the race: report what happened instead.
		current, getErr := s.GetCase(ctx, c.Code)
		if getErr != nil {
			return nil, getErr
		}
		if err := acceptsResponse(current); err != nil {
			return nil, err
		}
		return nil, conflictFor(current, "response window closed")
	}
	if err != nil {
		return nil, fmt.Errorf("dispute.SubmitResponse: %w", err)
	}

	s.appendHistory(ctx, responded, domain.CaseStatusPendingResponse, domain.CaseStatusPendingResponse, domain.ReasonResponded)
	s.log.InfoContext(ctx, "response committed", slog.String("case_code", responded.Code))

	return s.gate(ctx, responded, domain.CaseStatusPendingResponse, domain.ReasonGenerationQueued)
}

// acceptsResponse reports why c cannot take a response, or nil if it can.
func acceptsResponse(c *domain.Case) error {
	switch {
	case c.Status == domain.CaseStatusExpired:
		return domain.ErrExpired
	case c.Status != domain.CaseStatusPendingResponse:
		return conflictFor(c, "case already has a response")
	case c.HasResponse():
		return conflictFor(c, "case already has a response")
	}
	return nil
}

// gate runs the joint quota check for a responded case sitting in from and
// hands it to generation when both parties may spend a verdict. Neither party
// is charged here.
func (s *Service) gate(ctx context.Context, c *domain.Case, from domain.CaseStatus, reason string) (*domain.Case, error) {
	ok, _, err := s.quota.CheckAll(ctx, c.PartyA.Identity, c.PartyB.Identity)
	if err != nil {
		if reason == domain.ReasonGenerationQueued {
			// The response is committed; the sweeper retries the gate.
			s.log.ErrorContext(ctx, "joint quota check failed",
				slog.String("case_code", c.Code),
				slog.String("error", err.Error()),
			)
			return c, nil
		}
		return nil, fmt.Errorf("dispute.gate: %w", err)
	}

	if !ok {
		s.metrics.QuotaDenial("joint")
		if from == domain.CaseStatusBlockedQuota {
			return nil, fmt.Errorf("dispute.gate: case %s: %w", c.Code, domain.ErrBlockedQuota)
		}
		blocked, err := s.move(ctx, c, from, domain.CaseStatusBlockedQuota, domain.ReasonQuotaBlocked)
		if err != nil {
			return nil, s.raceError(ctx, c, err)
		}
		s.log.InfoContext(ctx, "case blocked by quota", slog.String("case_code", c.Code))
		return blocked, nil
	}

	analyzing, err := s.move(ctx, c, from, domain.CaseStatusAnalyzing, reason)
	if err != nil {
		return nil, s.raceError(ctx, c, err)
	}

	if err := s.generator.Enqueue(ctx, analyzing.ID); err != nil {
		s.log.ErrorContext(ctx, "generation not queued",
			slog.String("case_code", c.Code),
			slog.String("error", err.Error()),
		)
		reverted, revertErr := s.move(context.WithoutCancel(ctx), analyzing,
			domain.CaseStatusAnalyzing, domain.CaseStatusPendingResponse, domain.ReasonDispatchFailed)
		if revertErr != nil {
			return nil, fmt.Errorf("dispute.gate: revert after %v: %w", err, revertErr)
		}
		return reverted, nil
	}

	s.log.InfoContext(ctx, "generation queued", slog.String("case_code", c.Code))
	return analyzing, nil
}

// raceError turns a lost conditional write into a conflict against the
// case's current state.
func (s *Service) raceError(ctx context.Context, c *domain.Case, err error) error {
	if !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("dispute: case %s: %w", c.Code, err)
	}
	current, getErr := s.GetCase(ctx, c.Code)
	if getErr != nil {
		return getErr
	}
	return conflictFor(current, "case changed concurrently")
}
