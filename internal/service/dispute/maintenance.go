package dispute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// SweepResult counts what one maintenance pass touched.
type SweepResult struct {
	Expired     int
	Recovered   int
	Retriggered int
	Failed      int
}

// ExpireOverdue expires unanswered cases whose response window elapsed.
func (s *Service) ExpireOverdue(ctx context.Context, limit int) (SweepResult, error) {
	var res SweepResult

	now := s.now()
	responded := false
	overdue, err := s.cases.List(ctx, domain.CaseFilter{
		Status:        domain.CaseStatusPendingResponse,
		Responded:     &responded,
		ExpiresBefore: &now,
		Limit:         limit,
	})
	if err != nil {
		return res, fmt.Errorf("dispute.ExpireOverdue: %w", err)
	}

	for _, c := range overdue {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		expired, err := s.expire(ctx, c)
		if err != nil {
			res.Failed++
			s.log.WarnContext(ctx, "expire failed", slog.String("case_code", c.Code), slog.String("error", err.Error()))
			continue
		}
		if expired.Status == domain.CaseStatusExpired {
			res.Expired++
		}
	}
	return res, nil
}

// RecoverStale returns cases stuck in analyzing longer than olderThan to
// pending_response. Such cases lost their generation task, for example to a
// restart.
func (s *Service) RecoverStale(ctx context.Context, olderThan time.Duration, limit int) (SweepResult, error) {
	var res SweepResult

	before := s.now().Add(-olderThan)
	stale, err := s.cases.List(ctx, domain.CaseFilter{
		Status:        domain.CaseStatusAnalyzing,
		UpdatedBefore: &before,
		Limit:         limit,
	})
	if err != nil {
		return res, fmt.Errorf("dispute.RecoverStale: %w", err)
	}

	for _, c := range stale {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		_, err := s.move(ctx, c, domain.CaseStatusAnalyzing, domain.CaseStatusPendingResponse, domain.ReasonStaleRecovered)
		switch {
		case errors.Is(err, domain.ErrConflict):
			// Finished in the meantime.
		case err != nil:
			res.Failed++
			s.log.WarnContext(ctx, "stale recovery failed", slog.String("case_code", c.Code), slog.String("error", err.Error()))
		default:
			res.Recovered++
			s.log.InfoContext(ctx, "stale case recovered", slog.String("case_code", c.Code))
		}
	}
	return res, nil
}

// RetriggerPending re-runs the quota gate for responded cases idle longer
// than olderThan: pending_response with a response, and blocked_quota.
func (s *Service) RetriggerPending(ctx context.Context, olderThan time.Duration, limit int) (SweepResult, error) {
	var res SweepResult

	before := s.now().Add(-olderThan)
	responded := true
	pending, err := s.cases.List(ctx, domain.CaseFilter{
		Status:        domain.CaseStatusPendingResponse,
		Responded:     &responded,
		UpdatedBefore: &before,
		Limit:         limit,
	})
	if err != nil {
		return res, fmt.Errorf("dispute.RetriggerPending: %w", err)
	}
	blocked, err := s.cases.List(ctx, domain.CaseFilter{
		Status:        domain.CaseStatusBlockedQuota,
		UpdatedBefore: &before,
		Limit:         limit,
	})
	if err != nil {
		return res, fmt.Errorf("dispute.RetriggerPending: %w", err)
	}

	for _, c := range append(pending, blocked...) {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		after, err := s.gate(ctx, c, c.Status, domain.ReasonRetriggered)
		switch {
		case errors.Is(err, domain.ErrBlockedQuota), errors.Is(err, domain.ErrConflict):
		case err != nil:
			res.Failed++
			s.log.WarnContext(ctx, "retrigger failed", slog.String("case_code", c.Code), slog.String("error", err.Error()))
		case after.Status == domain.CaseStatusAnalyzing:
			res.Retriggered++
		}
	}
	return res, nil
}
