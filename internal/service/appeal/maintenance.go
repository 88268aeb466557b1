package appeal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// SweepResult counts what one maintenance pass touched.
type SweepResult struct {
	Queued   int
	Rejected int
	Failed   int
}

// QueuePending queues appeals left pending longer than olderThan, for
// example because the queue was full when they were filed.
func (s *Service) QueuePending(ctx context.Context, olderThan time.Duration, limit int) (SweepResult, error) {
	var res SweepResult

	pending, err := s.appeals.ListByStatus(ctx, domain.AppealStatusPending, s.now().Add(-olderThan), limit)
	if err != nil {
		return res, fmt.Errorf("appeal.QueuePending: %w", err)
	}
	for _, a := range pending {
		if err := s.Enqueue(ctx, a.ID); err != nil {
			res.Failed++
			s.log.WarnContext(ctx, "appeal not queued", slog.String("appeal_id", a.ID.String()), slog.String("error", err.Error()))
			continue
		}
		res.Queued++
	}
	return res, nil
}

// RecoverStale rejects appeals stuck in processing longer than olderThan.
func (s *Service) RecoverStale(ctx context.Context, olderThan time.Duration, limit int) (SweepResult, error) {
	var res SweepResult

	stale, err := s.appeals.ListByStatus(ctx, domain.AppealStatusProcessing, s.now().Add(-olderThan), limit)
	if err != nil {
		return res, fmt.Errorf("appeal.RecoverStale: %w", err)
	}
	for _, a := range stale {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if !s.reject(ctx, a, "processing stalled") {
			res.Failed++
			continue
		}
		res.Rejected++
	}
	return res, nil
}
