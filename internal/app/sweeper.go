package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/whosright-backend/internal/config"
)

// Sweep runs one maintenance pass over cases and appeals: expire overdue
// cases, recover stalled generations and appeals, then requeue work that
// never got dispatched. Generation and appeal tasks queued by the pass run
// on a local worker pool that is drained before Sweep returns.
func Sweep(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Storage.Driver == "memory" {
		return errors.New("sweeper requires the postgres storage driver")
	}

	svc, err := newServices(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer svc.stores.Close()

	svc.queue.Start(ctx)
	logger.Info("sweep started", buildAttrs(), slog.Int("batch_size", cfg.Sweeper.BatchSize))

	sw := cfg.Sweeper
	var errs []error

	expired, err := svc.disputes.ExpireOverdue(ctx, sw.BatchSize)
	errs = append(errs, err)
	recovered, err := svc.disputes.RecoverStale(ctx, sw.StaleAnalyzingAfter, sw.BatchSize)
	errs = append(errs, err)
	retriggered, err := svc.disputes.RetriggerPending(ctx, sw.RetriggerAfter, sw.BatchSize)
	errs = append(errs, err)

	logger.Info("case sweep completed",
		slog.Int("expired", expired.Expired),
		slog.Int("recovered", recovered.Recovered),
		slog.Int("retriggered", retriggered.Retriggered),
		slog.Int("failed", expired.Failed+recovered.Failed+retriggered.Failed),
	)

	rejected, err := svc.appeals.RecoverStale(ctx, sw.StaleAnalyzingAfter, sw.BatchSize)
	errs = append(errs, err)
	queued, err := svc.appeals.QueuePending(ctx, sw.RetriggerAfter, sw.BatchSize)
	errs = append(errs, err)

	logger.Info("appeal sweep completed",
		slog.Int("rejected", rejected.Rejected),
		slog.Int("queued", queued.Queued),
		slog.Int("failed", rejected.Failed+queued.Failed),
	)

	if err := svc.queue.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain queued tasks: %w", err))
	}
	return errors.Join(errs...)
}
