// Command sweeper runs one maintenance pass over cases and appeals: it
// expires unanswered cases, recovers stalled verdict generations and
// appeals, and requeues work left pending. It is intended to be invoked by
// an external cron job, not as an in-process goroutine.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/heartmarshall/whosright-backend/internal/app"
	"github.com/heartmarshall/whosright-backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Sweeper.Timeout)
	defer cancel()

	if err := app.Sweep(ctx, cfg, logger); err != nil {
		logger.Error("sweep failed", slog.String("error", err.Error()))
		cancel()
		os.Exit(1)
	}
}
