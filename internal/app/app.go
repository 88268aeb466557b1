package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/heartmarshall/whosright-backend/internal/adapter/provider/anthropic"
	"github.com/heartmarshall/whosright-backend/internal/adapter/provider/openai"
	"github.com/heartmarshall/whosright-backend/internal/auth"
	"github.com/heartmarshall/whosright-backend/internal/config"
	"github.com/heartmarshall/whosright-backend/internal/metrics"
	"github.com/heartmarshall/whosright-backend/internal/service/appeal"
	"github.com/heartmarshall/whosright-backend/internal/service/dispute"
	"github.com/heartmarshall/whosright-backend/internal/service/judge"
	"github.com/heartmarshall/whosright-backend/internal/service/quota"
	"github.com/heartmarshall/whosright-backend/internal/service/verdict"
	"github.com/heartmarshall/whosright-backend/internal/transport/middleware"
	"github.com/heartmarshall/whosright-backend/internal/transport/rest"
	"github.com/heartmarshall/whosright-backend/internal/worker"
)

// services is the wired object graph shared by the server and the sweeper.
type services struct {
	stores   *stores
	metrics  *metrics.Metrics
	queue    *worker.Pool
	disputes *dispute.Service
	appeals  *appeal.Service
}

func newServices(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (*services, error) {
	m := metrics.New()

	st, err := openStores(ctx, cfg, logger, m, migrate)
	if err != nil {
		return nil, err
	}

	queue := worker.New(logger, m, worker.Config{
		Workers:     cfg.Worker.Workers,
		QueueSize:   cfg.Worker.QueueSize,
		TaskTimeout: cfg.Worker.TaskTimeout,
	})

	judgeSvc := newJudge(logger, m, cfg.Judge)
	ledger := quota.NewLedger(logger, st.usage, quota.Limits{
		Anonymous:     cfg.Quota.AnonymousDaily,
		Authenticated: cfg.Quota.AuthenticatedDaily,
	})

	verdicts := verdict.NewService(logger, st.cases, st.verdicts, st.transitions, st.stats, ledger, judgeSvc, queue, st.tx, m)

	return &services{
		stores:   st,
		metrics:  m,
		queue:    queue,
		disputes: dispute.NewService(logger, st.cases, st.verdicts, st.transitions, st.stats, ledger, verdicts, cfg.Case, m),
		appeals:  appeal.NewService(logger, st.cases, st.verdicts, st.appeals, judgeSvc, queue, st.tx, cfg.Case, m),
	}, nil
}

// newJudge builds the credential rotation pool: Anthropic keys first, then OpenAI keys.
func newJudge(logger *slog.Logger, m *metrics.Metrics, cfg config.JudgeConfig) *judge.Service {
	var clients []judge.Completer
	for _, key := range cfg.AnthropicKeys {
		clients = append(clients, anthropic.NewClient(key, cfg.AnthropicModel, logger))
	}
	for _, key := range cfg.OpenAIKeys {
		clients = append(clients, openai.NewClient(key, cfg.OpenAIModel, cfg.OpenAIBaseURL, logger))
	}

	pool := judge.NewPool(logger, m, judge.PoolConfig{
		CallTimeout:   cfg.CallTimeout,
		RatePerMinute: cfg.RatePerMinute,
		RetryAll:      cfg.RetryAll,
	}, clients...)

	logger.Info("judge pool ready", slog.Int("credentials", pool.Size()))
	return judge.NewService(logger, pool, cfg.MaxTokens, cfg.Temperature)
}

// Run is the server entry point. It wires storage, services and the HTTP
// transport, then serves until ctx is cancelled and drains the worker pool.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		buildAttrs(),
		slog.String("log_level", cfg.Log.Level),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("quota_store", cfg.Storage.QuotaStore),
		slog.Bool("auth", cfg.Auth.Enabled()),
	)

	svc, err := newServices(ctx, cfg, logger, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer svc.stores.Close()

	svc.queue.Start(ctx)

	mux := rest.NewRouter(rest.Handlers{
		Cases:   rest.NewCaseHandler(svc.disputes, logger),
		Appeals: rest.NewAppealHandler(svc.appeals, logger),
		Health:  rest.NewHealthHandler(BuildVersion(), svc.stores.checks...),
		Metrics: svc.metrics.Handler(),
	})

	var authMW middleware.Middleware
	if cfg.Auth.Enabled() {
		authMW = middleware.Auth(auth.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer))
	}

	// Auth sits outside Logger so the request line carries user_id.
	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.ClientIP(cfg.Server.TrustProxy),
		middleware.CORS(cfg.CORS),
		authMW,
		middleware.Logger(logger),
		svc.metrics.Middleware,
	)(mux)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("http server failed", slog.String("error", serveErr.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.String("error", err.Error()))
	}
	if err := svc.queue.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker shutdown", slog.String("error", err.Error()))
	}

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	logger.Info("stopped")
	return nil
}
