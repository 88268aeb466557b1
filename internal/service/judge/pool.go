package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/metrics"
	"github.com/heartmarshall/whosright-backend/internal/provider"
)

// Completer is one credential-bound reasoning engine client.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req provider.CompletionRequest) (provider.Completion, error)
}

var errThrottled = errors.New("local request budget exhausted")

// PoolConfig tunes the rotation pool.
type PoolConfig struct {
	// CallTimeout bounds every single provider call.
	CallTimeout time.Duration
	// RatePerMinute is a client-side budget per credential; 0 disables it.
	RatePerMinute int
	// RetryAll rotates on every failure, including bad requests.
	RetryAll bool
}

type credential struct {
	client  Completer
	limiter *rate.Limiter
}

// Pool rotates requests across credentials. The cursor is shared by all
// callers and only ever advances past a credential that just failed.
type Pool struct {
	creds   []credential
	cursor  atomic.Uint64
	cfg     PoolConfig
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewPool creates a Pool over clients in rotation order.
func NewPool(log *slog.Logger, m *metrics.Metrics, cfg PoolConfig, clients ...Completer) *Pool {
	creds := make([]credential, 0, len(clients))
	for _, c := range clients {
		cred := credential{client: c}
		if cfg.RatePerMinute > 0 {
			cred.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
		}
		creds = append(creds, cred)
	}
	return &Pool{
		creds:   creds,
		cfg:     cfg,
		metrics: m,
		log:     log.With("service", "judge_pool"),
	}
}

// Size is the number of credentials in rotation.
func (p *Pool) Size() int { return len(p.creds) }

// Invoke sends req to the credential under the cursor, rotating on failure
// up to Size attempts. Exhaustion returns *domain.ProvidersExhaustedError
// carrying the last failure. A non-retriable failure stops rotation early.
func (p *Pool) Invoke(ctx context.Context, req provider.CompletionRequest) (provider.Completion, error) {
	n := uint64(len(p.creds))
	if n == 0 {
		return provider.Completion{}, &domain.ProvidersExhaustedError{Last: errors.New("no credentials configured")}
	}

	idx := p.cursor.Load()
	var lastErr error
	for attempt := 1; uint64(attempt) <= n; attempt++ {
		cred := p.creds[idx%n]
		name := cred.client.Name()

		out, err := p.call(ctx, cred, req)
		if err == nil {
			p.metrics.ProviderAttempt(name, "ok")
			return out, nil
		}

		kind := provider.KindOf(err)
		p.metrics.ProviderAttempt(name, string(kind))
		lastErr = err

		if ctx.Err() != nil {
			return provider.Completion{}, fmt.Errorf("judge.Invoke: %w", ctx.Err())
		}

		p.log.WarnContext(ctx, "provider attempt failed",
			slog.String("provider", name),
			slog.Int("slot", int(idx%n)),
			slog.Int("attempt", attempt),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)

		// Only move the shared cursor if nobody else already has.
		p.cursor.CompareAndSwap(idx, idx+1)
		idx++

		if !p.cfg.RetryAll && !kind.Retriable() {
			return provider.Completion{}, &domain.ProvidersExhaustedError{Attempts: attempt, Last: err}
		}
	}

	return provider.Completion{}, &domain.ProvidersExhaustedError{Attempts: int(n), Last: lastErr}
}

func (p *Pool) call(ctx context.Context, cred credential, req provider.CompletionRequest) (provider.Completion, error) {
	if cred.limiter != nil && !cred.limiter.Allow() {
		return provider.Completion{}, &provider.Error{
			Provider: cred.client.Name(),
			Kind:     provider.KindRateLimited,
			Err:      errThrottled,
		}
	}

	callCtx := ctx
	if p.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.cfg.CallTimeout)
		defer cancel()
	}

	out, err := cred.client.Complete(callCtx, req)
	if err != nil {
		return provider.Completion{}, provider.Classify(cred.client.Name(), 0, err)
	}
	return out, nil
}
