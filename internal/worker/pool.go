package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/whosright-backend/internal/metrics"
)

var (
	// ErrQueueFull is returned when the bounded queue cannot take another task.
	ErrQueueFull = errors.New("worker queue full")
	// ErrClosed is returned after Shutdown has begun.
	ErrClosed = errors.New("worker pool closed")
)

// Task is one detached unit of work. A task whose non-empty Key matches one
// still waiting in the queue is dropped. Once a worker picks a task up its
// key is free again, so a task queued during a run gets its own run.
type Task struct {
	Kind string
	Key  string
	Run  func(ctx context.Context) error
}

// Config sizes the pool.
type Config struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

// Pool runs tasks on a fixed set of goroutines fed by a bounded queue.
// Tasks run on a context detached from the submitter, so they outlive the
// request that queued them; Shutdown drains the queue before returning.
type Pool struct {
	cfg     Config
	queue   chan Task
	metrics *metrics.Metrics
	log     *slog.Logger

	mu       sync.RWMutex
	closed   bool
	inflight map[string]struct{}

	g    *errgroup.Group
	stop context.CancelFunc
}

// New creates a pool. Call Start before submitting.
func New(log *slog.Logger, m *metrics.Metrics, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	return &Pool{
		cfg:      cfg,
		queue:    make(chan Task, cfg.QueueSize),
		metrics:  m,
		log:      log.With("service", "worker"),
		inflight: make(map[string]struct{}),
	}
}

// Start launches the workers. Tasks keep ctx's values but not its
// cancellation; Shutdown is the only way to stop the pool.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.stop = context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		g.Go(func() error {
			for task := range p.queue {
				p.metrics.QueueLen(len(p.queue))
				p.run(gctx, task)
			}
			return nil
		})
	}
	p.g = g
	p.log.Info("worker pool started", slog.Int("workers", p.cfg.Workers), slog.Int("queue_size", p.cfg.QueueSize))
}

// Submit queues a task without blocking.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if task.Key != "" {
		if _, dup := p.inflight[task.Key]; dup {
			p.log.DebugContext(ctx, "task already queued", slog.String("kind", task.Kind), slog.String("key", task.Key))
			return nil
		}
	}

	select {
	case p.queue <- task:
		if task.Key != "" {
			p.inflight[task.Key] = struct{}{}
		}
		p.metrics.QueueLen(len(p.queue))
		return nil
	default:
		p.metrics.Task(task.Kind, "rejected")
		return fmt.Errorf("submit %s: %w", task.Kind, ErrQueueFull)
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
// If ctx expires first, running tasks are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	if p.g == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- p.g.Wait() }()

	select {
	case err := <-done:
		p.stop()
		return err
	case <-ctx.Done():
		p.stop()
		<-done
		return fmt.Errorf("worker shutdown: %w", ctx.Err())
	}
}

func (p *Pool) run(ctx context.Context, task Task) {
	p.release(task.Key)

	if p.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.TaskTimeout)
		defer cancel()
	}

	start := time.Now()
	err := safeRun(ctx, task)
	took := time.Since(start)

	if err != nil {
		p.metrics.Task(task.Kind, "error")
		p.log.Error("task failed",
			slog.String("kind", task.Kind),
			slog.String("key", task.Key),
			slog.Duration("took", took),
			slog.String("error", err.Error()),
		)
		return
	}
	p.metrics.Task(task.Kind, "ok")
	p.log.Debug("task done", slog.String("kind", task.Kind), slog.String("key", task.Key), slog.Duration("took", took))
}

func (p *Pool) release(key string) {
	if key == "" {
		return
	}
	p.mu.Lock()
	delete(p.inflight, key)
	p.mu.Unlock()
}

func safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return task.Run(ctx)
}
