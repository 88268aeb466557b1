package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	VerdictsTotal      *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	ProviderAttempts   *prometheus.CounterVec
	AppealsTotal       *prometheus.CounterVec
	CaseTransitions    *prometheus.CounterVec
	QuotaDenied        *prometheus.CounterVec
	QueueDepth         prometheus.Gauge
	TasksTotal         *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		VerdictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whosright_verdict_generations_total",
				Help: "Verdict generation runs, by result.",
			},
			[]string{"result"},
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "whosright_verdict_generation_duration_seconds",
				Help:    "Duration of one verdict generation run.",
				Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
			},
		),
		ProviderAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whosright_provider_attempts_total",
				Help: "Reasoning-engine calls, by provider and result kind.",
			},
			[]string{"provider", "result"},
		),
		AppealsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whosright_appeals_total",
				Help: "Appeals filed and resolved, by status.",
			},
			[]string{"status"},
		),
		CaseTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whosright_case_transitions_total",
				Help: "Case status transitions.",
			},
			[]string{"from", "to"},
		),
		QuotaDenied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whosright_quota_denied_total",
				Help: "Quota gate denials, by gate.",
			},
			[]string{"gate"},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "whosright_worker_queue_depth",
				Help: "Tasks waiting in the worker queue.",
			},
		),
		TasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whosright_worker_tasks_total",
				Help: "Worker tasks, by kind and result.",
			},
			[]string{"kind", "result"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whosright_api_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by method and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "whosright_requests_in_flight",
				Help: "Number of HTTP requests currently being served.",
			},
		),
	}

	m.registry.MustRegister(
		m.VerdictsTotal,
		m.GenerationDuration,
		m.ProviderAttempts,
		m.AppealsTotal,
		m.CaseTransitions,
		m.QuotaDenied,
		m.QueueDepth,
		m.TasksTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RegisterPool exposes live connection pool stats.
func (m *Metrics) RegisterPool(pool *pgxpool.Pool) {
	if m == nil || pool == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "whosright_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 { return float64(pool.Stat().AcquiredConns()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "whosright_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 { return float64(pool.Stat().IdleConns()) },
		),
	)
}

// Registry returns the underlying registry (for tests and custom exporters).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Verdict counts one generation run and its duration.
func (m *Metrics) Verdict(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.VerdictsTotal.WithLabelValues(result).Inc()
	m.GenerationDuration.Observe(took.Seconds())
}

// ProviderAttempt counts one call to a reasoning engine.
func (m *Metrics) ProviderAttempt(provider, result string) {
	if m == nil {
		return
	}
	m.ProviderAttempts.WithLabelValues(provider, result).Inc()
}

// Appeal counts an appeal reaching status.
func (m *Metrics) Appeal(status string) {
	if m == nil {
		return
	}
	m.AppealsTotal.WithLabelValues(status).Inc()
}

// Transition counts a case status change.
func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.CaseTransitions.WithLabelValues(from, to).Inc()
}

// QuotaDenial counts a failed quota gate ("create" or "joint").
func (m *Metrics) QuotaDenial(gate string) {
	if m == nil {
		return
	}
	m.QuotaDenied.WithLabelValues(gate).Inc()
}

// QueueLen sets the current worker queue depth.
func (m *Metrics) QueueLen(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

// Task counts one finished worker task.
func (m *Metrics) Task(kind, result string) {
	if m == nil {
		return
	}
	m.TasksTotal.WithLabelValues(kind, result).Inc()
}

// Middleware records request duration and in-flight count.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		m.RequestDuration.WithLabelValues(r.Method, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
