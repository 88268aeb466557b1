package rest

import (
	"context"
	"net/http"
	"time"
)

// pinger is a dependency the service cannot work without.
type pinger interface {
	Ping(ctx context.Context) error
}

// Check is one named readiness dependency.
type Check struct {
	Name string
	Dep  pinger
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	checks  []Check
	version string
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. Checks with a nil Dep are skipped.
func NewHealthHandler(version string, checks ...Check) *HealthHandler {
	kept := make([]Check, 0, len(checks))
	for _, c := range checks {
		if c.Dep != nil {
			kept = append(kept, c)
		}
	}
	return &HealthHandler{checks: kept, version: version, timeout: 3 * time.Second}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness probe: 200 if every dependency answers, 503 if not.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status, _ := h.probe(r.Context())
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
	})
}

// Health is the full health check with per-component latency and version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, components := h.probe(r.Context())
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:     status,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

func (h *HealthHandler) probe(ctx context.Context) (string, map[string]CompStatus) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	overall := "ok"
	components := make(map[string]CompStatus, len(h.checks))
	for _, c := range h.checks {
		start := time.Now()
		if err := c.Dep.Ping(ctx); err != nil {
			components[c.Name] = CompStatus{Status: "down"}
			overall = "down"
			continue
		}
		components[c.Name] = CompStatus{Status: "ok", Latency: time.Since(start).String()}
	}
	return overall, components
}
