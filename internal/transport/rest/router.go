package rest

import (
	"net/http"
)

// Handlers groups everything the router mounts. Metrics may be nil.
type Handlers struct {
	Cases   *CaseHandler
	Appeals *AppealHandler
	Health  *HealthHandler
	Metrics http.Handler
}

// NewRouter registers all routes on a ServeMux. Middleware is applied by the caller.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/cases", h.Cases.Create)
	mux.HandleFunc("GET /api/cases/{code}", h.Cases.Get)
	mux.HandleFunc("POST /api/cases/{code}/response", h.Cases.Respond)
	mux.HandleFunc("POST /api/cases/{code}/retrigger", h.Cases.Retrigger)
	mux.HandleFunc("GET /api/cases/{code}/history", h.Cases.History)
	mux.HandleFunc("GET /api/quota", h.Cases.Quota)
	mux.HandleFunc("GET /api/stats", h.Cases.Stats)

	mux.HandleFunc("POST /api/cases/{code}/appeals", h.Appeals.File)
	mux.HandleFunc("GET /api/cases/{code}/appeals", h.Appeals.List)
	mux.HandleFunc("GET /api/appeals/{id}", h.Appeals.Get)

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	return mux
}
