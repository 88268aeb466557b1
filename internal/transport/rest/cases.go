package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/service/dispute"
)

type disputeService interface {
	CreateCase(ctx context.Context, in dispute.CreateCaseInput) (*domain.Case, error)
	GetCase(ctx context.Context, code string) (*domain.Case, error)
	SubmitResponse(ctx context.Context, code string, in dispute.ResponseInput) (*domain.Case, error)
	Retrigger(ctx context.Context, code string) (*domain.Case, error)
	History(ctx context.Context, code string) ([]domain.CaseTransition, error)
	QuotaStatus(ctx context.Context) (domain.QuotaStatus, error)
	Stats(ctx context.Context) (*domain.IdentityStats, error)
}

// CaseHandler serves the case lifecycle endpoints.
type CaseHandler struct {
	svc disputeService
	log *slog.Logger
}

// NewCaseHandler creates a CaseHandler.
func NewCaseHandler(svc disputeService, logger *slog.Logger) *CaseHandler {
	return &CaseHandler{svc: svc, log: logger.With("handler", "cases")}
}

type createCaseRequest struct {
	Name           string   `json:"name"`
	Argument       string   `json:"argument"`
	Category       string   `json:"category"`
	Tone           string   `json:"tone"`
	Evidence       []string `json:"evidence"`
	EvidenceImages []string `json:"evidenceImages"`
}

type responseRequest struct {
	Name           string   `json:"name"`
	Argument       string   `json:"argument"`
	Evidence       []string `json:"evidence"`
	EvidenceImages []string `json:"evidenceImages"`
}

// Create handles POST /api/cases.
func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.svc.CreateCase(r.Context(), dispute.CreateCaseInput{
		Name:           req.Name,
		Argument:       req.Argument,
		Category:       domain.Category(req.Category),
		Tone:           domain.Tone(req.Tone),
		Evidence:       req.Evidence,
		EvidenceImages: req.EvidenceImages,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.Header().Set("Location", "/api/cases/"+c.Code)
	writeJSON(w, http.StatusCreated, toCaseResponse(r.Context(), c))
}

// Get handles GET /api/cases/{code}.
func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCase(r.Context(), r.PathValue("code"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseResponse(r.Context(), c))
}

// Respond handles POST /api/cases/{code}/response.
// The verdict is produced in the background; the case comes back in analyzing
// (or blocked_quota) and is polled with Get.
func (h *CaseHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req responseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.svc.SubmitResponse(r.Context(), r.PathValue("code"), dispute.ResponseInput{
		Name:           req.Name,
		Argument:       req.Argument,
		Evidence:       req.Evidence,
		EvidenceImages: req.EvidenceImages,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, statusFor(c), toCaseResponse(r.Context(), c))
}

// Retrigger handles POST /api/cases/{code}/retrigger.
func (h *CaseHandler) Retrigger(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Retrigger(r.Context(), r.PathValue("code"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, statusFor(c), toCaseResponse(r.Context(), c))
}

// History handles GET /api/cases/{code}/history.
func (h *CaseHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.History(r.Context(), r.PathValue("code"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]transitionResponse, 0, len(history))
	for _, tr := range history {
		out = append(out, transitionResponse{
			From:   string(tr.From),
			To:     string(tr.To),
			Reason: tr.Reason,
			At:     tr.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"transitions": out})
}

// Quota handles GET /api/quota.
func (h *CaseHandler) Quota(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.QuotaStatus(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotaResponse{
		CanUse:        st.CanUse,
		Remaining:     st.Remaining,
		Used:          st.Used,
		Limit:         st.Limit,
		Authenticated: callerIdentity(r.Context()).Authenticated(),
	})
}

// Stats handles GET /api/stats.
func (h *CaseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Wins:          st.Wins,
		Losses:        st.Losses,
		Draws:         st.Draws,
		Total:         st.Total(),
		CurrentStreak: st.CurrentStreak,
		BestStreak:    st.BestStreak,
		Badges:        nonNil(st.Badges),
	})
}

// statusFor answers 202 while generation is in flight.
func statusFor(c *domain.Case) int {
	if c.Status == domain.CaseStatusAnalyzing {
		return http.StatusAccepted
	}
	return http.StatusOK
}
