package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/service/appeal"
)

type appealService interface {
	File(ctx context.Context, code string, in appeal.FileInput) (*domain.Appeal, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Appeal, error)
	List(ctx context.Context, code string) ([]*domain.Appeal, error)
}

// AppealHandler serves the appeal endpoints.
type AppealHandler struct {
	svc appealService
	log *slog.Logger
}

// NewAppealHandler creates an AppealHandler.
func NewAppealHandler(svc appealService, logger *slog.Logger) *AppealHandler {
	return &AppealHandler{svc: svc, log: logger.With("handler", "appeals")}
}

type fileAppealRequest struct {
	Party             string   `json:"party"`
	Reason            string   `json:"reason"`
	NewEvidence       []string `json:"newEvidence"`
	NewEvidenceImages []string `json:"newEvidenceImages"`
}

// File handles POST /api/cases/{code}/appeals.
func (h *AppealHandler) File(w http.ResponseWriter, r *http.Request) {
	var req fileAppealRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	party, _ := domain.ParseParty(req.Party)
	a, err := h.svc.File(r.Context(), r.PathValue("code"), appeal.FileInput{
		Party:             party,
		Reason:            req.Reason,
		NewEvidence:       req.NewEvidence,
		NewEvidenceImages: req.NewEvidenceImages,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.Header().Set("Location", "/api/appeals/"+a.ID.String())
	writeJSON(w, http.StatusAccepted, toAppealResponse(a))
}

// List handles GET /api/cases/{code}/appeals.
func (h *AppealHandler) List(w http.ResponseWriter, r *http.Request) {
	appeals, err := h.svc.List(r.Context(), r.PathValue("code"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]appealResponse, 0, len(appeals))
	for _, a := range appeals {
		out = append(out, toAppealResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appeals": out})
}

// Get handles GET /api/appeals/{id}.
func (h *AppealHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, domain.NewValidationError("id", "must be a UUID"))
		return
	}

	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppealResponse(a))
}
