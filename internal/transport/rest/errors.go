package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// handleError maps the domain error taxonomy onto HTTP status codes.
// Unexpected errors are logged and reported as 500 without details.
func handleError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		ce *domain.ConflictError
	)

	switch {
	case errors.As(err, &ve):
		resp := errorResponse{Error: "validation failed", Code: "validation"}
		for _, fe := range ve.Errors {
			resp.Fields = append(resp.Fields, fieldError{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
	case errors.As(err, &ce):
		resp := errorResponse{Error: ce.Reason, Code: "conflict", Status: string(ce.Status)}
		if ce.VerdictID != nil {
			resp.VerdictID = ce.VerdictID.String()
		}
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "state already advanced", Code: "conflict"})
	case errors.Is(err, domain.ErrAlreadyProcessed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "appeal already processed", Code: "already_processed"})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Code: "unauthorized"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "not allowed for this identity", Code: "forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Code: "not_found"})
	case errors.Is(err, domain.ErrExpired):
		writeJSON(w, http.StatusGone, errorResponse{Error: "the response window for this case has closed", Code: "expired"})
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "daily verdict limit reached, try again tomorrow", Code: "quota_exceeded"})
	case errors.Is(err, domain.ErrBlockedQuota):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "a party has no verdicts left today", Code: "blocked_quota"})
	case domain.IsEngineFailure(err):
		log.WarnContext(r.Context(), "engine failure", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "the judge is unavailable, try again later", Code: "engine_unavailable"})
	default:
		log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
