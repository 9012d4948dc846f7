package handler

import (
	"errors"
	"net/http"

	"dossier/internal/domain"
	"dossier/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var concurrencyErr *domain.ConcurrencyError
	var conflictErr *domain.ConflictError

	switch {
	case errors.As(err, &concurrencyErr):
		// Surfaced distinctly so clients retry the whole operation
		httputil.RespondErrorWithExtras(w, http.StatusConflict, concurrencyErr.Error(), map[string]interface{}{
			"document_id":      concurrencyErr.DocumentID,
			"expected_version": concurrencyErr.ExpectedVersion,
			"retryable":        true,
		})
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// actorFrom returns the authenticated user id as an audit actor reference,
// or nil for system-initiated requests
func actorFrom(r *http.Request) *string {
	userID := httputil.GetUserID(r)
	if userID == "" {
		return nil
	}
	return &userID
}
