package handler

import (
	"log/slog"
	"net/http"

	"dossier/internal/domain/models/consistency"
	services "dossier/internal/domain/services"
	"dossier/internal/httputil"
)

// ConsistencyHandler handles validation HTTP requests
type ConsistencyHandler struct {
	service services.ConsistencyService
	auditor services.AuditService
	logger  *slog.Logger
}

// NewConsistencyHandler creates a new consistency handler
func NewConsistencyHandler(service services.ConsistencyService, auditor services.AuditService, logger *slog.Logger) *ConsistencyHandler {
	return &ConsistencyHandler{
		service: service,
		auditor: auditor,
		logger:  logger,
	}
}

// RunValidation runs the full rule set against the document's current version
// POST /api/documents/{id}/validate
func (h *ConsistencyHandler) RunValidation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	result, err := h.service.RunValidation(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	h.auditor.LogValidation(r.Context(), id, actorFrom(r), result.Errors, result.Warnings, len(result.Issues))

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ListValidations retrieves the stored issue set from the most recent run
// GET /api/documents/{id}/validations
func (h *ConsistencyHandler) ListValidations(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	validations, err := h.service.ListValidations(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	if validations == nil {
		validations = []consistency.StoredValidation{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": id,
		"validations": validations,
	})
}
