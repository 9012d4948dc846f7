package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	services "dossier/internal/domain/services"
	"dossier/internal/httputil"
)

// AuditHandler serves the read-only audit trail
type AuditHandler struct {
	auditor services.AuditService
	logger  *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditor services.AuditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		auditor: auditor,
		logger:  logger,
	}
}

// History lists audit entries for a document, newest first
// GET /api/documents/{id}/history?limit=50
func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.RespondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries := h.auditor.History(r.Context(), id, limit)

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": id,
		"entries":     entries,
	})
}
