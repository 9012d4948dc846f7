package handler

import (
	"log/slog"
	"net/http"

	"dossier/internal/domain/models/docstore"
	services "dossier/internal/domain/services"
	docstoreSvc "dossier/internal/domain/services/docstore"
	"dossier/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	store   docstoreSvc.DocumentStore
	auditor services.AuditService
	logger  *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(store docstoreSvc.DocumentStore, auditor services.AuditService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		store:   store,
		auditor: auditor,
		logger:  logger,
	}
}

// CreateDocument creates a new document with an initial version
// POST /api/projects/{id}/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "project ID is required")
		return
	}

	var req docstoreSvc.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ProjectID = projectID
	req.UserID = httputil.GetUserID(r)

	doc, err := h.store.CreateDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	h.auditor.LogDocumentCreated(r.Context(), doc.ID, actorFrom(r), doc.Title)

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves a document with its current version content
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	doc, err := h.store.LoadDocument(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// updateDocumentRequest carries metadata-only patches
type updateDocumentRequest struct {
	Title httputil.OptionalString `json:"title"`
}

// UpdateDocument patches document metadata. Content edits go through the
// block and content endpoints, never this one.
// PATCH /api/documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req updateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !req.Title.Present {
		httputil.RespondError(w, http.StatusBadRequest, "no updatable fields in request")
		return
	}
	if req.Title.Value == nil {
		httputil.RespondError(w, http.StatusBadRequest, "title cannot be null")
		return
	}

	doc, err := h.store.RenameDocument(r.Context(), httputil.GetUserID(r), id, *req.Title.Value)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// SaveContent replaces the whole content payload as a new version
// PUT /api/documents/{id}/content
func (h *DocumentHandler) SaveContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req docstoreSvc.SaveContentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.DocumentID = id
	req.UserID = httputil.GetUserID(r)

	result, err := h.store.SaveFullContent(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	h.auditor.LogContentSaved(r.Context(), id, actorFrom(r), result.VersionNumber, req.ChangeSummary)

	httputil.RespondJSON(w, http.StatusOK, result)
}

// UpdateBlock applies a targeted edit to one content block
// PATCH /api/documents/{id}/blocks/{blockId}
func (h *DocumentHandler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	blockID := r.PathValue("blockId")
	if id == "" || blockID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID and block ID are required")
		return
	}

	var req docstoreSvc.UpdateBlockRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.DocumentID = id
	req.BlockID = blockID
	req.UserID = httputil.GetUserID(r)

	result, err := h.store.UpdateBlock(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	h.auditor.LogBlockUpdate(r.Context(), id, blockID, actorFrom(r), result.VersionNumber)

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ApproveDocument marks a document approved
// POST /api/documents/{id}/approve
func (h *DocumentHandler) ApproveDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	doc, err := h.store.ApproveDocument(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	h.auditor.LogDocumentApproved(r.Context(), id, actorFrom(r))

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// ListVersions lists the version chain, newest first, without content
// GET /api/documents/{id}/versions
func (h *DocumentHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	versions, err := h.store.ListVersions(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": id,
		"versions":    versions,
	})
}

// ListDocuments lists document metadata for a project
// GET /api/projects/{id}/documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "project ID is required")
		return
	}

	docs, err := h.store.ListDocuments(r.Context(), projectID)
	if err != nil {
		handleError(w, err)
		return
	}
	if docs == nil {
		docs = []docstore.Document{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
	})
}
