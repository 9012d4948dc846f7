package docstore

import (
	"context"
	"encoding/json"

	"dossier/internal/domain/models/docstore"
)

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	ProjectID string          `json:"project_id"`
	UserID    string          `json:"-"` // Set by handler from auth context, not from request body
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content,omitempty"` // initial block payload; empty means a blank document
}

// UpdateBlockRequest represents a targeted edit to one content block
type UpdateBlockRequest struct {
	DocumentID string `json:"-"`
	BlockID    string `json:"-"`
	UserID     string `json:"-"`
	NewText    string `json:"new_text"`
}

// SaveContentRequest replaces the entire content payload with a new version
type SaveContentRequest struct {
	DocumentID    string          `json:"-"`
	UserID        string          `json:"-"`
	Content       json.RawMessage `json:"content"`
	ChangeSummary string          `json:"change_summary,omitempty"`
}

// UpdateResult reports the outcome of a version transition
type UpdateResult struct {
	DocumentID    string `json:"document_id"`
	VersionNumber int    `json:"version_number"`
	VersionID     string `json:"version_id"`
}

// DocumentStore is the only code path permitted to mutate document content
// and version metadata. Every mutating operation produces a new immutable
// version and moves the document back to review status. The store does not
// write audit entries; callers own that.
type DocumentStore interface {
	// CreateDocument creates a document with version 1 holding the initial content
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*docstore.Document, error)

	// LoadDocument retrieves a document with its current version content.
	// Pure read, no side effects.
	LoadDocument(ctx context.Context, id string) (*docstore.Document, error)

	// UpdateBlock applies a targeted edit to one content block and commits
	// the result as a new version
	UpdateBlock(ctx context.Context, req *UpdateBlockRequest) (*UpdateResult, error)

	// SaveFullContent replaces the whole content payload as a new version
	SaveFullContent(ctx context.Context, req *SaveContentRequest) (*UpdateResult, error)

	// ApproveDocument marks a document approved without touching content
	ApproveDocument(ctx context.Context, userID, id string) (*docstore.Document, error)

	// RenameDocument changes the title. Metadata only, no new version.
	RenameDocument(ctx context.Context, userID, id, title string) (*docstore.Document, error)

	// ListVersions lists the full version chain, newest first, without content
	ListVersions(ctx context.Context, id string) ([]docstore.DocumentVersion, error)

	// ListDocuments lists document metadata for a project
	ListDocuments(ctx context.Context, projectID string) ([]docstore.Document, error)
}
