package docstore

import (
	"context"

	"dossier/internal/domain/models/docstore"
)

// DocumentRepository defines data access operations for document rows.
// Content mutation goes through the version repository; this repository only
// maintains document identity and the version/status counters.
type DocumentRepository interface {
	// Create inserts a new document row
	Create(ctx context.Context, doc *docstore.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*docstore.Document, error)

	// GetForUpdate retrieves a document by ID with a row lock. Must be
	// called inside a transaction; the lock serializes concurrent version
	// transitions on the same document while leaving other documents free.
	GetForUpdate(ctx context.Context, id string) (*docstore.Document, error)

	// CommitVersion advances the version counter from expectedVersion to
	// newVersion and sets the status, as a compare-and-swap on the version
	// column. Returns domain.ConcurrencyError if another writer advanced
	// the counter first.
	CommitVersion(ctx context.Context, id string, expectedVersion, newVersion int, status docstore.Status) error

	// UpdateStatus sets the document status without touching the version chain
	UpdateStatus(ctx context.Context, id string, status docstore.Status) error

	// UpdateTitle renames a document
	UpdateTitle(ctx context.Context, id, title string) error

	// ListByProject lists document metadata for a project, newest first
	ListByProject(ctx context.Context, projectID string) ([]docstore.Document, error)
}

// VersionRepository defines data access operations for the version chain.
type VersionRepository interface {
	// Insert appends a new version row
	Insert(ctx context.Context, v *docstore.DocumentVersion) error

	// GetCurrent retrieves the version flagged is_current for a document.
	// Returns domain.ErrNotFound if the document has never been versioned
	// and an error if more than one current row exists (corrupt chain).
	GetCurrent(ctx context.Context, documentID string) (*docstore.DocumentVersion, error)

	// ClearCurrent flips is_current off for the document's current version,
	// returning the number of rows affected (0 for a never-versioned document)
	ClearCurrent(ctx context.Context, documentID string) (int64, error)

	// GetByNumber retrieves one specific version of a document
	GetByNumber(ctx context.Context, documentID string, versionNumber int) (*docstore.DocumentVersion, error)

	// ListByDocument lists all versions of a document without content,
	// newest first
	ListByDocument(ctx context.Context, documentID string) ([]docstore.DocumentVersion, error)

	// CountCurrent counts rows flagged is_current for a document. Valid
	// chains have exactly one (or zero before the first write).
	CountCurrent(ctx context.Context, documentID string) (int, error)
}
