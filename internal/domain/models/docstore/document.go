package docstore

import (
	"encoding/json"
	"time"
)

// Status is the review lifecycle state of a document.
// Any content edit moves the document back to StatusReview: an edit always
// invalidates a prior approval.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusReview   Status = "review"
	StatusApproved Status = "approved"
	StatusArchived Status = "archived"
)

// Valid reports whether s is a known document status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusApproved, StatusArchived:
		return true
	}
	return false
}

// Document is the top-level versioned artifact under management (clinical
// trial protocol, investigator brochure). Content itself lives in the
// version chain; Content/CurrentVersionID are populated on load from the
// current DocumentVersion.
type Document struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	Title     string    `json:"title" db:"title"`
	Status    Status    `json:"status" db:"status"`
	Version   int       `json:"version" db:"version"` // mirrors the current version_number
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Populated from the current DocumentVersion, not stored on this row
	Content          json.RawMessage `json:"content,omitempty"`
	CurrentVersionID string          `json:"current_version_id,omitempty"`
}

// DocumentVersion is one immutable snapshot in a document's version chain.
// Rows are never updated in place except to flip IsCurrent off when
// superseded, and never deleted.
type DocumentVersion struct {
	ID            string          `json:"id" db:"id"`
	DocumentID    string          `json:"document_id" db:"document_id"`
	VersionNumber int             `json:"version_number" db:"version_number"`
	Content       json.RawMessage `json:"content,omitempty" db:"content"`
	IsCurrent     bool            `json:"is_current" db:"is_current"`
	CreatedBy     string          `json:"created_by" db:"created_by"`
	ChangeSummary string          `json:"change_summary" db:"change_summary"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
