package audit

import (
	"encoding/json"
	"time"
)

// Action is the closed set of audit-worthy action kinds. Adding a new kind
// means extending this enum; free-form strings are rejected at the boundary.
type Action string

const (
	ActionBlockUpdated      Action = "BLOCK_UPDATED"
	ActionBlockCreated      Action = "BLOCK_CREATED"
	ActionBlockDeleted      Action = "BLOCK_DELETED"
	ActionValidationRun     Action = "VALIDATION_RUN"
	ActionSuggestionApplied Action = "SUGGESTION_APPLIED"
	ActionDocumentCreated   Action = "DOCUMENT_CREATED"
	ActionDocumentApproved  Action = "DOCUMENT_APPROVED"
	ActionDocumentExported  Action = "DOCUMENT_EXPORTED"
)

// Valid reports whether a is a member of the closed action set.
func (a Action) Valid() bool {
	switch a {
	case ActionBlockUpdated, ActionBlockCreated, ActionBlockDeleted,
		ActionValidationRun, ActionSuggestionApplied,
		ActionDocumentCreated, ActionDocumentApproved, ActionDocumentExported:
		return true
	}
	return false
}

// Entry is one immutable record of a compliance-relevant action. Entries are
// append-only: never updated, never deleted.
type Entry struct {
	ID          string          `json:"id" db:"id"`
	DocumentID  string          `json:"document_id" db:"document_id"`
	Action      Action          `json:"action" db:"action"`
	Diff        json.RawMessage `json:"diff_json,omitempty" db:"diff_json"`
	ActorUserID *string         `json:"actor_user_id,omitempty" db:"actor_user_id"` // nil for system-initiated actions
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
