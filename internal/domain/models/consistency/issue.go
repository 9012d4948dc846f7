package consistency

import "time"

// Severity classifies one validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Valid reports whether s is a declared severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// ValidationTypeInternalError is the validation_type recorded when a rule's
// evaluation itself failed rather than the document being inconsistent.
const ValidationTypeInternalError = "internal_error"

// Issue is one finding from a validation run. Issues are ephemeral: each run
// produces a fresh set that fully replaces the previously stored one.
type Issue struct {
	RuleID    string         `json:"rule_id"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Locations []string       `json:"locations,omitempty"` // section/block references, in order
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Result summarizes one validation run over a document snapshot.
type Result struct {
	DocumentID    string  `json:"document_id"`
	VersionNumber int     `json:"version_number"`
	Errors        int     `json:"errors"`
	Warnings      int     `json:"warnings"`
	Issues        []Issue `json:"issues"`
}

// Stored severity/status values used by the persisted representation.
type (
	StoredStatus   string
	StoredSeverity string
)

const (
	StatusFail    StoredStatus = "fail"
	StatusWarning StoredStatus = "warning"

	StoredCritical StoredSeverity = "critical"
	StoredHigh     StoredSeverity = "high"
	StoredLow      StoredSeverity = "low"
)

// StoredValidation mirrors one consistency_validations row. The set for a
// document always reflects only the most recent run.
type StoredValidation struct {
	ID             string         `json:"id" db:"id"`
	DocumentID     string         `json:"document_id" db:"document_id"`
	ValidationType string         `json:"validation_type" db:"validation_type"`
	Severity       StoredSeverity `json:"severity" db:"severity"`
	Status         StoredStatus   `json:"status" db:"status"`
	Message        string         `json:"message" db:"message"`
	Sections       []string       `json:"sections" db:"sections"`
	Metadata       map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}
