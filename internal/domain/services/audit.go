package services

import (
	"context"

	"dossier/internal/domain/models/audit"
)

// AuditService records compliance-relevant actions. Writes are best-effort
// by contract: a failed audit write is reported to operators through the
// logger but never blocks or rolls back the primary action, which is why the
// write operations return nothing.
type AuditService interface {
	// Log appends one audit entry
	Log(ctx context.Context, e *audit.Entry)

	// LogBlockUpdate records a targeted block edit
	LogBlockUpdate(ctx context.Context, documentID, blockID string, actor *string, versionNumber int)

	// LogContentSaved records a full-content save
	LogContentSaved(ctx context.Context, documentID string, actor *string, versionNumber int, changeSummary string)

	// LogValidation records a completed validation run
	LogValidation(ctx context.Context, documentID string, actor *string, errors, warnings, total int)

	// LogSuggestionApplied records an accepted edit suggestion
	LogSuggestionApplied(ctx context.Context, documentID, suggestionID string, actor *string)

	// LogDocumentCreated records document creation
	LogDocumentCreated(ctx context.Context, documentID string, actor *string, title string)

	// LogDocumentApproved records an approval
	LogDocumentApproved(ctx context.Context, documentID string, actor *string)

	// History retrieves up to limit entries for a document, newest first.
	// limit <= 0 applies the default. Degrades to an empty slice when the
	// backing store is unreachable; a read-only audit view never errors.
	History(ctx context.Context, documentID string, limit int) []audit.Entry
}
