package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	models "dossier/internal/domain/models/audit"
	"dossier/internal/domain/repositories"
	"dossier/internal/domain/services"
)

// DefaultHistoryLimit bounds history reads when the caller supplies no limit
const DefaultHistoryLimit = 50

// MaxHistoryLimit caps a single history read regardless of the caller's limit
const MaxHistoryLimit = 200

// auditLogger implements the AuditService interface. Writes are best-effort:
// audit completeness never outranks the primary mutation, so a failed write
// is reported through the operational logger instead of propagating.
type auditLogger struct {
	repo   repositories.AuditRepository
	logger *slog.Logger
}

// NewLogger creates a new audit logger service
func NewLogger(repo repositories.AuditRepository, logger *slog.Logger) services.AuditService {
	return &auditLogger{
		repo:   repo,
		logger: logger,
	}
}

// Log appends one audit entry. Storage failures are surfaced to operators
// via the logger and otherwise swallowed.
func (l *auditLogger) Log(ctx context.Context, e *models.Entry) {
	if err := l.repo.Insert(ctx, e); err != nil {
		l.logger.Error("audit write failed",
			"document_id", e.DocumentID,
			"action", e.Action,
			"error", err,
		)
	}
}

// LogBlockUpdate records a targeted block edit
func (l *auditLogger) LogBlockUpdate(ctx context.Context, documentID, blockID string, actor *string, versionNumber int) {
	l.Log(ctx, &models.Entry{
		DocumentID:  documentID,
		Action:      models.ActionBlockUpdated,
		ActorUserID: actor,
		Diff: mustDiff(map[string]any{
			"block_id":       blockID,
			"version_number": versionNumber,
		}),
	})
}

// LogContentSaved records a full-content save
func (l *auditLogger) LogContentSaved(ctx context.Context, documentID string, actor *string, versionNumber int, changeSummary string) {
	l.Log(ctx, &models.Entry{
		DocumentID:  documentID,
		Action:      models.ActionBlockUpdated,
		ActorUserID: actor,
		Diff: mustDiff(map[string]any{
			"scope":          "full_content",
			"version_number": versionNumber,
			"change_summary": changeSummary,
		}),
	})
}

// LogValidation records a completed validation run
func (l *auditLogger) LogValidation(ctx context.Context, documentID string, actor *string, errors, warnings, total int) {
	l.Log(ctx, &models.Entry{
		DocumentID:  documentID,
		Action:      models.ActionValidationRun,
		ActorUserID: actor,
		Diff: mustDiff(map[string]any{
			"errors":   errors,
			"warnings": warnings,
			"issues":   total,
		}),
	})
}

// LogSuggestionApplied records an accepted edit suggestion
func (l *auditLogger) LogSuggestionApplied(ctx context.Context, documentID, suggestionID string, actor *string) {
	l.Log(ctx, &models.Entry{
		DocumentID:  documentID,
		Action:      models.ActionSuggestionApplied,
		ActorUserID: actor,
		Diff: mustDiff(map[string]any{
			"suggestion_id": suggestionID,
		}),
	})
}

// LogDocumentCreated records document creation
func (l *auditLogger) LogDocumentCreated(ctx context.Context, documentID string, actor *string, title string) {
	l.Log(ctx, &models.Entry{
		DocumentID:  documentID,
		Action:      models.ActionDocumentCreated,
		ActorUserID: actor,
		Diff: mustDiff(map[string]any{
			"title": title,
		}),
	})
}

// LogDocumentApproved records an approval
func (l *auditLogger) LogDocumentApproved(ctx context.Context, documentID string, actor *string) {
	l.Log(ctx, &models.Entry{
		DocumentID:  documentID,
		Action:      models.ActionDocumentApproved,
		ActorUserID: actor,
		Diff:        mustDiff(map[string]any{}),
	})
}

// History retrieves up to limit entries, newest first. A storage failure
// degrades to an empty slice: a read-only audit view never errors.
func (l *auditLogger) History(ctx context.Context, documentID string, limit int) []models.Entry {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	entries, err := l.repo.ListByDocument(ctx, documentID, limit)
	if err != nil {
		l.logger.Error("audit history read failed",
			"document_id", documentID,
			"error", err,
		)
		return []models.Entry{}
	}

	return entries
}

// mustDiff serializes a diff payload. The payloads above contain only
// strings and numbers, so marshaling cannot fail.
func mustDiff(payload map[string]any) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
