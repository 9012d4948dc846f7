package repositories

import (
	"context"

	"dossier/internal/domain/models/audit"
)

// AuditRepository defines data access for the append-only audit log.
// There is deliberately no update or delete operation.
type AuditRepository interface {
	// Insert appends one audit entry
	Insert(ctx context.Context, e *audit.Entry) error

	// ListByDocument retrieves up to limit entries for a document ordered
	// by created_at descending (newest first)
	ListByDocument(ctx context.Context, documentID string, limit int) ([]audit.Entry, error)
}
