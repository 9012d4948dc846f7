package repositories

import (
	"context"

	"dossier/internal/domain/models/consistency"
)

// ConsistencyRepository defines data access for persisted validation results.
type ConsistencyRepository interface {
	// ReplaceForDocument atomically replaces the stored validation set for a
	// document with the given rows (delete-then-insert, never merge). An
	// empty slice clears the set.
	ReplaceForDocument(ctx context.Context, documentID string, rows []consistency.StoredValidation) error

	// ListByDocument retrieves the stored validation set for a document
	ListByDocument(ctx context.Context, documentID string) ([]consistency.StoredValidation, error)
}
