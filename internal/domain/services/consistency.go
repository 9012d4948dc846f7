package services

import (
	"context"

	"dossier/internal/domain/models/consistency"
)

// ConsistencyService runs the registered rule set against a document's
// current version and persists the result, fully replacing any prior set.
type ConsistencyService interface {
	// RunValidation validates the document's current version. The stored
	// issue set is only replaced when the whole run succeeds; a failed run
	// leaves the previous set untouched.
	RunValidation(ctx context.Context, documentID string) (*consistency.Result, error)

	// ListValidations retrieves the stored issue set from the most recent run
	ListValidations(ctx context.Context, documentID string) ([]consistency.StoredValidation, error)
}
