package consistency

import (
	"context"
	"fmt"
	"log/slog"

	models "dossier/internal/domain/models/consistency"
	docstoreModels "dossier/internal/domain/models/docstore"
	"dossier/internal/domain/repositories"
	docstoreRepo "dossier/internal/domain/repositories/docstore"
	"dossier/internal/domain/services"
)

// runner implements the ConsistencyService interface. It is the persistence
// half of validation: the engine computes, the runner snapshots and stores.
type runner struct {
	engine      *Engine
	docRepo     docstoreRepo.DocumentRepository
	versionRepo docstoreRepo.VersionRepository
	valRepo     repositories.ConsistencyRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewRunner creates a new consistency service around an engine
func NewRunner(
	engine *Engine,
	docRepo docstoreRepo.DocumentRepository,
	versionRepo docstoreRepo.VersionRepository,
	valRepo repositories.ConsistencyRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.ConsistencyService {
	return &runner{
		engine:      engine,
		docRepo:     docRepo,
		versionRepo: versionRepo,
		valRepo:     valRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// RunValidation validates the document's current version and replaces the
// stored issue set with the result. The snapshot is read in one transaction
// so a concurrent mutation yields either the pre- or post-edit version,
// never a torn mix. The replace is a second transaction that only commits
// after the whole rule set evaluated; a failed run leaves the previous set
// untouched.
func (r *runner) RunValidation(ctx context.Context, documentID string) (*models.Result, error) {
	snap, err := r.snapshot(ctx, documentID)
	if err != nil {
		return nil, err
	}

	result := r.engine.Run(ctx, snap)

	rows := make([]models.StoredValidation, 0, len(result.Issues))
	for _, issue := range result.Issues {
		rows = append(rows, storedFromIssue(documentID, snap.VersionNumber, issue))
	}

	err = r.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return r.valRepo.ReplaceForDocument(txCtx, documentID, rows)
	})
	if err != nil {
		return nil, fmt.Errorf("persist validation result: %w", err)
	}

	r.logger.Info("validation run completed",
		"document_id", documentID,
		"version", snap.VersionNumber,
		"errors", result.Errors,
		"warnings", result.Warnings,
		"issues", len(result.Issues),
	)

	return result, nil
}

// ListValidations retrieves the stored issue set from the most recent run
func (r *runner) ListValidations(ctx context.Context, documentID string) ([]models.StoredValidation, error) {
	if _, err := r.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return r.valRepo.ListByDocument(ctx, documentID)
}

// snapshot reads the document row and its current version atomically
func (r *runner) snapshot(ctx context.Context, documentID string) (*Snapshot, error) {
	var snap *Snapshot

	err := r.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := r.docRepo.GetByID(txCtx, documentID)
		if err != nil {
			return err
		}

		current, err := r.versionRepo.GetCurrent(txCtx, doc.ID)
		if err != nil {
			return fmt.Errorf("document %s: %w", documentID, err)
		}

		blocks, err := docstoreModels.ParseBlocks(current.Content)
		if err != nil {
			return fmt.Errorf("document %s: %w", documentID, err)
		}

		snap = &Snapshot{
			Document:      *doc,
			VersionNumber: current.VersionNumber,
			Blocks:        blocks,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// storedFromIssue maps one issue to its persisted row. Issues are not
// version-stamped individually; the run's version number travels in the row
// metadata instead.
func storedFromIssue(documentID string, versionNumber int, issue models.Issue) models.StoredValidation {
	status, severity := models.MapSeverity(issue.Severity)

	validationType := issue.RuleID
	metadata := map[string]any{
		"rule_id":        issue.RuleID,
		"version_number": versionNumber,
	}
	for k, v := range issue.Metadata {
		metadata[k] = v
	}
	if vt, ok := metadata["validation_type"].(string); ok {
		validationType = vt
	}

	return models.StoredValidation{
		DocumentID:     documentID,
		ValidationType: validationType,
		Severity:       severity,
		Status:         status,
		Message:        issue.Message,
		Sections:       issue.Locations,
		Metadata:       metadata,
	}
}
