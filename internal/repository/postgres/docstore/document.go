package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dossier/internal/domain"
	models "dossier/internal/domain/models/docstore"
	docstoreRepo "dossier/internal/domain/repositories/docstore"

	"dossier/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docstoreRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new document row
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, title, status, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	now := time.Now()
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.ProjectID,
		doc.Title,
		doc.Status,
		doc.Version,
		doc.CreatedBy,
		now,
		now,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("project %s: %w", doc.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate retrieves a document by ID with a row lock.
// Only meaningful inside a transaction; the lock is released on commit or
// rollback and serializes version transitions on the same document.
func (r *PostgresDocumentRepository) GetForUpdate(ctx context.Context, id string) (*models.Document, error) {
	return r.get(ctx, id, true)
}

func (r *PostgresDocumentRepository) get(ctx context.Context, id string, forUpdate bool) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, title, status, version, created_by, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Documents)
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.ProjectID,
		&doc.Title,
		&doc.Status,
		&doc.Version,
		&doc.CreatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// CommitVersion advances the version counter as a compare-and-swap on the
// version column. A lost race leaves zero rows affected and surfaces as
// domain.ConcurrencyError so the caller can retry the whole transition.
func (r *PostgresDocumentRepository) CommitVersion(ctx context.Context, id string, expectedVersion, newVersion int, status models.Status) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET version = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND version = $4
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, newVersion, status, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("commit version: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the document vanished or another writer advanced the
		// counter first. Distinguish the two for the caller.
		if _, getErr := r.get(ctx, id, false); getErr != nil {
			return getErr
		}
		return &domain.ConcurrencyError{DocumentID: id, ExpectedVersion: expectedVersion}
	}

	return nil
}

// UpdateStatus sets the document status without touching the version chain
func (r *PostgresDocumentRepository) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpdateTitle renames a document
func (r *PostgresDocumentRepository) UpdateTitle(ctx context.Context, id, title string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, title, id)
	if err != nil {
		return fmt.Errorf("update document title: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListByProject lists document metadata for a project, newest first
func (r *PostgresDocumentRepository) ListByProject(ctx context.Context, projectID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, title, status, version, created_by, created_at, updated_at
		FROM %s
		WHERE project_id = $1
		ORDER BY updated_at DESC
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID,
			&doc.ProjectID,
			&doc.Title,
			&doc.Status,
			&doc.Version,
			&doc.CreatedBy,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	// Return empty slice instead of nil
	if documents == nil {
		documents = []models.Document{}
	}

	return documents, nil
}
