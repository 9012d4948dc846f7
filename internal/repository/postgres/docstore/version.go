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

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *postgres.RepositoryConfig) docstoreRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Insert appends a new version row. A partial unique index on
// (document_id) WHERE is_current guarantees at most one current row per
// document at the database level; racing a second current row in surfaces
// as a duplicate error here.
func (r *PostgresVersionRepository) Insert(ctx context.Context, v *models.DocumentVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, version_number, content, is_current, created_by, change_summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.tables.DocumentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		v.DocumentID,
		v.VersionNumber,
		v.Content,
		v.IsCurrent,
		v.CreatedBy,
		v.ChangeSummary,
		time.Now(),
	).Scan(&v.ID, &v.CreatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConcurrencyError{DocumentID: v.DocumentID, ExpectedVersion: v.VersionNumber - 1}
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", v.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert document version: %w", err)
	}

	return nil
}

// GetCurrent retrieves the version flagged is_current for a document.
// Reading more than one current row means the exactly-one-current invariant
// was violated; that is surfaced as corruption rather than silently picking
// one.
func (r *PostgresVersionRepository) GetCurrent(ctx context.Context, documentID string) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version_number, content, is_current, created_by, change_summary, created_at
		FROM %s
		WHERE document_id = $1 AND is_current = true
	`, r.tables.DocumentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("get current version: %w", err)
	}
	defer rows.Close()

	var versions []models.DocumentVersion
	for rows.Next() {
		var v models.DocumentVersion
		err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.VersionNumber,
			&v.Content,
			&v.IsCurrent,
			&v.CreatedBy,
			&v.ChangeSummary,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document versions: %w", err)
	}

	switch len(versions) {
	case 0:
		return nil, fmt.Errorf("current version of document %s: %w", documentID, domain.ErrNotFound)
	case 1:
		return &versions[0], nil
	default:
		return nil, fmt.Errorf("version chain of document %s is corrupt: %d rows flagged current", documentID, len(versions))
	}
}

// ClearCurrent flips is_current off for the document's current version
func (r *PostgresVersionRepository) ClearCurrent(ctx context.Context, documentID string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_current = false
		WHERE document_id = $1 AND is_current = true
	`, r.tables.DocumentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, documentID)
	if err != nil {
		return 0, fmt.Errorf("clear current version: %w", err)
	}

	return result.RowsAffected(), nil
}

// GetByNumber retrieves one specific version of a document
func (r *PostgresVersionRepository) GetByNumber(ctx context.Context, documentID string, versionNumber int) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version_number, content, is_current, created_by, change_summary, created_at
		FROM %s
		WHERE document_id = $1 AND version_number = $2
	`, r.tables.DocumentVersions)

	var v models.DocumentVersion
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, documentID, versionNumber).Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.Content,
		&v.IsCurrent,
		&v.CreatedBy,
		&v.ChangeSummary,
		&v.CreatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("version %d of document %s: %w", versionNumber, documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document version: %w", err)
	}

	return &v, nil
}

// ListByDocument lists all versions of a document without content, newest first
func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version_number, is_current, created_by, change_summary, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY version_number DESC
	`, r.tables.DocumentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	defer rows.Close()

	var versions []models.DocumentVersion
	for rows.Next() {
		var v models.DocumentVersion
		err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.VersionNumber,
			&v.IsCurrent,
			&v.CreatedBy,
			&v.ChangeSummary,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document versions: %w", err)
	}

	if versions == nil {
		versions = []models.DocumentVersion{}
	}

	return versions, nil
}

// CountCurrent counts rows flagged is_current for a document
func (r *PostgresVersionRepository) CountCurrent(ctx context.Context, documentID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE document_id = $1 AND is_current = true
	`, r.tables.DocumentVersions)

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, documentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count current versions: %w", err)
	}

	return count, nil
}
