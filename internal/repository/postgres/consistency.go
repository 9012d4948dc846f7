package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dossier/internal/domain/models/consistency"
	"dossier/internal/domain/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConsistencyRepository implements the ConsistencyRepository interface
type PostgresConsistencyRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewConsistencyRepository creates a new consistency validation repository
func NewConsistencyRepository(config *RepositoryConfig) repositories.ConsistencyRepository {
	return &PostgresConsistencyRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// ReplaceForDocument atomically replaces the stored validation set for a
// document. Delete-then-insert over merge: the stored state always reflects
// only the most recent run. Callers run this inside a transaction so a
// failed insert leaves the previous set untouched.
func (r *PostgresConsistencyRepository) ReplaceForDocument(ctx context.Context, documentID string, rows []consistency.StoredValidation) error {
	executor := GetExecutor(ctx, r.pool)

	deleteQuery := fmt.Sprintf(`
		DELETE FROM %s WHERE document_id = $1
	`, r.tables.Validations)

	if _, err := executor.Exec(ctx, deleteQuery, documentID); err != nil {
		return fmt.Errorf("clear validations: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (document_id, validation_type, severity, status, message, sections, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Validations)

	now := time.Now()
	for i := range rows {
		row := &rows[i]
		sections := row.Sections
		if sections == nil {
			sections = []string{}
		}
		_, err := executor.Exec(ctx, insertQuery,
			documentID,
			row.ValidationType,
			row.Severity,
			row.Status,
			row.Message,
			sections,
			row.Metadata,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert validation: %w", err)
		}
	}

	return nil
}

// ListByDocument retrieves the stored validation set for a document
func (r *PostgresConsistencyRepository) ListByDocument(ctx context.Context, documentID string) ([]consistency.StoredValidation, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, validation_type, severity, status, message, sections, metadata, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at DESC, id
	`, r.tables.Validations)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list validations: %w", err)
	}
	defer rows.Close()

	var validations []consistency.StoredValidation
	for rows.Next() {
		var v consistency.StoredValidation
		err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.ValidationType,
			&v.Severity,
			&v.Status,
			&v.Message,
			&v.Sections,
			&v.Metadata,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan validation: %w", err)
		}
		validations = append(validations, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validations: %w", err)
	}

	if validations == nil {
		validations = []consistency.StoredValidation{}
	}

	return validations, nil
}
