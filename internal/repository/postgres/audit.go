package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dossier/internal/domain/models/audit"
	"dossier/internal/domain/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAuditRepository implements the AuditRepository interface
type PostgresAuditRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(config *RepositoryConfig) repositories.AuditRepository {
	return &PostgresAuditRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Insert appends one audit entry
func (r *PostgresAuditRepository) Insert(ctx context.Context, e *audit.Entry) error {
	if !e.Action.Valid() {
		return fmt.Errorf("audit action %q is not in the closed action set", e.Action)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, action, diff_json, actor_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.AuditLog)

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		e.DocumentID,
		e.Action,
		e.Diff,
		e.ActorUserID,
		createdAt,
	).Scan(&e.ID, &e.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// ListByDocument retrieves up to limit entries for a document, newest first.
// Ordering is established at read time by timestamp, not by write order.
func (r *PostgresAuditRepository) ListByDocument(ctx context.Context, documentID string, limit int) ([]audit.Entry, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, action, diff_json, actor_user_id, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, r.tables.AuditLog)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		err := rows.Scan(
			&e.ID,
			&e.DocumentID,
			&e.Action,
			&e.Diff,
			&e.ActorUserID,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	if entries == nil {
		entries = []audit.Entry{}
	}

	return entries, nil
}
