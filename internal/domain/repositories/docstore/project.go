package docstore

import (
	"context"

	"dossier/internal/domain/models/docstore"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create inserts a new project
	Create(ctx context.Context, p *docstore.Project) error

	// GetByID retrieves a project by ID, scoped to its owner
	GetByID(ctx context.Context, id, ownerID string) (*docstore.Project, error)

	// ListByOwner lists all projects owned by a user
	ListByOwner(ctx context.Context, ownerID string) ([]docstore.Project, error)
}
