package services

import (
	"context"

	"dossier/internal/domain/models/docstore"
)

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	OwnerID string `json:"-"` // Set by handler from auth context
	Name    string `json:"name"`
	Sponsor string `json:"sponsor,omitempty"`
}

// ProjectService defines business logic operations for projects
type ProjectService interface {
	// CreateProject creates a new project
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*docstore.Project, error)

	// GetProject retrieves a project by ID, scoped to its owner
	GetProject(ctx context.Context, id, ownerID string) (*docstore.Project, error)

	// ListProjects retrieves all projects for a user
	ListProjects(ctx context.Context, ownerID string) ([]docstore.Project, error)
}
