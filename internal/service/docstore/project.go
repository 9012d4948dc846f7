package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dossier/internal/config"
	"dossier/internal/domain"
	models "dossier/internal/domain/models/docstore"
	docstoreRepo "dossier/internal/domain/repositories/docstore"
	"dossier/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// projectService implements the ProjectService interface
type projectService struct {
	projectRepo docstoreRepo.ProjectRepository
	logger      *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(projectRepo docstoreRepo.ProjectRepository, logger *slog.Logger) services.ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// CreateProject creates a new project
func (s *projectService) CreateProject(ctx context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxProjectNameLength),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	p := &models.Project{
		OwnerID: req.OwnerID,
		Name:    strings.TrimSpace(req.Name),
		Sponsor: strings.TrimSpace(req.Sponsor),
	}

	if err := s.projectRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("project created", "id", p.ID, "owner_id", p.OwnerID)

	return p, nil
}

// GetProject retrieves a project by ID, scoped to its owner
func (s *projectService) GetProject(ctx context.Context, id, ownerID string) (*models.Project, error) {
	return s.projectRepo.GetByID(ctx, id, ownerID)
}

// ListProjects retrieves all projects for a user
func (s *projectService) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	return s.projectRepo.ListByOwner(ctx, ownerID)
}
