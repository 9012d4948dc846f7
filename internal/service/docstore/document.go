package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"dossier/internal/config"
	"dossier/internal/domain"
	models "dossier/internal/domain/models/docstore"
	"dossier/internal/domain/repositories"
	docstoreRepo "dossier/internal/domain/repositories/docstore"
	docstoreSvc "dossier/internal/domain/services/docstore"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// documentStore implements the DocumentStore interface
type documentStore struct {
	docRepo     docstoreRepo.DocumentRepository
	versionRepo docstoreRepo.VersionRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewDocumentStore creates a new document store service
func NewDocumentStore(
	docRepo docstoreRepo.DocumentRepository,
	versionRepo docstoreRepo.VersionRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) docstoreSvc.DocumentStore {
	return &documentStore{
		docRepo:     docRepo,
		versionRepo: versionRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateDocument creates a document with version 1 holding the initial content
func (s *documentStore) CreateDocument(ctx context.Context, req *docstoreSvc.CreateDocumentRequest) (*models.Document, error) {
	if err := validateCreateDocumentRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	content := req.Content
	if len(content) == 0 {
		content = models.EmptyContent()
	}
	// Reject payloads that do not parse as a block tree up front
	if _, err := models.ParseBlocks(content); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc := &models.Document{
		ProjectID: req.ProjectID,
		Title:     strings.TrimSpace(req.Title),
		Status:    models.StatusDraft,
		Version:   1,
		CreatedBy: req.UserID,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Create(txCtx, doc); err != nil {
			return err
		}

		v := &models.DocumentVersion{
			DocumentID:    doc.ID,
			VersionNumber: 1,
			Content:       content,
			IsCurrent:     true,
			CreatedBy:     req.UserID,
			ChangeSummary: "Initial version",
		}
		if err := s.versionRepo.Insert(txCtx, v); err != nil {
			return err
		}

		doc.Content = v.Content
		doc.CurrentVersionID = v.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"id", doc.ID,
		"project_id", doc.ProjectID,
		"title", doc.Title,
	)

	return doc, nil
}

// LoadDocument retrieves a document with its current version content.
// The document row and current version are read inside one transaction so a
// concurrent version transition can never produce a torn snapshot: the read
// observes either the whole pre-state or the whole post-state.
func (s *documentStore) LoadDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc *models.Document

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		d, err := s.docRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		current, err := s.versionRepo.GetCurrent(txCtx, d.ID)
		if err != nil {
			// A document row always carries at least version 1; a missing
			// current row means the chain is corrupt, not merely empty.
			return fmt.Errorf("load document %s: %w", id, err)
		}

		d.Content = current.Content
		d.CurrentVersionID = current.ID
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// UpdateBlock applies a targeted edit to one content block and commits the
// result as a new version
func (s *documentStore) UpdateBlock(ctx context.Context, req *docstoreSvc.UpdateBlockRequest) (*docstoreSvc.UpdateResult, error) {
	if req.BlockID == "" {
		return nil, fmt.Errorf("%w: block id is required", domain.ErrValidation)
	}

	return s.transition(ctx, req.DocumentID, req.UserID, func(doc *models.Document, current *models.DocumentVersion) (json.RawMessage, string, error) {
		blocks, err := models.ParseBlocks(current.Content)
		if err != nil {
			return nil, "", fmt.Errorf("document %s: %w", doc.ID, err)
		}

		if !blocks.ReplaceBlockText(req.BlockID, req.NewText) {
			return nil, "", &domain.NotFoundError{
				Message: fmt.Sprintf("block %s not found in document %s", req.BlockID, doc.ID),
			}
		}

		content, err := blocks.Marshal()
		if err != nil {
			return nil, "", err
		}

		return content, fmt.Sprintf("Updated block %s", req.BlockID), nil
	})
}

// SaveFullContent replaces the whole content payload as a new version
func (s *documentStore) SaveFullContent(ctx context.Context, req *docstoreSvc.SaveContentRequest) (*docstoreSvc.UpdateResult, error) {
	if err := validateSaveContentRequest(req); err != nil {
		return nil, &domain.ValidationError{Message: "content is required"}
	}
	if _, err := models.ParseBlocks(req.Content); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	summary := strings.TrimSpace(req.ChangeSummary)
	if summary == "" {
		summary = "Full content update"
	}

	return s.transition(ctx, req.DocumentID, req.UserID, func(doc *models.Document, current *models.DocumentVersion) (json.RawMessage, string, error) {
		return req.Content, summary, nil
	})
}

// transition runs the version transition protocol as one transaction:
//
//  1. lock the document row and read its version counter
//  2. let build derive the new content from the current version
//  3. flip the old current version off
//  4. insert the new version row flagged current
//  5. advance the document's version counter via compare-and-swap and move
//     the status to review (a content edit always invalidates approval)
//
// The row lock serializes writers on the same document; the compare-and-swap
// turns any writer that slipped past it into a domain.ConcurrencyError
// instead of a lost update. A failure anywhere rolls the whole transition
// back, so no partial version is ever visible.
func (s *documentStore) transition(
	ctx context.Context,
	documentID, userID string,
	build func(doc *models.Document, current *models.DocumentVersion) (json.RawMessage, string, error),
) (*docstoreSvc.UpdateResult, error) {
	var result docstoreSvc.UpdateResult

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.docRepo.GetForUpdate(txCtx, documentID)
		if err != nil {
			return err
		}

		current, err := s.versionRepo.GetCurrent(txCtx, doc.ID)
		if err != nil {
			return fmt.Errorf("document %s: %w", documentID, err)
		}

		content, summary, err := build(doc, current)
		if err != nil {
			return err
		}

		newVersion := doc.Version + 1

		if _, err := s.versionRepo.ClearCurrent(txCtx, doc.ID); err != nil {
			return err
		}

		v := &models.DocumentVersion{
			DocumentID:    doc.ID,
			VersionNumber: newVersion,
			Content:       content,
			IsCurrent:     true,
			CreatedBy:     userID,
			ChangeSummary: summary,
		}
		if err := s.versionRepo.Insert(txCtx, v); err != nil {
			return err
		}

		if err := s.docRepo.CommitVersion(txCtx, doc.ID, doc.Version, newVersion, models.StatusReview); err != nil {
			return err
		}

		result = docstoreSvc.UpdateResult{
			DocumentID:    doc.ID,
			VersionNumber: newVersion,
			VersionID:     v.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document version committed",
		"document_id", result.DocumentID,
		"version", result.VersionNumber,
		"user_id", userID,
	)

	return &result, nil
}

// ApproveDocument marks a document approved without touching the version chain
func (s *documentStore) ApproveDocument(ctx context.Context, userID, id string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.Status == models.StatusArchived {
		return nil, fmt.Errorf("%w: archived documents cannot be approved", domain.ErrValidation)
	}

	if err := s.docRepo.UpdateStatus(ctx, id, models.StatusApproved); err != nil {
		return nil, err
	}
	doc.Status = models.StatusApproved

	s.logger.Info("document approved", "id", id, "user_id", userID)

	return doc, nil
}

// RenameDocument changes the title. Metadata only, no new version.
func (s *documentStore) RenameDocument(ctx context.Context, userID, id, title string) (*models.Document, error) {
	title = strings.TrimSpace(title)
	if err := validation.Validate(title, validation.Required, validation.Length(1, config.MaxDocumentTitleLength)); err != nil {
		return nil, fmt.Errorf("%w: title %v", domain.ErrValidation, err)
	}

	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.docRepo.UpdateTitle(ctx, id, title); err != nil {
		return nil, err
	}
	doc.Title = title

	s.logger.Info("document renamed", "id", id, "user_id", userID)

	return doc, nil
}

// ListVersions lists the full version chain, newest first, without content
func (s *documentStore) ListVersions(ctx context.Context, id string) ([]models.DocumentVersion, error) {
	if _, err := s.docRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.versionRepo.ListByDocument(ctx, id)
}

// ListDocuments lists document metadata for a project
func (s *documentStore) ListDocuments(ctx context.Context, projectID string) ([]models.Document, error) {
	return s.docRepo.ListByProject(ctx, projectID)
}

func validateCreateDocumentRequest(req *docstoreSvc.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxDocumentTitleLength),
		),
	)
}

func validateSaveContentRequest(req *docstoreSvc.SaveContentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Content,
			validation.Required,
			validation.By(func(value interface{}) error {
				raw, _ := value.(json.RawMessage)
				if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == `""` {
					return fmt.Errorf("content is required")
				}
				return nil
			}),
		),
	)
}
