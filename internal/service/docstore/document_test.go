package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"dossier/internal/domain"
	models "dossier/internal/domain/models/docstore"
	"dossier/internal/domain/repositories"
	docstoreSvc "dossier/internal/domain/services/docstore"
)

// fakeTxManager runs the function directly. The fakes below are consistent
// in-memory state, so there is nothing to roll back.
type fakeTxManager struct{}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// fakeDocRepo is an in-memory DocumentRepository with real CAS semantics.
type fakeDocRepo struct {
	docs    map[string]*models.Document
	nextID  int
	casHook func() // runs before CommitVersion checks, to simulate races
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: make(map[string]*models.Document)}
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *models.Document) error {
	r.nextID++
	doc.ID = fmt.Sprintf("doc-%d", r.nextID)
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "document not found"}
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeDocRepo) GetForUpdate(ctx context.Context, id string) (*models.Document, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeDocRepo) CommitVersion(ctx context.Context, id string, expectedVersion, newVersion int, status models.Status) error {
	if r.casHook != nil {
		r.casHook()
	}
	doc, ok := r.docs[id]
	if !ok {
		return &domain.NotFoundError{Message: "document not found"}
	}
	if doc.Version != expectedVersion {
		return &domain.ConcurrencyError{DocumentID: id, ExpectedVersion: expectedVersion}
	}
	doc.Version = newVersion
	doc.Status = status
	return nil
}

func (r *fakeDocRepo) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	doc, ok := r.docs[id]
	if !ok {
		return &domain.NotFoundError{Message: "document not found"}
	}
	doc.Status = status
	return nil
}

func (r *fakeDocRepo) UpdateTitle(ctx context.Context, id, title string) error {
	doc, ok := r.docs[id]
	if !ok {
		return &domain.NotFoundError{Message: "document not found"}
	}
	doc.Title = title
	return nil
}

func (r *fakeDocRepo) ListByProject(ctx context.Context, projectID string) ([]models.Document, error) {
	var out []models.Document
	for _, doc := range r.docs {
		if doc.ProjectID == projectID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

// fakeVersionRepo is an in-memory VersionRepository.
type fakeVersionRepo struct {
	versions []*models.DocumentVersion
	nextID   int
}

func (r *fakeVersionRepo) Insert(ctx context.Context, v *models.DocumentVersion) error {
	for _, existing := range r.versions {
		if existing.DocumentID == v.DocumentID && existing.VersionNumber == v.VersionNumber {
			return &domain.ConcurrencyError{DocumentID: v.DocumentID, ExpectedVersion: v.VersionNumber}
		}
	}
	r.nextID++
	v.ID = fmt.Sprintf("ver-%d", r.nextID)
	copied := *v
	r.versions = append(r.versions, &copied)
	return nil
}

func (r *fakeVersionRepo) GetCurrent(ctx context.Context, documentID string) (*models.DocumentVersion, error) {
	var found *models.DocumentVersion
	for _, v := range r.versions {
		if v.DocumentID == documentID && v.IsCurrent {
			if found != nil {
				return nil, fmt.Errorf("version chain for document %s is corrupt", documentID)
			}
			found = v
		}
	}
	if found == nil {
		return nil, fmt.Errorf("current version for document %s: %w", documentID, domain.ErrNotFound)
	}
	copied := *found
	return &copied, nil
}

func (r *fakeVersionRepo) ClearCurrent(ctx context.Context, documentID string) (int64, error) {
	var n int64
	for _, v := range r.versions {
		if v.DocumentID == documentID && v.IsCurrent {
			v.IsCurrent = false
			n++
		}
	}
	return n, nil
}

func (r *fakeVersionRepo) GetByNumber(ctx context.Context, documentID string, versionNumber int) (*models.DocumentVersion, error) {
	for _, v := range r.versions {
		if v.DocumentID == documentID && v.VersionNumber == versionNumber {
			copied := *v
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("version %d of document %s: %w", versionNumber, documentID, domain.ErrNotFound)
}

func (r *fakeVersionRepo) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	var out []models.DocumentVersion
	for i := len(r.versions) - 1; i >= 0; i-- {
		if r.versions[i].DocumentID == documentID {
			out = append(out, *r.versions[i])
		}
	}
	return out, nil
}

func (r *fakeVersionRepo) CountCurrent(ctx context.Context, documentID string) (int, error) {
	n := 0
	for _, v := range r.versions {
		if v.DocumentID == documentID && v.IsCurrent {
			n++
		}
	}
	return n, nil
}

func newTestStore() (*fakeDocRepo, *fakeVersionRepo, docstoreSvc.DocumentStore) {
	docRepo := newFakeDocRepo()
	versionRepo := &fakeVersionRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewDocumentStore(docRepo, versionRepo, &fakeTxManager{}, logger)
	return docRepo, versionRepo, store
}

func createTestDocument(t *testing.T, store docstoreSvc.DocumentStore, content string) *models.Document {
	t.Helper()
	req := &docstoreSvc.CreateDocumentRequest{
		ProjectID: "proj-1",
		UserID:    "user-1",
		Title:     "Study Protocol",
	}
	if content != "" {
		req.Content = json.RawMessage(content)
	}
	doc, err := store.CreateDocument(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	return doc
}

const testContent = `{"blocks":[
	{"id":"sec-1","type":"section","text":"Synopsis","children":[
		{"id":"p-1","type":"paragraph","text":"Initial overview."}
	]}
]}`

func TestDocumentStore_CreateDocument(t *testing.T) {
	ctx := context.Background()
	_, versionRepo, store := newTestStore()

	doc := createTestDocument(t, store, testContent)

	if doc.Version != 1 {
		t.Errorf("version = %d, want 1", doc.Version)
	}
	if doc.Status != models.StatusDraft {
		t.Errorf("status = %s, want draft", doc.Status)
	}

	current, err := versionRepo.GetCurrent(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.VersionNumber != 1 || !current.IsCurrent {
		t.Errorf("current version = %d (current=%v)", current.VersionNumber, current.IsCurrent)
	}
	if current.ChangeSummary != "Initial version" {
		t.Errorf("change summary = %q", current.ChangeSummary)
	}
}

func TestDocumentStore_CreateDocument_Validation(t *testing.T) {
	ctx := context.Background()
	_, _, store := newTestStore()

	tests := []struct {
		name string
		req  *docstoreSvc.CreateDocumentRequest
	}{
		{
			name: "missing title",
			req:  &docstoreSvc.CreateDocumentRequest{ProjectID: "proj-1", UserID: "user-1"},
		},
		{
			name: "missing project",
			req:  &docstoreSvc.CreateDocumentRequest{UserID: "user-1", Title: "Protocol"},
		},
		{
			name: "malformed content",
			req: &docstoreSvc.CreateDocumentRequest{
				ProjectID: "proj-1",
				UserID:    "user-1",
				Title:     "Protocol",
				Content:   json.RawMessage(`{"blocks":`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreateDocument(ctx, tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestDocumentStore_LoadDocument(t *testing.T) {
	ctx := context.Background()
	_, _, store := newTestStore()
	doc := createTestDocument(t, store, testContent)

	loaded, err := store.LoadDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if loaded.Version != 1 {
		t.Errorf("version = %d", loaded.Version)
	}
	if !strings.Contains(string(loaded.Content), "Initial overview.") {
		t.Errorf("content not attached: %s", loaded.Content)
	}
	if loaded.CurrentVersionID == "" {
		t.Error("current version id missing")
	}

	// Reads have no side effects
	again, err := store.LoadDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("second LoadDocument: %v", err)
	}
	if again.Version != loaded.Version || again.Status != loaded.Status {
		t.Error("repeated read changed observable state")
	}

	if _, err := store.LoadDocument(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestDocumentStore_UpdateBlock(t *testing.T) {
	ctx := context.Background()
	docRepo, versionRepo, store := newTestStore()
	doc := createTestDocument(t, store, testContent)

	result, err := store.UpdateBlock(ctx, &docstoreSvc.UpdateBlockRequest{
		DocumentID: doc.ID,
		BlockID:    "p-1",
		UserID:     "user-2",
		NewText:    "Revised overview.",
	})
	if err != nil {
		t.Fatalf("UpdateBlock: %v", err)
	}

	if result.VersionNumber != 2 {
		t.Errorf("version = %d, want 2", result.VersionNumber)
	}

	updated, err := docRepo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("document version counter = %d, want 2", updated.Version)
	}
	if updated.Status != models.StatusReview {
		t.Errorf("status = %s, want review", updated.Status)
	}

	// Old version kept, new version current, exactly one current row
	current, err := versionRepo.GetCurrent(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.VersionNumber != 2 {
		t.Errorf("current version = %d", current.VersionNumber)
	}
	if !strings.Contains(string(current.Content), "Revised overview.") {
		t.Errorf("edit missing from new version: %s", current.Content)
	}

	old, err := versionRepo.GetByNumber(ctx, doc.ID, 1)
	if err != nil {
		t.Fatalf("GetByNumber(1): %v", err)
	}
	if old.IsCurrent {
		t.Error("superseded version still flagged current")
	}
	if !strings.Contains(string(old.Content), "Initial overview.") {
		t.Error("prior version content was mutated")
	}

	if n, _ := versionRepo.CountCurrent(ctx, doc.ID); n != 1 {
		t.Errorf("current rows = %d, want 1", n)
	}
}

func TestDocumentStore_UpdateBlock_MissingBlock(t *testing.T) {
	ctx := context.Background()
	docRepo, _, store := newTestStore()
	doc := createTestDocument(t, store, testContent)

	_, err := store.UpdateBlock(ctx, &docstoreSvc.UpdateBlockRequest{
		DocumentID: doc.ID,
		BlockID:    "no-such-block",
		UserID:     "user-1",
		NewText:    "x",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	// A failed edit must not advance the version counter
	current, _ := docRepo.GetByID(ctx, doc.ID)
	if current.Version != 1 {
		t.Errorf("version advanced to %d on failed edit", current.Version)
	}
}

func TestDocumentStore_SaveFullContent(t *testing.T) {
	ctx := context.Background()
	_, versionRepo, store := newTestStore()
	doc := createTestDocument(t, store, testContent)

	result, err := store.SaveFullContent(ctx, &docstoreSvc.SaveContentRequest{
		DocumentID:    doc.ID,
		UserID:        "user-1",
		Content:       json.RawMessage(`{"blocks":[{"id":"sec-1","type":"section","text":"Synopsis"}]}`),
		ChangeSummary: "Trimmed paragraph",
	})
	if err != nil {
		t.Fatalf("SaveFullContent: %v", err)
	}
	if result.VersionNumber != 2 {
		t.Errorf("version = %d", result.VersionNumber)
	}

	current, _ := versionRepo.GetCurrent(ctx, doc.ID)
	if current.ChangeSummary != "Trimmed paragraph" {
		t.Errorf("change summary = %q", current.ChangeSummary)
	}
}

func TestDocumentStore_SaveFullContent_RequiresContent(t *testing.T) {
	ctx := context.Background()
	_, _, store := newTestStore()
	doc := createTestDocument(t, store, testContent)

	for _, content := range []json.RawMessage{nil, json.RawMessage(``), json.RawMessage(`""`)} {
		_, err := store.SaveFullContent(ctx, &docstoreSvc.SaveContentRequest{
			DocumentID: doc.ID,
			UserID:     "user-1",
			Content:    content,
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("content %q: err = %v, want validation error", content, err)
		}
	}
}

func TestDocumentStore_VersionsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	_, versionRepo, store := newTestStore()
	doc := createTestDocument(t, store, testContent)

	for i := 0; i < 4; i++ {
		_, err := store.UpdateBlock(ctx, &docstoreSvc.UpdateBlockRequest{
			DocumentID: doc.ID,
			BlockID:    "p-1",
			UserID:     "user-1",
			NewText:    fmt.Sprintf("Edit %d", i),
		})
		if err != nil {
			t.Fatalf("edit %d: %v", i, err)
		}
	}

	versions, err := store.ListVersions(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 5 {
		t.Fatalf("got %d versions, want 5", len(versions))
	}
	// Newest first, contiguous, no gaps or reuse
	for i, v := range versions {
		if want := 5 - i; v.VersionNumber != want {
			t.Errorf("position %d: version %d, want %d", i, v.VersionNumber, want)
		}
	}

	if n, _ := versionRepo.CountCurrent(ctx, doc.ID); n != 1 {
		t.Errorf("current rows = %d, want 1", n)
	}
}

func TestDocumentStore_ConcurrentWriterGetsConflict(t *testing.T) {
	ctx := context.Background()
	docRepo, versionRepo, store := newTestStore()
	doc := createTestDocument(t, store, testContent)

	// Simulate a writer that committed between our read and our CAS
	interfered := false
	docRepo.casHook = func() {
		if interfered {
			return
		}
		interfered = true
		docRepo.docs[doc.ID].Version++
		for _, v := range versionRepo.versions {
			if v.DocumentID == doc.ID {
				v.IsCurrent = false
			}
		}
		versionRepo.versions = append(versionRepo.versions, &models.DocumentVersion{
			ID:            "ver-race",
			DocumentID:    doc.ID,
			VersionNumber: 2,
			Content:       json.RawMessage(`{"blocks":[]}`),
			IsCurrent:     true,
		})
	}

	_, err := store.SaveFullContent(ctx, &docstoreSvc.SaveContentRequest{
		DocumentID: doc.ID,
		UserID:     "user-1",
		Content:    json.RawMessage(`{"blocks":[]}`),
	})

	var concurrencyErr *domain.ConcurrencyError
	if !errors.As(err, &concurrencyErr) {
		t.Fatalf("err = %v, want ConcurrencyError", err)
	}
	if !errors.Is(err, domain.ErrConflict) {
		t.Error("ConcurrencyError should match ErrConflict")
	}
}

func TestDocumentStore_ApproveDocument(t *testing.T) {
	ctx := context.Background()
	docRepo, _, store := newTestStore()
	doc := createTestDocument(t, store, testContent)

	approved, err := store.ApproveDocument(ctx, "user-1", doc.ID)
	if err != nil {
		t.Fatalf("ApproveDocument: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("status = %s", approved.Status)
	}
	if approved.Version != 1 {
		t.Errorf("approval advanced the version to %d", approved.Version)
	}

	// A content edit after approval moves the document back to review
	if _, err := store.UpdateBlock(ctx, &docstoreSvc.UpdateBlockRequest{
		DocumentID: doc.ID,
		BlockID:    "p-1",
		UserID:     "user-1",
		NewText:    "Post-approval fix",
	}); err != nil {
		t.Fatalf("UpdateBlock: %v", err)
	}
	current, _ := docRepo.GetByID(ctx, doc.ID)
	if current.Status != models.StatusReview {
		t.Errorf("status after edit = %s, want review", current.Status)
	}

	// Archived documents cannot be approved
	if err := docRepo.UpdateStatus(ctx, doc.ID, models.StatusArchived); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := store.ApproveDocument(ctx, "user-1", doc.ID); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("approving archived document: err = %v, want validation error", err)
	}
}

func TestDocumentStore_RenameDocument(t *testing.T) {
	ctx := context.Background()
	_, _, store := newTestStore()
	doc := createTestDocument(t, store, testContent)

	renamed, err := store.RenameDocument(ctx, "user-1", doc.ID, "  Amended Protocol  ")
	if err != nil {
		t.Fatalf("RenameDocument: %v", err)
	}
	if renamed.Title != "Amended Protocol" {
		t.Errorf("title = %q", renamed.Title)
	}
	if renamed.Version != 1 {
		t.Errorf("rename advanced version to %d", renamed.Version)
	}

	if _, err := store.RenameDocument(ctx, "user-1", doc.ID, "   "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank title: err = %v, want validation error", err)
	}
}
