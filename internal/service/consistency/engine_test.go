package consistency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	models "dossier/internal/domain/models/consistency"
	docstoreModels "dossier/internal/domain/models/docstore"
)

// stubRule is a scriptable test rule.
type stubRule struct {
	id     string
	issues []models.Issue
	err    error
	panics bool
	calls  int
}

func (r *stubRule) ID() string { return r.id }

func (r *stubRule) Evaluate(ctx context.Context, snap *Snapshot) ([]models.Issue, error) {
	r.calls++
	if r.panics {
		panic("rule blew up")
	}
	return r.issues, r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot() *Snapshot {
	return &Snapshot{
		Document:      docstoreModels.Document{ID: "doc-1"},
		VersionNumber: 3,
		Blocks:        &docstoreModels.BlockDocument{},
	}
}

func TestEngine_Run_AggregatesInRegistrationOrder(t *testing.T) {
	engine := NewEngine(testLogger())
	engine.Register(&stubRule{id: "b", issues: []models.Issue{
		{RuleID: "b", Severity: models.SeverityWarning, Message: "w1"},
	}})
	engine.Register(&stubRule{id: "a", issues: []models.Issue{
		{RuleID: "a", Severity: models.SeverityError, Message: "e1"},
		{RuleID: "a", Severity: models.SeverityWarning, Message: "w2"},
	}})

	result := engine.Run(context.Background(), testSnapshot())

	if result.DocumentID != "doc-1" || result.VersionNumber != 3 {
		t.Errorf("result identity = %s/%d", result.DocumentID, result.VersionNumber)
	}
	if result.Errors != 1 || result.Warnings != 2 {
		t.Errorf("counts = %d errors, %d warnings", result.Errors, result.Warnings)
	}

	// Registration order wins, not alphabetical order
	wantOrder := []string{"b", "a", "a"}
	if len(result.Issues) != len(wantOrder) {
		t.Fatalf("got %d issues, want %d", len(result.Issues), len(wantOrder))
	}
	for i, want := range wantOrder {
		if result.Issues[i].RuleID != want {
			t.Errorf("issue %d from rule %s, want %s", i, result.Issues[i].RuleID, want)
		}
	}
}

func TestEngine_Run_EmptyRegistry(t *testing.T) {
	engine := NewEngine(testLogger())

	result := engine.Run(context.Background(), testSnapshot())

	if len(result.Issues) != 0 || result.Errors != 0 || result.Warnings != 0 {
		t.Errorf("empty registry produced %+v", result)
	}
	if result.Issues == nil {
		t.Error("issues should be an empty slice, not nil")
	}
}

func TestEngine_Run_IsolatesFailingRule(t *testing.T) {
	tests := []struct {
		name string
		rule *stubRule
	}{
		{
			name: "rule returns error",
			rule: &stubRule{id: "broken", err: errors.New("bad lookup")},
		},
		{
			name: "rule panics",
			rule: &stubRule{id: "broken", panics: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(testLogger())
			engine.Register(&stubRule{id: "first", issues: []models.Issue{
				{RuleID: "first", Severity: models.SeverityWarning, Message: "w"},
			}})
			engine.Register(tt.rule)
			after := &stubRule{id: "after", issues: []models.Issue{
				{RuleID: "after", Severity: models.SeverityInfo, Message: "i"},
			}}
			engine.Register(after)

			result := engine.Run(context.Background(), testSnapshot())

			if after.calls != 1 {
				t.Error("rule after the failing one was not evaluated")
			}

			var synthetic *models.Issue
			for i := range result.Issues {
				if result.Issues[i].RuleID == "broken" {
					synthetic = &result.Issues[i]
				}
			}
			if synthetic == nil {
				t.Fatal("no synthetic issue recorded for the failing rule")
			}
			if synthetic.Severity != models.SeverityError {
				t.Errorf("synthetic severity = %s", synthetic.Severity)
			}
			if synthetic.Metadata["validation_type"] != models.ValidationTypeInternalError {
				t.Errorf("synthetic metadata = %v", synthetic.Metadata)
			}
		})
	}
}

func TestEngine_Register_LastWriteWinsKeepsPosition(t *testing.T) {
	engine := NewEngine(testLogger())
	engine.Register(&stubRule{id: "x", issues: []models.Issue{
		{RuleID: "x", Severity: models.SeverityWarning, Message: "old"},
	}})
	engine.Register(&stubRule{id: "y"})

	// Replace x; it must keep first position
	engine.Register(&stubRule{id: "x", issues: []models.Issue{
		{RuleID: "x", Severity: models.SeverityWarning, Message: "new"},
	}})

	ids := engine.RuleIDs()
	if len(ids) != 2 || ids[0] != "x" || ids[1] != "y" {
		t.Fatalf("rule ids = %v", ids)
	}

	result := engine.Run(context.Background(), testSnapshot())
	if len(result.Issues) != 1 || result.Issues[0].Message != "new" {
		t.Errorf("replacement rule not used: %+v", result.Issues)
	}
}

func TestEngine_Unregister(t *testing.T) {
	engine := NewEngine(testLogger())
	engine.Register(&stubRule{id: "a"})
	engine.Register(&stubRule{id: "b"})

	engine.Unregister("a")
	engine.Unregister("missing") // no-op

	ids := engine.RuleIDs()
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("rule ids after unregister = %v", ids)
	}
}
