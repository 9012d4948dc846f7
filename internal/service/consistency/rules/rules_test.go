package rules

import (
	"context"
	"encoding/json"
	"testing"

	models "dossier/internal/domain/models/consistency"
	docstoreModels "dossier/internal/domain/models/docstore"
	"dossier/internal/service/consistency"
)

func snapshotFrom(t *testing.T, content string) *consistency.Snapshot {
	t.Helper()
	blocks, err := docstoreModels.ParseBlocks(json.RawMessage(content))
	if err != nil {
		t.Fatalf("parse content: %v", err)
	}
	return &consistency.Snapshot{
		Document:      docstoreModels.Document{ID: "doc-1"},
		VersionNumber: 1,
		Blocks:        blocks,
	}
}

func TestRequiredSections(t *testing.T) {
	rule := NewRequiredSections([]string{"Synopsis", "Objectives"})

	t.Run("all sections present", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"s1","type":"section","text":"Synopsis"},
			{"id":"s2","type":"section","text":"objectives"}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 0 {
			t.Errorf("got %d issues, want 0", len(issues))
		}
	})

	t.Run("missing section raises error", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"s1","type":"section","text":"Synopsis"}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 1 {
			t.Fatalf("got %d issues, want 1", len(issues))
		}
		if issues[0].Severity != models.SeverityError {
			t.Errorf("severity = %s, want error", issues[0].Severity)
		}
		if issues[0].Metadata["missing_section"] != "Objectives" {
			t.Errorf("metadata = %v", issues[0].Metadata)
		}
	})

	t.Run("empty document misses everything", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 2 {
			t.Errorf("got %d issues, want 2", len(issues))
		}
	})
}

func TestDeprecatedTerminology(t *testing.T) {
	rule := NewDeprecatedTerminology(map[string]string{
		"subject": "participant",
	})

	t.Run("deprecated term warns", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"p1","type":"paragraph","text":"Each Subject receives the study drug."}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 1 {
			t.Fatalf("got %d issues, want 1", len(issues))
		}
		if issues[0].Severity != models.SeverityWarning {
			t.Errorf("severity = %s, want warning", issues[0].Severity)
		}
		if issues[0].Locations[0] != "p1" {
			t.Errorf("locations = %v", issues[0].Locations)
		}
	})

	t.Run("word boundary prevents substring match", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"p1","type":"paragraph","text":"The subjective assessment is secondary."}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 0 {
			t.Errorf("got %d issues, want 0: %+v", len(issues), issues)
		}
	})

	t.Run("block defining both terms is exempt", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"p1","type":"paragraph","text":"The term subject is replaced by participant throughout."}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 0 {
			t.Errorf("got %d issues, want 0: %+v", len(issues), issues)
		}
	})
}

func TestDosageConsistency(t *testing.T) {
	rule := NewDosageConsistency()

	t.Run("conflicting doses across blocks", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"p1","type":"paragraph","text":"Participants receive metformin 500 mg twice daily."},
			{"id":"p2","type":"paragraph","text":"The dosing section lists metformin 250 mg twice daily."}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 1 {
			t.Fatalf("got %d issues, want 1: %+v", len(issues), issues)
		}
		if issues[0].Severity != models.SeverityError {
			t.Errorf("severity = %s, want error", issues[0].Severity)
		}
		if issues[0].Metadata["compound"] != "metformin" {
			t.Errorf("metadata = %v", issues[0].Metadata)
		}
		if len(issues[0].Locations) != 2 {
			t.Errorf("locations = %v", issues[0].Locations)
		}
	})

	t.Run("consistent doses pass", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"p1","type":"paragraph","text":"metformin 500 mg with breakfast"},
			{"id":"p2","type":"paragraph","text":"continue metformin 500 mg through week 16"}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 0 {
			t.Errorf("got %d issues, want 0: %+v", len(issues), issues)
		}
	})

	t.Run("different compounds do not conflict", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"p1","type":"paragraph","text":"metformin 500 mg and lisinopril 10 mg"}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 0 {
			t.Errorf("got %d issues, want 0: %+v", len(issues), issues)
		}
	})
}

func TestReferenceIntegrity(t *testing.T) {
	rule := NewReferenceIntegrity()

	t.Run("valid reference passes", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"s1","type":"section","text":"Synopsis"},
			{"id":"r1","type":"reference","text":"s1"}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 0 {
			t.Errorf("got %d issues, want 0: %+v", len(issues), issues)
		}
	})

	t.Run("dangling reference is an error", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"r1","type":"reference","text":"deleted-section"}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 1 {
			t.Fatalf("got %d issues, want 1", len(issues))
		}
		if issues[0].Severity != models.SeverityError {
			t.Errorf("severity = %s, want error", issues[0].Severity)
		}
		if issues[0].Metadata["target"] != "deleted-section" {
			t.Errorf("metadata = %v", issues[0].Metadata)
		}
	})

	t.Run("empty target warns", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"r1","type":"reference","text":""}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 1 || issues[0].Severity != models.SeverityWarning {
			t.Errorf("issues = %+v", issues)
		}
	})
}

func TestPlaceholderText(t *testing.T) {
	rule := NewPlaceholderText([]string{"TBD", "TODO"})

	t.Run("marker found", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"p1","type":"paragraph","text":"Exclusion criteria: TBD."}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 1 {
			t.Fatalf("got %d issues, want 1", len(issues))
		}
		if issues[0].Metadata["marker"] != "TBD" {
			t.Errorf("metadata = %v", issues[0].Metadata)
		}
	})

	t.Run("matching is case sensitive", func(t *testing.T) {
		snap := snapshotFrom(t, `{"blocks":[
			{"id":"p1","type":"paragraph","text":"criteria to be determined later"}
		]}`)

		issues, err := rule.Evaluate(context.Background(), snap)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(issues) != 0 {
			t.Errorf("got %d issues, want 0: %+v", len(issues), issues)
		}
	})
}
