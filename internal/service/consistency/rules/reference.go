package rules

import (
	"context"
	"fmt"

	models "dossier/internal/domain/models/consistency"
	docstoreModels "dossier/internal/domain/models/docstore"
	"dossier/internal/service/consistency"
)

// RuleIDReferenceIntegrity identifies the reference-integrity rule
const RuleIDReferenceIntegrity = "reference_integrity"

// referenceIntegrity checks that every reference block points at a block
// that actually exists in the same document. Dangling references typically
// appear after a referenced section was deleted.
type referenceIntegrity struct{}

// NewReferenceIntegrity creates the reference-integrity rule
func NewReferenceIntegrity() consistency.Rule {
	return &referenceIntegrity{}
}

func (r *referenceIntegrity) ID() string { return RuleIDReferenceIntegrity }

func (r *referenceIntegrity) Evaluate(ctx context.Context, snap *consistency.Snapshot) ([]models.Issue, error) {
	ids := make(map[string]bool)
	snap.Blocks.Walk(func(b *docstoreModels.Block) bool {
		if b.ID != "" {
			ids[b.ID] = true
		}
		return true
	})

	var issues []models.Issue
	snap.Blocks.Walk(func(b *docstoreModels.Block) bool {
		if b.Type != docstoreModels.BlockTypeReference {
			return true
		}
		target := b.Text
		if target == "" {
			issues = append(issues, models.Issue{
				RuleID:    r.ID(),
				Severity:  models.SeverityWarning,
				Message:   fmt.Sprintf("reference block %s has no target", b.ID),
				Locations: []string{b.ID},
			})
			return true
		}
		if !ids[target] {
			issues = append(issues, models.Issue{
				RuleID:    r.ID(),
				Severity:  models.SeverityError,
				Message:   fmt.Sprintf("reference block %s points at missing block %s", b.ID, target),
				Locations: []string{b.ID},
				Metadata: map[string]any{
					"target": target,
				},
			})
		}
		return true
	})

	return issues, nil
}
