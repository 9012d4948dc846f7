package rules

import (
	"context"
	"fmt"
	"strings"

	models "dossier/internal/domain/models/consistency"
	docstoreModels "dossier/internal/domain/models/docstore"
	"dossier/internal/service/consistency"
)

// RuleIDPlaceholderText identifies the placeholder-text rule
const RuleIDPlaceholderText = "placeholder_text"

// placeholderText warns on leftover editorial markers (TBD, TODO, ...) that
// must not survive into a document under review.
type placeholderText struct {
	markers []string
}

// NewPlaceholderText creates the rule for the given marker strings
func NewPlaceholderText(markers []string) consistency.Rule {
	return &placeholderText{markers: markers}
}

func (r *placeholderText) ID() string { return RuleIDPlaceholderText }

func (r *placeholderText) Evaluate(ctx context.Context, snap *consistency.Snapshot) ([]models.Issue, error) {
	var issues []models.Issue

	snap.Blocks.Walk(func(b *docstoreModels.Block) bool {
		if b.Text == "" || b.Type == docstoreModels.BlockTypeReference {
			return true
		}
		for _, marker := range r.markers {
			if !strings.Contains(b.Text, marker) {
				continue
			}
			issues = append(issues, models.Issue{
				RuleID:    r.ID(),
				Severity:  models.SeverityWarning,
				Message:   fmt.Sprintf("placeholder marker %q found", marker),
				Locations: []string{b.ID},
				Metadata: map[string]any{
					"marker": marker,
				},
			})
		}
		return true
	})

	return issues, nil
}
