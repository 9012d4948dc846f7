package rules

import (
	"context"
	"fmt"
	"strings"

	models "dossier/internal/domain/models/consistency"
	"dossier/internal/service/consistency"
)

// RuleIDRequiredSections identifies the required-sections rule
const RuleIDRequiredSections = "required_sections"

// requiredSections raises an error for every mandated section missing from
// the document. Section matching is case-insensitive on the section title.
type requiredSections struct {
	sections []string
}

// NewRequiredSections creates the rule for the given mandated section titles
func NewRequiredSections(sections []string) consistency.Rule {
	return &requiredSections{sections: sections}
}

func (r *requiredSections) ID() string { return RuleIDRequiredSections }

func (r *requiredSections) Evaluate(ctx context.Context, snap *consistency.Snapshot) ([]models.Issue, error) {
	present := make(map[string]bool)
	for _, title := range snap.Blocks.SectionTitles() {
		present[strings.ToLower(strings.TrimSpace(title))] = true
	}

	var issues []models.Issue
	for _, required := range r.sections {
		if present[strings.ToLower(strings.TrimSpace(required))] {
			continue
		}
		issues = append(issues, models.Issue{
			RuleID:    r.ID(),
			Severity:  models.SeverityError,
			Message:   fmt.Sprintf("required section %q is missing", required),
			Locations: []string{"document"},
			Metadata: map[string]any{
				"missing_section": required,
			},
		})
	}

	return issues, nil
}
