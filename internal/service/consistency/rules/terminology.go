package rules

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	models "dossier/internal/domain/models/consistency"
	docstoreModels "dossier/internal/domain/models/docstore"
	"dossier/internal/service/consistency"
)

// RuleIDDeprecatedTerminology identifies the deprecated-terminology rule
const RuleIDDeprecatedTerminology = "deprecated_terminology"

// deprecatedTerminology warns on terms the style guide has retired, offering
// the preferred replacement. Matching is case-insensitive on word boundaries.
type deprecatedTerminology struct {
	terms    map[string]string
	patterns map[string]*regexp.Regexp
	ordered  []string // deterministic issue ordering across runs
}

// NewDeprecatedTerminology creates the rule for a term -> replacement table
func NewDeprecatedTerminology(terms map[string]string) consistency.Rule {
	patterns := make(map[string]*regexp.Regexp, len(terms))
	ordered := make([]string, 0, len(terms))
	for term := range terms {
		patterns[term] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		ordered = append(ordered, term)
	}
	sort.Strings(ordered)

	return &deprecatedTerminology{terms: terms, patterns: patterns, ordered: ordered}
}

func (r *deprecatedTerminology) ID() string { return RuleIDDeprecatedTerminology }

func (r *deprecatedTerminology) Evaluate(ctx context.Context, snap *consistency.Snapshot) ([]models.Issue, error) {
	var issues []models.Issue

	snap.Blocks.Walk(func(b *docstoreModels.Block) bool {
		if b.Text == "" || b.Type == docstoreModels.BlockTypeReference {
			return true
		}
		for _, term := range r.ordered {
			if !r.patterns[term].MatchString(b.Text) {
				continue
			}
			// Skip when the block already uses the replacement alongside the
			// term, e.g. a glossary defining both
			replacement := r.terms[term]
			if replacement != "" && strings.Contains(strings.ToLower(b.Text), strings.ToLower(replacement)) {
				continue
			}
			issues = append(issues, models.Issue{
				RuleID:    r.ID(),
				Severity:  models.SeverityWarning,
				Message:   fmt.Sprintf("deprecated term %q: prefer %q", term, replacement),
				Locations: []string{b.ID},
				Metadata: map[string]any{
					"term":        term,
					"replacement": replacement,
				},
			})
		}
		return true
	})

	return issues, nil
}
