package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	models "dossier/internal/domain/models/consistency"
	docstoreModels "dossier/internal/domain/models/docstore"
	"dossier/internal/service/consistency"
)

// RuleIDDosageConsistency identifies the dosage-consistency rule
const RuleIDDosageConsistency = "dosage_consistency"

// dosagePattern captures "<compound> <amount> <unit>", e.g. "metformin 500 mg".
// The compound token is the word immediately preceding the dose.
var dosagePattern = regexp.MustCompile(`(?i)\b([a-z][a-z-]{2,})\s+(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml|iu)(?:\b|/)`)

// dosageConsistency raises an error when the same compound is mentioned with
// conflicting doses in different blocks. A protocol that says 500 mg in the
// synopsis and 250 mg in the dosing section is exactly the inconsistency
// this registry exists to catch.
type dosageConsistency struct{}

// NewDosageConsistency creates the dosage-consistency rule
func NewDosageConsistency() consistency.Rule {
	return &dosageConsistency{}
}

func (r *dosageConsistency) ID() string { return RuleIDDosageConsistency }

type dosageMention struct {
	dose    string // normalized "amount unit"
	blockID string
}

func (r *dosageConsistency) Evaluate(ctx context.Context, snap *consistency.Snapshot) ([]models.Issue, error) {
	mentions := make(map[string][]dosageMention) // compound -> mentions in document order
	var compounds []string

	snap.Blocks.Walk(func(b *docstoreModels.Block) bool {
		if b.Text == "" || b.Type == docstoreModels.BlockTypeReference {
			return true
		}
		for _, m := range dosagePattern.FindAllStringSubmatch(b.Text, -1) {
			compound := strings.ToLower(m[1])
			dose := m[2] + " " + strings.ToLower(m[3])
			if _, seen := mentions[compound]; !seen {
				compounds = append(compounds, compound)
			}
			mentions[compound] = append(mentions[compound], dosageMention{dose: dose, blockID: b.ID})
		}
		return true
	})

	var issues []models.Issue
	for _, compound := range compounds {
		seen := mentions[compound]
		doses := make(map[string]bool)
		var locations []string
		for _, m := range seen {
			doses[m.dose] = true
			locations = append(locations, m.blockID)
		}
		if len(doses) <= 1 {
			continue
		}

		var variants []string
		for _, m := range seen {
			if !contains(variants, m.dose) {
				variants = append(variants, m.dose)
			}
		}

		issues = append(issues, models.Issue{
			RuleID:    r.ID(),
			Severity:  models.SeverityError,
			Message:   fmt.Sprintf("conflicting doses for %q: %s", compound, strings.Join(variants, " vs ")),
			Locations: dedupe(locations),
			Metadata: map[string]any{
				"compound": compound,
				"doses":    variants,
			},
		})
	}

	return issues, nil
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

func dedupe(values []string) []string {
	var out []string
	for _, v := range values {
		if !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
