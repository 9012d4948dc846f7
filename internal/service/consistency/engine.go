package consistency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	models "dossier/internal/domain/models/consistency"
	docstoreModels "dossier/internal/domain/models/docstore"
)

// Snapshot is the read-only view of one document version that rules
// evaluate against. Blocks is the parsed content of that version.
type Snapshot struct {
	Document      docstoreModels.Document
	VersionNumber int
	Blocks        *docstoreModels.BlockDocument
}

// Rule is one independent unit of domain-consistency checking. Rules must
// not mutate the snapshot and must be safe for concurrent evaluation across
// runs.
type Rule interface {
	// ID identifies the rule; re-registering the same id replaces the rule
	ID() string

	// Evaluate returns zero or more issues found in the snapshot
	Evaluate(ctx context.Context, snap *Snapshot) ([]models.Issue, error)
}

// Engine holds the rule registry and runs every registered rule against one
// document snapshot. It owns no persisted state; the registry is keyed by
// rule id so re-registration is last-write-wins and deterministic.
// The engine is safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	rules  map[string]Rule
	order  []string // rule ids in first-registration order
	logger *slog.Logger
}

// NewEngine creates an empty rule engine
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		rules:  make(map[string]Rule),
		logger: logger,
	}
}

// Register adds a rule to the registry. Registering an id that already
// exists replaces the previous rule but keeps its original position, so a
// reload does not reshuffle issue ordering.
func (e *Engine) Register(r Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := r.ID()
	if _, exists := e.rules[id]; !exists {
		e.order = append(e.order, id)
	}
	e.rules[id] = r
}

// Unregister removes a rule by id. Removing an unknown id is a no-op.
func (e *Engine) Unregister(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.rules[id]; !exists {
		return
	}
	delete(e.rules, id)
	for i, existing := range e.order {
		if existing == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// RuleIDs returns the registered rule ids in registration order
func (e *Engine) RuleIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.order...)
}

// Run evaluates every registered rule against the snapshot. Issues are
// concatenated in registration order, preserving each rule's own ordering.
// A failing rule never aborts the run: its failure is contained and recorded
// as a synthetic internal_error issue under that rule's id, and the
// remaining rules still contribute.
func (e *Engine) Run(ctx context.Context, snap *Snapshot) *models.Result {
	e.mu.RLock()
	ordered := make([]Rule, 0, len(e.order))
	for _, id := range e.order {
		ordered = append(ordered, e.rules[id])
	}
	e.mu.RUnlock()

	result := &models.Result{
		DocumentID:    snap.Document.ID,
		VersionNumber: snap.VersionNumber,
		Issues:        []models.Issue{},
	}

	for _, rule := range ordered {
		issues, err := e.evaluate(ctx, rule, snap)
		if err != nil {
			e.logger.Error("rule evaluation failed",
				"rule_id", rule.ID(),
				"document_id", snap.Document.ID,
				"error", err,
			)
			issues = []models.Issue{{
				RuleID:   rule.ID(),
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("rule evaluation failed: %v", err),
				Metadata: map[string]any{
					"validation_type": models.ValidationTypeInternalError,
				},
			}}
		}

		for _, issue := range issues {
			switch issue.Severity {
			case models.SeverityError:
				result.Errors++
			case models.SeverityWarning:
				result.Warnings++
			}
		}
		result.Issues = append(result.Issues, issues...)
	}

	return result
}

// evaluate isolates one rule's evaluation, converting a panic into an error
func (e *Engine) evaluate(ctx context.Context, rule Rule, snap *Snapshot) (issues []models.Issue, err error) {
	defer func() {
		if p := recover(); p != nil {
			issues = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return rule.Evaluate(ctx, snap)
}
