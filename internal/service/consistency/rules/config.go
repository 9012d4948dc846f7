package rules

import (
	"embed"
	"fmt"
	"os"

	"dossier/internal/service/consistency"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// ToggleConfig enables or disables a rule with no further parameters
type ToggleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SectionsConfig parameterizes the required-sections rule
type SectionsConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Sections []string `yaml:"sections"`
}

// TerminologyConfig parameterizes the deprecated-terminology rule
type TerminologyConfig struct {
	Enabled bool              `yaml:"enabled"`
	Terms   map[string]string `yaml:"terms"`
}

// PlaceholderConfig parameterizes the placeholder-text rule
type PlaceholderConfig struct {
	Enabled bool     `yaml:"enabled"`
	Markers []string `yaml:"markers"`
}

// RuleSet is the full rule configuration, one section per built-in rule
type RuleSet struct {
	RequiredSections SectionsConfig    `yaml:"required_sections"`
	Terminology      TerminologyConfig `yaml:"deprecated_terminology"`
	Dosage           ToggleConfig      `yaml:"dosage_consistency"`
	References       ToggleConfig      `yaml:"reference_integrity"`
	Placeholders     PlaceholderConfig `yaml:"placeholder_text"`
}

// LoadDefault parses the embedded default rule set
func LoadDefault() (*RuleSet, error) {
	data, err := configFiles.ReadFile("config/rules.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded rule config: %w", err)
	}
	return parse(data)
}

// LoadFile parses a rule set from an external override file
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule config %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("unmarshal rule config: %w", err)
	}
	return &rs, nil
}

// Register registers every enabled rule on the engine and removes rules the
// set disables. Calling it again with a changed rule set replaces rules in
// place (last-write-wins by rule id), which is how config reloads take
// effect.
func Register(engine *consistency.Engine, rs *RuleSet) {
	apply(engine, rs.RequiredSections.Enabled, RuleIDRequiredSections, func() consistency.Rule {
		return NewRequiredSections(rs.RequiredSections.Sections)
	})
	apply(engine, rs.Terminology.Enabled, RuleIDDeprecatedTerminology, func() consistency.Rule {
		return NewDeprecatedTerminology(rs.Terminology.Terms)
	})
	apply(engine, rs.Dosage.Enabled, RuleIDDosageConsistency, NewDosageConsistency)
	apply(engine, rs.References.Enabled, RuleIDReferenceIntegrity, NewReferenceIntegrity)
	apply(engine, rs.Placeholders.Enabled, RuleIDPlaceholderText, func() consistency.Rule {
		return NewPlaceholderText(rs.Placeholders.Markers)
	})
}

func apply(engine *consistency.Engine, enabled bool, id string, build func() consistency.Rule) {
	if enabled {
		engine.Register(build())
		return
	}
	engine.Unregister(id)
}
