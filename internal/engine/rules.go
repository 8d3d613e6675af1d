package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// State-rule manifest loading. Malformed entries fail here, at load time,
// never mid-run.

// RuleDefinition is one state rule in the YAML manifest
type RuleDefinition struct {
	State       string                 `yaml:"state"`
	Requires    []string               `yaml:"requires"`
	Constraints []ConstraintDefinition `yaml:"constraints,omitempty"`
}

// ConstraintDefinition is one positional constraint in the YAML manifest
type ConstraintDefinition struct {
	Subject  string `yaml:"subject"`
	Relation string `yaml:"relation"`
	Anchor   string `yaml:"anchor"`
}

// RulesFile is the top-level structure of the states manifest. Rule order in
// the file is the classification priority order.
type RulesFile struct {
	States []RuleDefinition `yaml:"states"`
}

// LoadRules parses and validates a states manifest
func LoadRules(path string) ([]StateRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read states manifest %s: %w", path, err)
	}

	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal states manifest: %w", err)
	}

	if len(file.States) == 0 {
		return nil, fmt.Errorf("states manifest %s declares no states", path)
	}

	rules := make([]StateRule, 0, len(file.States))
	seen := make(map[string]bool, len(file.States))

	for i, def := range file.States {
		if def.State == "" {
			return nil, fmt.Errorf("state %d: name cannot be empty", i+1)
		}
		if def.State == string(StateUnknown) {
			return nil, fmt.Errorf("state %d: %q is reserved for the fallback state", i+1, StateUnknown)
		}
		if seen[def.State] {
			return nil, fmt.Errorf("state %d (%s): duplicate state name", i+1, def.State)
		}
		seen[def.State] = true

		if len(def.Requires) == 0 {
			return nil, fmt.Errorf("state %d (%s): requires at least one template", i+1, def.State)
		}

		required := make(map[string]bool, len(def.Requires))
		for _, name := range def.Requires {
			if name == "" {
				return nil, fmt.Errorf("state %d (%s): empty template name in requires", i+1, def.State)
			}
			required[name] = true
		}

		rule := StateRule{
			State:    GameState(def.State),
			Requires: def.Requires,
		}

		for j, c := range def.Constraints {
			relation := Relation(c.Relation)
			switch relation {
			case RelationAbove, RelationBelow, RelationLeftOf, RelationRightOf:
			default:
				return nil, fmt.Errorf("state %d (%s), constraint %d: unknown relation %q",
					i+1, def.State, j+1, c.Relation)
			}
			if !required[c.Subject] {
				return nil, fmt.Errorf("state %d (%s), constraint %d: subject %q not in requires",
					i+1, def.State, j+1, c.Subject)
			}
			if !required[c.Anchor] {
				return nil, fmt.Errorf("state %d (%s), constraint %d: anchor %q not in requires",
					i+1, def.State, j+1, c.Anchor)
			}
			rule.Constraints = append(rule.Constraints, Constraint{
				Subject:  c.Subject,
				Relation: relation,
				Anchor:   c.Anchor,
			})
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

// NewClassifierFromFile loads a states manifest and builds a classifier
func NewClassifierFromFile(path string) (*Classifier, error) {
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return NewClassifier(rules), nil
}
