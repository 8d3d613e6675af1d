package engine

import (
	"jordanella.com/screenbot-go/internal/cv"
)

// GameState is the classified current screen of the target game. The closed
// set of states is whatever the loaded rule manifest declares; StateUnknown
// is the only state the engine itself defines and the fallback whenever no
// rule is fully satisfied.
type GameState string

// StateUnknown - no classification rule matched the frame
const StateUnknown GameState = "Unknown"

// Classification pairs a state with the frame sequence it was derived from.
type Classification struct {
	State    GameState
	Sequence uint64
}

// Relation names a positional constraint between two matched templates,
// evaluated on the centers of their matched regions.
type Relation string

const (
	RelationAbove   Relation = "above"
	RelationBelow   Relation = "below"
	RelationLeftOf  Relation = "left_of"
	RelationRightOf Relation = "right_of"
)

// Constraint requires Subject's match to sit in the given relation to
// Anchor's match.
type Constraint struct {
	Subject  string
	Relation Relation
	Anchor   string
}

// StateRule defines one screen: every template in Requires must hit and
// every constraint must hold. Screens share incidental visual elements, so
// specificity is encoded by rule order rather than inferred: rules are
// evaluated in declaration order and the first fully satisfied rule wins.
type StateRule struct {
	State       GameState
	Requires    []string
	Constraints []Constraint
}

// Classifier maps match results to exactly one GameState. It is a pure
// function of its inputs: identical results always classify identically.
type Classifier struct {
	rules []StateRule
}

// NewClassifier creates a classifier over the given rules. Rule order is the
// priority order: more specific states belong earlier.
func NewClassifier(rules []StateRule) *Classifier {
	return &Classifier{rules: rules}
}

// Rules returns the rule list in priority order
func (c *Classifier) Rules() []StateRule {
	return c.rules
}

// States returns the closed set of states the classifier can produce,
// excluding StateUnknown.
func (c *Classifier) States() []GameState {
	states := make([]GameState, len(c.rules))
	for i, rule := range c.rules {
		states[i] = rule.State
	}
	return states
}

// Classify returns the first state whose rule is fully satisfied by the
// match results, or StateUnknown. Every call produces exactly one state;
// ambiguous or sub-threshold matches are not an error.
func (c *Classifier) Classify(sequence uint64, results []cv.MatchResult) Classification {
	byName := make(map[string]cv.MatchResult, len(results))
	for _, result := range results {
		if result.Hit {
			byName[result.Template] = result
		}
	}

	for _, rule := range c.rules {
		if ruleSatisfied(rule, byName) {
			return Classification{State: rule.State, Sequence: sequence}
		}
	}

	return Classification{State: StateUnknown, Sequence: sequence}
}

func ruleSatisfied(rule StateRule, hits map[string]cv.MatchResult) bool {
	for _, name := range rule.Requires {
		if _, ok := hits[name]; !ok {
			return false
		}
	}

	for _, constraint := range rule.Constraints {
		subject, ok := hits[constraint.Subject]
		if !ok {
			return false
		}
		anchor, ok := hits[constraint.Anchor]
		if !ok {
			return false
		}
		if !relationHolds(constraint.Relation, subject.Region.Center(), anchor.Region.Center()) {
			return false
		}
	}

	return true
}

func relationHolds(relation Relation, subject, anchor cv.Point) bool {
	switch relation {
	case RelationAbove:
		return subject.Y < anchor.Y
	case RelationBelow:
		return subject.Y > anchor.Y
	case RelationLeftOf:
		return subject.X < anchor.X
	case RelationRightOf:
		return subject.X > anchor.X
	default:
		return false
	}
}
