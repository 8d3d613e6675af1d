package engine

import (
	"fmt"
	"time"
)

// ActionKind tags the Action variant
type ActionKind int

const (
	ActionNoop ActionKind = iota
	ActionTap
	ActionSwipe
	ActionWait
)

// Action is an immutable command produced by a Policy and consumed once by
// the executor.
type Action struct {
	Kind     ActionKind
	X, Y     int
	X2, Y2   int
	Duration time.Duration
}

// Noop returns an action that does nothing
func Noop() Action {
	return Action{Kind: ActionNoop}
}

// Tap returns a tap at the given coordinates
func Tap(x, y int) Action {
	return Action{Kind: ActionTap, X: x, Y: y}
}

// Swipe returns a swipe gesture between two points over the given duration
func Swipe(x1, y1, x2, y2 int, duration time.Duration) Action {
	return Action{Kind: ActionSwipe, X: x1, Y: y1, X2: x2, Y2: y2, Duration: duration}
}

// Wait returns a pause of the given duration
func Wait(duration time.Duration) Action {
	return Action{Kind: ActionWait, Duration: duration}
}

// IsPhysical reports whether the action dispatches synthetic input
func (a Action) IsPhysical() bool {
	return a.Kind == ActionTap || a.Kind == ActionSwipe
}

// String returns a human-readable description of the action
func (a Action) String() string {
	switch a.Kind {
	case ActionTap:
		return fmt.Sprintf("tap(%d,%d)", a.X, a.Y)
	case ActionSwipe:
		return fmt.Sprintf("swipe(%d,%d -> %d,%d, %v)", a.X, a.Y, a.X2, a.Y2, a.Duration)
	case ActionWait:
		return fmt.Sprintf("wait(%v)", a.Duration)
	default:
		return "noop"
	}
}
