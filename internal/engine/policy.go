package engine

import "fmt"

// Policy is the pluggable per-game decision function. It is supplied at
// engine construction and receives the classified state plus a snapshot of
// the run statistics; the engine itself carries no game-specific decisions.
// A policy returning an error, or panicking, costs one Noop tick and a
// warning, never the loop.
type Policy func(state GameState, stats RunStats) (Action, error)

// NoopPolicy returns a policy that always does nothing. It is the default
// when no game policy is injected, useful for dry runs that only observe
// and classify.
func NoopPolicy() Policy {
	return func(GameState, RunStats) (Action, error) {
		return Noop(), nil
	}
}

// safeDecide invokes the policy with panic recovery, so a policy bug is
// reported as an error rather than crashing the loop.
func safeDecide(policy Policy, state GameState, stats RunStats) (action Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			action = Noop()
			err = fmt.Errorf("%w: panic: %v", ErrPolicyFailed, r)
		}
	}()

	action, err = policy(state, stats)
	if err != nil {
		return Noop(), fmt.Errorf("%w: %v", ErrPolicyFailed, err)
	}
	return action, nil
}
