package engine

import (
	"errors"
	"fmt"
)

// Per-tick failure taxonomy. Capture failures are defined in internal/cv
// next to the frame source; the dispatch and terminal conditions live here.
var (
	// ErrInputDispatch - the input channel rejected the event (target lost)
	ErrInputDispatch = errors.New("input dispatch rejected")
	// ErrPolicyFailed - the policy returned an error or panicked; downgraded
	// to Noop by the loop, never fatal
	ErrPolicyFailed = errors.New("policy failed")
	// ErrRunAborted - the consecutive-failure ceiling was exceeded
	ErrRunAborted = errors.New("run aborted")
	// ErrAlreadyRunning - Start called on a loop that is already running
	ErrAlreadyRunning = errors.New("engine already running")
)

// AbortError is the terminal condition surfaced once when the loop gives up.
type AbortError struct {
	ConsecutiveFailures int
	LastCause           error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("run aborted after %d consecutive failures (last: %v)",
		e.ConsecutiveFailures, e.LastCause)
}

func (e *AbortError) Unwrap() error {
	return ErrRunAborted
}
