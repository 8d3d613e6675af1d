package engine

import "time"

// RunStats are the process-lifetime counters for one engine instance. They
// are mutated exclusively by the control loop and reset only when a new
// engine is constructed; Status() hands out copies.
type RunStats struct {
	StartedAt           time.Time
	TicksRun            uint64
	ActionsExecuted     uint64
	Retries             uint64
	ConsecutiveFailures int
	LastState           GameState
	LastSequence        uint64
	LastFailure         string
	LastFailureAt       time.Time
}

// recordTick notes one completed pipeline pass
func (s *RunStats) recordTick(state GameState, sequence uint64) {
	s.TicksRun++
	s.LastState = state
	s.LastSequence = sequence
}

// recordFailure notes a retryable failure and its cause for diagnosis
func (s *RunStats) recordFailure(cause error, now time.Time) {
	s.ConsecutiveFailures++
	s.Retries++
	s.LastFailure = cause.Error()
	s.LastFailureAt = now
}

// recordSuccess resets the consecutive-failure streak
func (s *RunStats) recordSuccess() {
	s.ConsecutiveFailures = 0
}
