package engine

import "time"

// Backoff computes the retry delay after consecutive failures: the initial
// delay doubles per failure, capped at the maximum.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// DefaultBackoff returns the recommended backoff settings
func DefaultBackoff() Backoff {
	return Backoff{
		Initial: 500 * time.Millisecond,
		Max:     15 * time.Second,
	}
}

// Delay returns the wait before the next retry given the current
// consecutive-failure count (>= 1).
func (b Backoff) Delay(consecutive int) time.Duration {
	if consecutive < 1 {
		consecutive = 1
	}

	delay := b.Initial
	for i := 1; i < consecutive; i++ {
		delay *= 2
		if delay >= b.Max {
			return b.Max
		}
	}

	if delay > b.Max {
		return b.Max
	}
	return delay
}
