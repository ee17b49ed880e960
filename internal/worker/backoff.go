package worker

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DelayPolicy computes the wait between worker ticks.
type DelayPolicy interface {
	// NextDelay returns the next wait interval.
	NextDelay() time.Duration
	// Reset restores the minimum interval.
	Reset()
}

// Backoff doubles the delay on every consecutive call without an intervening
// Reset, capped at max. No jitter: ticks stay deterministic and reproducible.
type Backoff struct {
	inner *backoff.ExponentialBackOff
}

// NewBackoff constructs a doubling backoff over [min, max].
func NewBackoff(min, max time.Duration) *Backoff {
	inner := backoff.NewExponentialBackOff()
	inner.InitialInterval = min
	inner.MaxInterval = max
	inner.Multiplier = 2
	inner.RandomizationFactor = 0
	inner.MaxElapsedTime = 0
	inner.Reset()
	return &Backoff{inner: inner}
}

func (b *Backoff) NextDelay() time.Duration {
	return b.inner.NextBackOff()
}

func (b *Backoff) Reset() {
	b.inner.Reset()
}

// FixedDelay waits a constant interval regardless of tick outcome. Used by
// the progress reporter, which runs on a clock instead of a backoff curve.
type FixedDelay time.Duration

func (d FixedDelay) NextDelay() time.Duration { return time.Duration(d) }

func (d FixedDelay) Reset() {}
