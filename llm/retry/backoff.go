// Package retry provides the inter-attempt delay policy used by the
// workflow engine when a node's generation or validation fails.
//
// The engine itself bounds the number of attempts (a node's retry limit);
// this package only decides how long to wait between them. The default
// policy waits not at all, which suits mocked backends and tests; real
// deployments can opt into exponential backoff with jitter.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Policy controls the delay between retry attempts.
type Policy struct {
	// InitialDelay is the delay before the first retry. Zero disables
	// waiting entirely.
	InitialDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Multiplier is the exponential growth factor per attempt.
	Multiplier float64
	// Jitter adds ±25% randomization to spread simultaneous retries.
	Jitter bool
}

// NoDelay returns the default policy: retries are immediate and
// sequential, matching the engine's contract that no backoff is required.
func NoDelay() *Policy {
	return &Policy{}
}

// Backoff returns an exponential backoff policy suitable for real
// generation backends.
func Backoff() *Policy {
	return &Policy{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     15 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Wait blocks for the delay of the given retry attempt (1-based), or
// returns early when the context is done. A zero InitialDelay returns
// immediately.
func (p *Policy) Wait(ctx context.Context, attempt int) error {
	if p == nil || p.InitialDelay <= 0 {
		return ctx.Err()
	}
	delay := p.delayFor(attempt)
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait canceled: %w", ctx.Err())
	case <-time.After(delay):
		return nil
	}
}

// delayFor computes the delay for a 1-based attempt number.
func (p *Policy) delayFor(attempt int) time.Duration {
	multiplier := p.Multiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	delay := float64(p.InitialDelay) * math.Pow(multiplier, float64(attempt-1))

	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter {
		jitter := delay * 0.25
		delay = delay + (rand.Float64()*2-1)*jitter
	}
	if delay < float64(p.InitialDelay) {
		delay = float64(p.InitialDelay)
	}
	return time.Duration(delay)
}
