// Package backoff holds the retry policy building blocks used by the call
// layer: a deterministic exponential delay curve and retryers that decide,
// per failure, whether another attempt should be made.
package backoff

import (
	"errors"
	"math"
	"time"
)

// Policy describes an exponential backoff curve. The delay before attempt n
// (zero-based) is min(Max, Initial * Multiplier^n). A zero-valued Policy is
// valid and produces no delay at all, which leaves retries governed purely by
// the call's deadline.
//
// Policies are immutable once constructed and safe to share between
// concurrent calls.
type Policy struct {
	// Initial is the delay before the first retry.
	Initial time.Duration

	// Max caps the delay regardless of how many attempts have been made.
	Max time.Duration

	// Multiplier is applied to the delay after every attempt. Must be >= 1
	// for any non-zero policy.
	Multiplier float64
}

var (
	ErrMultiplierTooSmall = errors.New("backoff: multiplier must be >= 1")
	ErrMaxBelowInitial    = errors.New("backoff: max delay must be >= initial delay")
	ErrNegativeDelay      = errors.New("backoff: delays must not be negative")
)

// Validate checks the policy invariants. The zero value always validates.
func (p Policy) Validate() error {
	if p == (Policy{}) {
		return nil
	}

	if p.Initial < 0 || p.Max < 0 {
		return ErrNegativeDelay
	}
	if p.Multiplier < 1 {
		return ErrMultiplierTooSmall
	}
	if p.Max < p.Initial {
		return ErrMaxBelowInitial
	}

	return nil
}

// Delay returns the wait before retry number attempt (zero-based). The result
// is deterministic and non-decreasing in attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if p.Initial <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}

	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	delay := float64(p.Initial) * math.Pow(multiplier, float64(attempt))
	if p.Max > 0 && delay > float64(p.Max) {
		return p.Max
	}
	if delay > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(delay)
}
