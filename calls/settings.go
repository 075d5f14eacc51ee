// Package calls is the generic invocation layer every Meridian client is
// built on. It wraps a single transport operation with retry, deadline,
// tracing and logging behaviour, in both a blocking and an asynchronous form.
package calls

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/meridianhq/meridian-go/backoff"
)

// Settings captures everything configurable about one invocation. A zero
// Settings means: no retries, no per-call timeout beyond the caller's
// context, no request modification.
type Settings struct {
	// Timeout bounds the whole invocation across all attempts. Zero means
	// only the caller's context deadline applies. When both are set,
	// whichever elapses first terminates the retry loop.
	Timeout time.Duration

	// Retry builds a fresh retryer for the invocation. Nil disables
	// retries entirely.
	Retry func() backoff.Retryer

	// AttemptTimeout bounds each individual attempt, growing along the
	// curve as attempts accumulate. The zero policy disables per-attempt
	// deadlines.
	AttemptTimeout backoff.Policy

	// Modify, if set, is applied to the request once, before the first
	// attempt is issued. It must return a value of the same type it was
	// given.
	Modify func(ctx context.Context, req any) any

	// GRPC options are passed through to the transport on every attempt.
	GRPC []grpc.CallOption
}

// Option mutates Settings. Options resolve in order, so per-call overrides
// appended after a client's defaults take precedence.
type Option interface {
	Resolve(*Settings)
}

type optionFunc func(*Settings)

func (f optionFunc) Resolve(s *Settings) { f(s) }

// WithTimeout bounds the invocation, including all retries, to d.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(s *Settings) {
		s.Timeout = d
	})
}

// WithRetry sets the retryer factory for the invocation.
func WithRetry(fn func() backoff.Retryer) Option {
	return optionFunc(func(s *Settings) {
		s.Retry = fn
	})
}

// WithNoRetry disables retries, overriding any default the client bound.
func WithNoRetry() Option {
	return optionFunc(func(s *Settings) {
		s.Retry = nil
	})
}

// WithAttemptTimeout sets the per-attempt deadline curve. The first attempt
// gets p.Delay(0), the second p.Delay(1), and so on.
func WithAttemptTimeout(p backoff.Policy) Option {
	return optionFunc(func(s *Settings) {
		s.AttemptTimeout = p
	})
}

// WithRequestModifier installs a hook that can rewrite the request before it
// is dispatched. The hook must return the same concrete type it receives.
func WithRequestModifier(fn func(ctx context.Context, req any) any) Option {
	return optionFunc(func(s *Settings) {
		s.Modify = fn
	})
}

// WithGRPCOptions appends transport-level call options applied on every
// attempt.
func WithGRPCOptions(opts ...grpc.CallOption) Option {
	return optionFunc(func(s *Settings) {
		s.GRPC = append(s.GRPC, opts...)
	})
}

// Merge combines a client's per-method defaults with per-call overrides.
// Neither input slice is mutated; overrides resolve last, so they win.
func Merge(defaults, overrides []Option) []Option {
	merged := make([]Option, 0, len(defaults)+len(overrides))
	merged = append(merged, defaults...)

	return append(merged, overrides...)
}

func resolve(opts []Option) Settings {
	var s Settings
	for _, o := range opts {
		if o != nil {
			o.Resolve(&s)
		}
	}

	return s
}
