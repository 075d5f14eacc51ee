package backoff

import (
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Retryer decides whether a failed attempt should be retried and how long to
// pause first. Retryers carry per-call attempt state, so a fresh one must be
// built for every invocation; the call layer takes a factory for exactly this
// reason.
type Retryer interface {
	// Retry reports whether the call should be attempted again after err,
	// and the pause before doing so.
	Retry(err error) (pause time.Duration, shouldRetry bool)
}

// TransientCodes are the failure codes an idempotent method is safe to retry
// on: the server either never saw the request or never finished it.
var TransientCodes = []codes.Code{
	codes.DeadlineExceeded,
	codes.Unavailable,
}

// OnCodes returns a Retryer that retries if and only if the attempt failed
// with one of the codes in cc, pausing according to p.
//
// p is only used for its parameters; the returned Retryer keeps its own
// attempt counter.
func OnCodes(cc []codes.Code, p Policy) Retryer {
	retryable := make(map[codes.Code]bool, len(cc))
	for _, c := range cc {
		retryable[c] = true
	}

	return &codeRetryer{
		policy:    p,
		retryable: retryable,
	}
}

// Idempotent returns the retryer preset for methods that are safe to replay:
// it retries on the transient codes with the supplied delay curve.
func Idempotent(p Policy) Retryer {
	return OnCodes(TransientCodes, p)
}

// NonIdempotent returns the retryer preset for methods whose replay could
// duplicate side effects. It never retries.
func NonIdempotent() Retryer {
	return neverRetryer{}
}

type codeRetryer struct {
	policy    Policy
	retryable map[codes.Code]bool
	attempt   int
}

func (r *codeRetryer) Retry(err error) (time.Duration, bool) {
	if !r.retryable[status.Code(err)] {
		return 0, false
	}

	pause := r.policy.Delay(r.attempt)
	r.attempt++

	return pause, true
}

type neverRetryer struct{}

func (neverRetryer) Retry(error) (time.Duration, bool) {
	return 0, false
}
