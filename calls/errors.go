package calls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ExpiredError is returned when an invocation's total deadline elapsed while
// retries were still permitted. It wraps the last transport failure so the
// caller can still see why the attempts were failing.
type ExpiredError struct {
	// Method is the logical RPC name the invocation was bound to.
	Method string

	// Elapsed is how long the invocation ran before expiring.
	Elapsed time.Duration

	// Last is the most recent attempt failure, if any attempt completed.
	Last error
}

func (e *ExpiredError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%v: call expired after %v", e.Method, e.Elapsed)
	}

	return fmt.Sprintf("%v: call expired after %v, last error: %v", e.Method, e.Elapsed, e.Last)
}

func (e *ExpiredError) Unwrap() error {
	return e.Last
}

// GRPCStatus lets status.FromError classify an expired call as
// DeadlineExceeded.
func (e *ExpiredError) GRPCStatus() *status.Status {
	return status.New(codes.DeadlineExceeded, e.Error())
}

// CancelledError is returned when the caller's context was cancelled before
// the invocation completed. It is distinct from transport failures and from
// deadline expiry.
type CancelledError struct {
	Method string
	Last   error
}

func (e *CancelledError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%v: call cancelled", e.Method)
	}

	return fmt.Sprintf("%v: call cancelled, last error: %v", e.Method, e.Last)
}

func (e *CancelledError) Unwrap() error {
	return e.Last
}

func (e *CancelledError) Is(target error) bool {
	return target == context.Canceled
}

// GRPCStatus lets status.FromError classify a cancelled call as Canceled.
func (e *CancelledError) GRPCStatus() *status.Status {
	return status.New(codes.Canceled, e.Error())
}

// IsExpired reports whether err is (or wraps) a total-deadline expiry.
func IsExpired(err error) bool {
	var expired *ExpiredError
	return errors.As(err, &expired)
}

// IsCancelled reports whether err is (or wraps) a caller cancellation.
func IsCancelled(err error) bool {
	var cancelled *CancelledError
	return errors.As(err, &cancelled) || errors.Is(err, context.Canceled)
}
