package calls

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/meridianhq/meridian-go/backoff"
	"github.com/meridianhq/meridian-go/tracing"
)

// InvocationIDHeader carries the unique ID attached to every invocation so
// that attempts belonging to one logical call can be correlated server-side.
const InvocationIDHeader = "x-meridian-invocation-id"

// APICall performs a single attempt of a remote operation. Implementations
// must respect ctx and return transport failures as gRPC status errors.
type APICall[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Invoke executes call, retrying according to the resolved settings. It
// returns the first successful response, or:
//
//   - the attempt error unchanged, when the failure is not retryable,
//   - an *ExpiredError, when the total deadline elapsed first,
//   - a *CancelledError, when the caller's context was cancelled.
//
// Retryable failures are swallowed and logged at debug level. method is the
// logical RPC name, used for spans, logs and error messages.
func Invoke[Req, Resp any](ctx context.Context, method string, req Req, call APICall[Req, Resp], opts ...Option) (Resp, error) {
	var zero Resp

	settings := resolve(opts)
	start := time.Now()

	invocationID := uuid.New().String()
	ctx, span := tracing.Tracer().Start(ctx, method, trace.WithAttributes(
		attribute.String("rpc.method", method),
		attribute.String("rpc.invocation_id", invocationID),
	))
	defer span.End()

	ctx = metadata.AppendToOutgoingContext(ctx, InvocationIDHeader, invocationID)
	if len(settings.GRPC) > 0 {
		ctx = context.WithValue(ctx, grpcOptionsKey{}, settings.GRPC)
	}

	if settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
		defer cancel()
	}

	if settings.Modify != nil {
		if modified, ok := settings.Modify(ctx, req).(Req); ok {
			req = modified
		}
	}

	entry := log.WithFields(log.Fields{
		"rpc.method":        method,
		"rpc.invocation_id": invocationID,
	})

	var retryer backoff.Retryer
	if settings.Retry != nil {
		retryer = settings.Retry()
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err := terminalContextError(method, start, lastErr, ctxErr)
			tracing.RecordError(ctx, err)
			return zero, err
		}

		attemptCtx := ctx
		cancelAttempt := context.CancelFunc(func() {})
		if d := settings.AttemptTimeout.Delay(attempt); d > 0 {
			attemptCtx, cancelAttempt = context.WithTimeout(ctx, d)
		}

		resp, err := call(attemptCtx, req)
		cancelAttempt()
		if err == nil {
			span.SetAttributes(attribute.Int("rpc.attempts", attempt+1))
			return resp, nil
		}
		lastErr = err

		// The overall deadline or the caller's cancellation wins over
		// whatever the transport reported for this attempt.
		if ctxErr := ctx.Err(); ctxErr != nil {
			terminal := terminalContextError(method, start, lastErr, ctxErr)
			tracing.RecordError(ctx, terminal)
			return zero, terminal
		}

		if retryer == nil {
			tracing.RecordError(ctx, err)
			return zero, err
		}

		pause, retry := retryer.Retry(err)
		if !retry {
			tracing.RecordError(ctx, err)
			return zero, err
		}

		entry.WithFields(log.Fields{
			"rpc.attempt": attempt + 1,
			"rpc.pause":   pause.String(),
		}).WithError(err).Debug("retrying after transient failure")
		span.AddEvent("retry", trace.WithAttributes(
			attribute.Int("rpc.attempt", attempt+1),
			attribute.String("rpc.pause", pause.String()),
		))

		if sleepErr := Sleep(ctx, pause); sleepErr != nil {
			terminal := terminalContextError(method, start, lastErr, sleepErr)
			tracing.RecordError(ctx, terminal)
			return zero, terminal
		}
	}
}

type grpcOptionsKey struct{}

// GRPCOptions returns the transport options resolved for the invocation that
// owns ctx. Stubs pass them through to Channel.Invoke on every attempt.
func GRPCOptions(ctx context.Context) []grpc.CallOption {
	opts, _ := ctx.Value(grpcOptionsKey{}).([]grpc.CallOption)
	return opts
}

// Sleep pauses for d, returning early with the context's error if ctx is done
// first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func terminalContextError(method string, start time.Time, last, ctxErr error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return &ExpiredError{
			Method:  method,
			Elapsed: time.Since(start),
			Last:    last,
		}
	}

	return &CancelledError{
		Method: method,
		Last:   last,
	}
}
