package calls

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/meridianhq/meridian-go/backoff"
)

type echoRequest struct {
	Value string
}

// failNTimes fails the first n attempts with the given code, then succeeds.
func failNTimes(n int, code codes.Code, attempts *int) APICall[*echoRequest, string] {
	return func(ctx context.Context, req *echoRequest) (string, error) {
		*attempts++
		if *attempts <= n {
			return "", status.Error(code, "synthetic failure")
		}

		return req.Value, nil
	}
}

func fastIdempotent() Option {
	return WithRetry(func() backoff.Retryer {
		return backoff.Idempotent(backoff.Policy{
			Initial:    time.Millisecond,
			Max:        5 * time.Millisecond,
			Multiplier: 1.2,
		})
	})
}

func TestInvokeSucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	attempts := 0
	resp, err := Invoke(context.Background(), "Test.Echo", &echoRequest{Value: "hello"},
		failNTimes(0, codes.Unavailable, &attempts), fastIdempotent())

	require.NoError(t, err)
	assert.Equal(t, "hello", resp)
	assert.Equal(t, 1, attempts)
}

func TestInvokeRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	resp, err := Invoke(context.Background(), "Test.Echo", &echoRequest{Value: "hello"},
		failNTimes(3, codes.Unavailable, &attempts), fastIdempotent())

	require.NoError(t, err)
	assert.Equal(t, "hello", resp)
	assert.Equal(t, 4, attempts)
}

func TestInvokeDoesNotRetryTerminalFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := Invoke(context.Background(), "Test.Echo", &echoRequest{Value: "hello"},
		failNTimes(3, codes.PermissionDenied, &attempts), fastIdempotent())

	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, 1, attempts, "terminal failures must not be retried")
	assert.False(t, IsExpired(err))
	assert.False(t, IsCancelled(err))
}

func TestInvokeWithoutRetryerFailsImmediately(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := Invoke(context.Background(), "Test.Echo", &echoRequest{Value: "hello"},
		failNTimes(3, codes.Unavailable, &attempts))

	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, 1, attempts)
}

func TestInvokeExpiresByElapsedTimeNotAttemptCount(t *testing.T) {
	t.Parallel()

	attempts := 0
	alwaysDown := func(ctx context.Context, req *echoRequest) (string, error) {
		attempts++
		return "", status.Error(codes.Unavailable, "synthetic failure")
	}

	start := time.Now()
	_, err := Invoke(context.Background(), "Test.Echo", &echoRequest{Value: "hello"}, alwaysDown,
		WithTimeout(200*time.Millisecond),
		WithRetry(func() backoff.Retryer {
			return backoff.Idempotent(backoff.Policy{
				Initial:    100 * time.Millisecond,
				Max:        time.Second,
				Multiplier: 1.2,
			})
		}))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsExpired(err), "expected a timeout-kind failure, got %v", err)
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.GreaterOrEqual(t, attempts, 1)
	assert.Less(t, attempts, 5, "expiry is governed by elapsed time, not attempt count")

	// the last transport failure is preserved
	var expired *ExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, codes.Unavailable, status.Code(expired.Last))
}

func TestInvokeCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	alwaysDown := func(ctx context.Context, req *echoRequest) (string, error) {
		attempts++
		if attempts == 1 {
			cancel()
		}
		return "", status.Error(codes.Unavailable, "synthetic failure")
	}

	_, err := Invoke(ctx, "Test.Echo", &echoRequest{Value: "hello"}, alwaysDown, fastIdempotent())

	require.Error(t, err)
	assert.True(t, IsCancelled(err), "expected a cancellation-kind failure, got %v", err)
	assert.False(t, IsExpired(err))
	assert.Equal(t, codes.Canceled, status.Code(err))
	assert.Equal(t, 1, attempts, "no further attempt may be issued after cancellation")
}

func TestInvokePerCallOverrideWins(t *testing.T) {
	t.Parallel()

	defaults := []Option{fastIdempotent()}
	attempts := 0

	// WithNoRetry appended after the client defaults must disable retries
	_, err := Invoke(context.Background(), "Test.Echo", &echoRequest{Value: "hello"},
		failNTimes(3, codes.Unavailable, &attempts),
		Merge(defaults, []Option{WithNoRetry()})...)

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestInvokeRequestModifier(t *testing.T) {
	t.Parallel()

	var seen string
	call := func(ctx context.Context, req *echoRequest) (string, error) {
		seen = req.Value
		return req.Value, nil
	}

	resp, err := Invoke(context.Background(), "Test.Echo", &echoRequest{Value: "original"}, call,
		WithRequestModifier(func(ctx context.Context, req any) any {
			modified := *(req.(*echoRequest))
			modified.Value = "modified"
			return &modified
		}))

	require.NoError(t, err)
	assert.Equal(t, "modified", resp)
	assert.Equal(t, "modified", seen)
}

func TestInvokeAttemptTimeout(t *testing.T) {
	t.Parallel()

	var sawDeadline bool
	call := func(ctx context.Context, req *echoRequest) (string, error) {
		_, sawDeadline = ctx.Deadline()
		return req.Value, nil
	}

	_, err := Invoke(context.Background(), "Test.Echo", &echoRequest{Value: "hello"}, call,
		WithAttemptTimeout(backoff.Policy{
			Initial:    50 * time.Millisecond,
			Max:        time.Second,
			Multiplier: 2,
		}))

	require.NoError(t, err)
	assert.True(t, sawDeadline, "attempt context should carry a deadline")
}

func TestInvokeCarriesGRPCOptions(t *testing.T) {
	t.Parallel()

	var seen []grpc.CallOption
	call := func(ctx context.Context, req *echoRequest) (string, error) {
		seen = GRPCOptions(ctx)
		return req.Value, nil
	}

	_, err := Invoke(context.Background(), "Test.Echo", &echoRequest{Value: "hello"}, call,
		WithGRPCOptions(grpc.WaitForReady(true)))

	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, grpc.WaitForReady(true), seen[0])
}

func TestGRPCOptionsOutsideInvocation(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GRPCOptions(context.Background()))
}

func TestSleepInterruptedByContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestMergeDoesNotMutateDefaults(t *testing.T) {
	t.Parallel()

	defaults := make([]Option, 0, 4)
	defaults = append(defaults, WithTimeout(time.Second))

	a := Merge(defaults, []Option{WithNoRetry()})
	b := Merge(defaults, []Option{fastIdempotent()})

	assert.Len(t, defaults, 1)
	assert.Len(t, a, 2)
	assert.Len(t, b, 2)
}
