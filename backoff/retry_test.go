package backoff

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestOnCodesRetriesOnlyListedCodes(t *testing.T) {
	t.Parallel()

	p := Policy{Initial: time.Millisecond, Max: time.Second, Multiplier: 2}

	tests := []struct {
		name      string
		err       error
		wantRetry bool
	}{
		{name: "listed unavailable", err: status.Error(codes.Unavailable, "down"), wantRetry: true},
		{name: "listed deadline exceeded", err: status.Error(codes.DeadlineExceeded, "slow"), wantRetry: true},
		{name: "not listed invalid argument", err: status.Error(codes.InvalidArgument, "bad"), wantRetry: false},
		{name: "not listed not found", err: status.Error(codes.NotFound, "gone"), wantRetry: false},
		{name: "plain error maps to unknown", err: errors.New("boom"), wantRetry: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := OnCodes([]codes.Code{codes.DeadlineExceeded, codes.Unavailable}, p)
			_, retry := r.Retry(tt.err)
			if retry != tt.wantRetry {
				t.Errorf("Retry(%v) retry = %v, want %v", tt.err, retry, tt.wantRetry)
			}
		})
	}
}

func TestOnCodesPausesFollowCurve(t *testing.T) {
	t.Parallel()

	p := Policy{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2}
	r := OnCodes([]codes.Code{codes.Unavailable}, p)
	transient := status.Error(codes.Unavailable, "down")

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, w := range want {
		pause, retry := r.Retry(transient)
		if !retry {
			t.Fatalf("attempt %v: expected retry", i)
		}
		if pause != w {
			t.Errorf("attempt %v: pause = %v, want %v", i, pause, w)
		}
	}

	// a non-retryable failure must not consume an attempt
	if _, retry := r.Retry(status.Error(codes.NotFound, "gone")); retry {
		t.Error("expected no retry for unlisted code")
	}
}

func TestNonIdempotentNeverRetries(t *testing.T) {
	t.Parallel()

	r := NonIdempotent()
	for _, code := range []codes.Code{
		codes.Unavailable,
		codes.DeadlineExceeded,
		codes.Internal,
		codes.Aborted,
		codes.Unknown,
	} {
		if _, retry := r.Retry(status.Error(code, "anything")); retry {
			t.Errorf("NonIdempotent retried on %v", code)
		}
	}
}

func TestIdempotentRetriesTransientCodes(t *testing.T) {
	t.Parallel()

	r := Idempotent(Policy{Initial: time.Millisecond, Max: time.Second, Multiplier: 2})

	if _, retry := r.Retry(status.Error(codes.Unavailable, "down")); !retry {
		t.Error("expected retry on Unavailable")
	}
	if _, retry := r.Retry(status.Error(codes.DeadlineExceeded, "slow")); !retry {
		t.Error("expected retry on DeadlineExceeded")
	}
	if _, retry := r.Retry(status.Error(codes.PermissionDenied, "no")); retry {
		t.Error("expected no retry on PermissionDenied")
	}
}

func TestOnCodesWithZeroPolicy(t *testing.T) {
	t.Parallel()

	r := OnCodes([]codes.Code{codes.Unavailable}, Policy{})
	pause, retry := r.Retry(status.Error(codes.Unavailable, "down"))
	if !retry {
		t.Fatal("expected retry")
	}
	if pause != 0 {
		t.Errorf("pause = %v, want 0", pause)
	}
}
