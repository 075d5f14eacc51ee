package calls

import (
	"context"
)

// Future is the pending result of an asynchronous invocation. It completes
// exactly once; reads after completion return the same result.
type Future[T any] struct {
	done chan struct{}
	resp T
	err  error
}

// Done is closed when the invocation has completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the invocation completes or ctx is done, whichever comes
// first. Note that the ctx passed here only bounds the wait: to stop the
// invocation itself, cancel the context it was started with.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// InvokeAsync is the non-blocking twin of Invoke. The invocation runs in its
// own goroutine; cancelling ctx stops further attempts at the next suspension
// point and completes the future with a *CancelledError. An already in-flight
// attempt is not forcibly interrupted, but no new attempt is issued after the
// cancellation fires.
func InvokeAsync[Req, Resp any](ctx context.Context, method string, req Req, call APICall[Req, Resp], opts ...Option) *Future[Resp] {
	f := &Future[Resp]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		f.resp, f.err = Invoke(ctx, method, req, call, opts...)
	}()

	return f
}
