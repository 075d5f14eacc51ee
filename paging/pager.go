// Package paging implements lazy iteration over paged list RPCs. An iterator
// threads the server's opaque continuation token through successive fetches
// until the server signals exhaustion with an empty token.
package paging

import (
	"context"
	"errors"
	"iter"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrDone is returned by Next when the sequence has no more items. It is a
// terminal state: once returned, no further fetches are issued.
var ErrDone = errors.New("paging: no more items")

// Page is one server response worth of items plus the continuation token for
// the next one. An empty NextToken means the listing is exhausted.
type Page[T any] struct {
	Items     []T
	NextToken string
}

// Fetcher retrieves a single page. pageSize is zero when the server should
// pick its own default. Implementations are expected to go through the call
// layer so retries apply per page fetch.
type Fetcher[T any] func(ctx context.Context, pageToken string, pageSize int32) (Page[T], error)

// Option configures an iterator before its first fetch.
type Option interface {
	resolve(*config)
}

type config struct {
	pageSize   int32
	startToken string
}

type optionFunc func(*config)

func (f optionFunc) resolve(c *config) { f(c) }

// WithPageSize requests pages of the given size. Zero leaves the choice to
// the server; a negative size fails validation before any fetch is issued.
func WithPageSize(size int32) Option {
	return optionFunc(func(c *config) {
		c.pageSize = size
	})
}

// WithStartToken resumes the listing from a previously observed continuation
// token instead of the beginning.
func WithStartToken(token string) Option {
	return optionFunc(func(c *config) {
		c.startToken = token
	})
}

// Iterator is a lazy, single-pass view over the items of a paged listing.
// Pages are fetched on demand: abandoning the iterator after N items never
// costs more fetches than it took to produce those items.
//
// An Iterator is not safe for concurrent use. Callers that share one across
// goroutines must serialise their Next calls themselves.
type Iterator[T any] struct {
	fetch    Fetcher[T]
	pageSize int32

	token     string
	items     []T
	exhausted bool
	err       error
}

// NewIterator builds an iterator over fetch. Validation failures (a negative
// page size) surface from the first Next call, before any fetch happens.
func NewIterator[T any](fetch Fetcher[T], opts ...Option) *Iterator[T] {
	var cfg config
	for _, o := range opts {
		if o != nil {
			o.resolve(&cfg)
		}
	}

	it := &Iterator[T]{
		fetch:    fetch,
		pageSize: cfg.pageSize,
		token:    cfg.startToken,
	}

	if cfg.pageSize < 0 {
		it.err = status.Errorf(codes.InvalidArgument, "paging: page size must not be negative, got %d", cfg.pageSize)
	}
	if fetch == nil {
		it.err = status.Error(codes.InvalidArgument, "paging: fetcher must not be nil")
	}

	return it
}

// Next returns the next item in server order, fetching the next page when the
// buffered one runs out. It returns ErrDone once the sequence is exhausted.
// Fetch failures are sticky: iteration cannot be resumed after one, though
// items already returned remain valid.
func (it *Iterator[T]) Next(ctx context.Context) (T, error) {
	var zero T

	if it.err != nil {
		return zero, it.err
	}

	for len(it.items) == 0 {
		if it.exhausted {
			it.err = ErrDone
			return zero, ErrDone
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			it.err = ctxErr
			return zero, ctxErr
		}

		page, err := it.fetch(ctx, it.token, it.pageSize)
		if err != nil {
			it.err = err
			return zero, err
		}

		it.items = page.Items
		if page.NextToken == "" {
			it.exhausted = true
		} else {
			it.token = page.NextToken
		}
	}

	item := it.items[0]
	it.items = it.items[1:]

	return item, nil
}

// Token returns the continuation token the next fetch would use. Combined
// with WithStartToken it lets a caller checkpoint a listing and resume it in
// a later iterator.
func (it *Iterator[T]) Token() string {
	return it.token
}

// Collect drains the iterator into a slice. Mostly a convenience for tests
// and small listings; large listings should stream through Next or All
// instead.
func Collect[T any](ctx context.Context, it *Iterator[T]) ([]T, error) {
	var items []T
	for {
		item, err := it.Next(ctx)
		if errors.Is(err, ErrDone) {
			return items, nil
		}
		if err != nil {
			return items, err
		}

		items = append(items, item)
	}
}

// All returns the remaining items as a range-over-func sequence. Iteration
// stops at the first error; ErrDone itself is not surfaced, the sequence
// simply ends. Breaking out of the range early abandons the iterator without
// fetching further pages.
func (it *Iterator[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			item, err := it.Next(ctx)
			if errors.Is(err, ErrDone) {
				return
			}

			if !yield(item, err) {
				return
			}

			if err != nil {
				return
			}
		}
	}
}
