// Package auditlog is the hand-written client for the Meridian audit-log
// service. It composes the generic call layer with the service's own retry
// profile and exposes typed methods over the raw transport.
package auditlog

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/meridianhq/meridian-go/backoff"
	"github.com/meridianhq/meridian-go/calls"
	"github.com/meridianhq/meridian-go/chanpool"
	"github.com/meridianhq/meridian-go/paging"
	"github.com/meridianhq/meridian-go/transport"
)

const servicePath = "/meridian.audit.v1.AuditService/"

// DefaultEndpoint is where the audit-log service lives.
func DefaultEndpoint() transport.Endpoint {
	return transport.Endpoint{Host: "audit.meridianapis.dev", Port: 443}
}

// DefaultScopes are requested for every channel to the audit-log service.
func DefaultScopes() []string {
	return []string{
		"https://auth.meridianapis.dev/audit.read",
		"https://auth.meridianapis.dev/audit.write",
	}
}

// CallOptions contains the call settings for each method of this client.
// Mutating a slice here changes the default for every subsequent call of
// that method; per-call options passed to the methods still win.
type CallOptions struct {
	ListEntries  []calls.Option
	GetEntry     []calls.Option
	WriteEntries []calls.Option
	ListLogs     []calls.Option
	DeleteLog    []calls.Option
}

func defaultRetryPolicy() backoff.Policy {
	return backoff.Policy{
		Initial:    100 * time.Millisecond,
		Max:        1000 * time.Millisecond,
		Multiplier: 1.2,
	}
}

func defaultCallOptions() *CallOptions {
	idempotent := []calls.Option{
		calls.WithTimeout(45000 * time.Millisecond),
		calls.WithRetry(func() backoff.Retryer {
			return backoff.Idempotent(defaultRetryPolicy())
		}),
	}
	nonIdempotent := []calls.Option{
		calls.WithTimeout(45000 * time.Millisecond),
	}

	return &CallOptions{
		ListEntries:  idempotent,
		GetEntry:     idempotent,
		WriteEntries: nonIdempotent,
		ListLogs:     idempotent,
		DeleteLog:    idempotent,
	}
}

// Client is a client for the audit-log service. It is safe for concurrent
// use, with the exception of the iterators it hands out, which are
// single-consumer.
type Client struct {
	channel transport.Channel

	// CallOptions holds the per-method defaults. Exported so callers can
	// tune them after construction.
	CallOptions *CallOptions
}

// NewClient obtains a shared channel to the default endpoint from the pool
// and returns a client on top of it. The channel stays owned by the pool;
// closing the client is the pool's ShutdownAll.
func NewClient(ctx context.Context, pool *chanpool.Pool) (*Client, error) {
	channel, err := pool.Get(ctx, DefaultEndpoint())
	if err != nil {
		return nil, err
	}

	return NewClientFromChannel(channel), nil
}

// NewClientFromChannel builds a client over a caller-owned channel. The pool
// never closes channels it did not create, so the caller keeps the teardown
// responsibility.
func NewClientFromChannel(channel transport.Channel) *Client {
	return &Client{
		channel:     channel,
		CallOptions: defaultCallOptions(),
	}
}

func unary[Req, Resp any](c *Client, method string) calls.APICall[Req, *Resp] {
	fullMethod := servicePath + method

	return func(ctx context.Context, req Req) (*Resp, error) {
		resp := new(Resp)
		if err := c.channel.Invoke(ctx, fullMethod, req, resp, calls.GRPCOptions(ctx)...); err != nil {
			return nil, err
		}

		return resp, nil
	}
}

// GetEntry fetches a single entry by name.
func (c *Client) GetEntry(ctx context.Context, req *GetEntryRequest, opts ...calls.Option) (*LogEntry, error) {
	if req == nil || req.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "auditlog: entry name is required")
	}

	return calls.Invoke(ctx, "AuditService.GetEntry", req,
		unary[*GetEntryRequest, LogEntry](c, "GetEntry"),
		calls.Merge(c.CallOptions.GetEntry, opts)...)
}

// WriteEntries appends entries to a log. It is never retried automatically;
// callers that want replay must guarantee their own idempotency first.
func (c *Client) WriteEntries(ctx context.Context, req *WriteEntriesRequest, opts ...calls.Option) (*WriteEntriesResponse, error) {
	if req == nil || req.LogName == "" {
		return nil, status.Error(codes.InvalidArgument, "auditlog: log name is required")
	}
	if len(req.Entries) == 0 {
		return nil, status.Error(codes.InvalidArgument, "auditlog: at least one entry is required")
	}

	return calls.Invoke(ctx, "AuditService.WriteEntries", req,
		unary[*WriteEntriesRequest, WriteEntriesResponse](c, "WriteEntries"),
		calls.Merge(c.CallOptions.WriteEntries, opts)...)
}

// DeleteLog removes a log and all of its entries.
func (c *Client) DeleteLog(ctx context.Context, req *DeleteLogRequest, opts ...calls.Option) error {
	if req == nil || req.Name == "" {
		return status.Error(codes.InvalidArgument, "auditlog: log name is required")
	}

	_, err := calls.Invoke(ctx, "AuditService.DeleteLog", req,
		unary[*DeleteLogRequest, DeleteLogResponse](c, "DeleteLog"),
		calls.Merge(c.CallOptions.DeleteLog, opts)...)

	return err
}

// ListEntries returns a lazy iterator over the entries under req.Parent.
// Each page fetch goes through the call layer, so transient failures are
// retried per page. req.PageSize and req.PageToken seed the iterator.
func (c *Client) ListEntries(req *ListEntriesRequest, opts ...calls.Option) *paging.Iterator[*LogEntry] {
	if req == nil {
		req = &ListEntriesRequest{}
	}
	callOpts := calls.Merge(c.CallOptions.ListEntries, opts)
	stub := unary[*ListEntriesRequest, ListEntriesResponse](c, "ListEntries")

	fetch := func(ctx context.Context, pageToken string, pageSize int32) (paging.Page[*LogEntry], error) {
		pageReq := *req
		pageReq.PageToken = pageToken
		pageReq.PageSize = pageSize

		resp, err := calls.Invoke(ctx, "AuditService.ListEntries", &pageReq, stub, callOpts...)
		if err != nil {
			return paging.Page[*LogEntry]{}, err
		}

		return paging.Page[*LogEntry]{
			Items:     resp.Entries,
			NextToken: resp.NextPageToken,
		}, nil
	}

	return paging.NewIterator(fetch,
		paging.WithPageSize(req.PageSize),
		paging.WithStartToken(req.PageToken))
}

// ListLogs returns a lazy iterator over the log names under req.Parent.
func (c *Client) ListLogs(req *ListLogsRequest, opts ...calls.Option) *paging.Iterator[string] {
	if req == nil {
		req = &ListLogsRequest{}
	}
	callOpts := calls.Merge(c.CallOptions.ListLogs, opts)
	stub := unary[*ListLogsRequest, ListLogsResponse](c, "ListLogs")

	fetch := func(ctx context.Context, pageToken string, pageSize int32) (paging.Page[string], error) {
		pageReq := *req
		pageReq.PageToken = pageToken
		pageReq.PageSize = pageSize

		resp, err := calls.Invoke(ctx, "AuditService.ListLogs", &pageReq, stub, callOpts...)
		if err != nil {
			return paging.Page[string]{}, err
		}

		return paging.Page[string]{
			Items:     resp.LogNames,
			NextToken: resp.NextPageToken,
		}, nil
	}

	return paging.NewIterator(fetch,
		paging.WithPageSize(req.PageSize),
		paging.WithStartToken(req.PageToken))
}
