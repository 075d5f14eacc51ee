// Package warehouse is the hand-written client for the Meridian warehouse
// service. Warehouse calls can shuffle a lot of data, so the retry profile is
// far more patient than the audit-log one; the two are tuned independently on
// purpose.
package warehouse

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

const servicePath = "/meridian.warehouse.v1.WarehouseService/"

// DefaultEndpoint is where the warehouse service lives.
func DefaultEndpoint() transport.Endpoint {
	return transport.Endpoint{Host: "warehouse.meridianapis.dev", Port: 443}
}

// DefaultScopes are requested for every channel to the warehouse service.
func DefaultScopes() []string {
	return []string{
		"https://auth.meridianapis.dev/warehouse",
	}
}

// CallOptions contains the call settings for each method of this client.
type CallOptions struct {
	ListDatasets []calls.Option
	GetDataset   []calls.Option
	ListTables   []calls.Option
	GetTable     []calls.Option
	InsertRows   []calls.Option
	ExportTable  []calls.Option
	GetJob       []calls.Option
}

func defaultRetryPolicy() backoff.Policy {
	return backoff.Policy{
		Initial:    100 * time.Millisecond,
		Max:        60000 * time.Millisecond,
		Multiplier: 1.3,
	}
}

func defaultCallOptions() *CallOptions {
	idempotent := []calls.Option{
		calls.WithTimeout(600000 * time.Millisecond),
		calls.WithRetry(func() backoff.Retryer {
			return backoff.Idempotent(defaultRetryPolicy())
		}),
	}
	nonIdempotent := []calls.Option{
		calls.WithTimeout(600000 * time.Millisecond),
	}

	return &CallOptions{
		ListDatasets: idempotent,
		GetDataset:   idempotent,
		ListTables:   idempotent,
		GetTable:     idempotent,
		InsertRows:   nonIdempotent,
		ExportTable:  nonIdempotent,
		GetJob:       idempotent,
	}
}

// Client is a client for the warehouse service. Safe for concurrent use;
// iterators and jobs it hands out are single-consumer.
type Client struct {
	channel transport.Channel

	// CallOptions holds the per-method defaults.
	CallOptions *CallOptions
}

// NewClient obtains a shared channel to the default endpoint from the pool
// and returns a client on top of it.
func NewClient(ctx context.Context, pool *chanpool.Pool) (*Client, error) {
	channel, err := pool.Get(ctx, DefaultEndpoint())
	if err != nil {
		return nil, err
	}

	return NewClientFromChannel(channel), nil
}

// NewClientFromChannel builds a client over a caller-owned channel.
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

// GetDataset fetches a single dataset by name.
func (c *Client) GetDataset(ctx context.Context, req *GetDatasetRequest, opts ...calls.Option) (*Dataset, error) {
	if req == nil || req.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "warehouse: dataset name is required")
	}

	return calls.Invoke(ctx, "WarehouseService.GetDataset", req,
		unary[*GetDatasetRequest, Dataset](c, "GetDataset"),
		calls.Merge(c.CallOptions.GetDataset, opts)...)
}

// GetTable fetches a single table by name.
func (c *Client) GetTable(ctx context.Context, req *GetTableRequest, opts ...calls.Option) (*Table, error) {
	if req == nil || req.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "warehouse: table name is required")
	}

	return calls.Invoke(ctx, "WarehouseService.GetTable", req,
		unary[*GetTableRequest, Table](c, "GetTable"),
		calls.Merge(c.CallOptions.GetTable, opts)...)
}

// InsertRows appends rows to a table. Not retried automatically: supply
// InsertIDs and retry explicitly if replay safety is needed.
func (c *Client) InsertRows(ctx context.Context, req *InsertRowsRequest, opts ...calls.Option) (*InsertRowsResponse, error) {
	if req == nil || req.Table == "" {
		return nil, status.Error(codes.InvalidArgument, "warehouse: table name is required")
	}
	if len(req.Rows) == 0 {
		return nil, status.Error(codes.InvalidArgument, "warehouse: at least one row is required")
	}
	if len(req.InsertIDs) > 0 && len(req.InsertIDs) != len(req.Rows) {
		return nil, status.Error(codes.InvalidArgument, "warehouse: insert IDs must be parallel to rows")
	}

	return calls.Invoke(ctx, "WarehouseService.InsertRows", req,
		unary[*InsertRowsRequest, InsertRowsResponse](c, "InsertRows"),
		calls.Merge(c.CallOptions.InsertRows, opts)...)
}

// ListDatasets returns a lazy iterator over the datasets under req.Parent.
func (c *Client) ListDatasets(req *ListDatasetsRequest, opts ...calls.Option) *paging.Iterator[*Dataset] {
	if req == nil {
		req = &ListDatasetsRequest{}
	}
	callOpts := calls.Merge(c.CallOptions.ListDatasets, opts)
	stub := unary[*ListDatasetsRequest, ListDatasetsResponse](c, "ListDatasets")

	fetch := func(ctx context.Context, pageToken string, pageSize int32) (paging.Page[*Dataset], error) {
		pageReq := *req
		pageReq.PageToken = pageToken
		pageReq.PageSize = pageSize

		resp, err := calls.Invoke(ctx, "WarehouseService.ListDatasets", &pageReq, stub, callOpts...)
		if err != nil {
			return paging.Page[*Dataset]{}, err
		}

		return paging.Page[*Dataset]{
			Items:     resp.Datasets,
			NextToken: resp.NextPageToken,
		}, nil
	}

	return paging.NewIterator(fetch,
		paging.WithPageSize(req.PageSize),
		paging.WithStartToken(req.PageToken))
}

// ListTables returns a lazy iterator over the tables under req.Parent.
func (c *Client) ListTables(req *ListTablesRequest, opts ...calls.Option) *paging.Iterator[*Table] {
	if req == nil {
		req = &ListTablesRequest{}
	}
	callOpts := calls.Merge(c.CallOptions.ListTables, opts)
	stub := unary[*ListTablesRequest, ListTablesResponse](c, "ListTables")

	fetch := func(ctx context.Context, pageToken string, pageSize int32) (paging.Page[*Table], error) {
		pageReq := *req
		pageReq.PageToken = pageToken
		pageReq.PageSize = pageSize

		resp, err := calls.Invoke(ctx, "WarehouseService.ListTables", &pageReq, stub, callOpts...)
		if err != nil {
			return paging.Page[*Table]{}, err
		}

		return paging.Page[*Table]{
			Items:     resp.Tables,
			NextToken: resp.NextPageToken,
		}, nil
	}

	return paging.NewIterator(fetch,
		paging.WithPageSize(req.PageSize),
		paging.WithStartToken(req.PageToken))
}
