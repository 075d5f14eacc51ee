package warehouse

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/meridianhq/meridian-go/calls"
	"github.com/meridianhq/meridian-go/paging"
)

// DefaultListParallelism bounds the concurrent per-dataset listings in
// ListAllTables when the caller does not choose a value.
const DefaultListParallelism = 8

type datasetTables struct {
	dataset string
	tables  []*Table
}

// ListAllTables lists every table in every dataset under the project. The
// dataset listing itself is sequential and paged; the per-dataset table
// listings fan out with at most maxParallel in flight. The first failure
// cancels the remaining listings.
//
// The result maps dataset names to their tables. Table order within a
// dataset is the server's; dataset completion order is not defined.
func (c *Client) ListAllTables(ctx context.Context, project string, maxParallel int, opts ...calls.Option) (map[string][]*Table, error) {
	if maxParallel <= 0 {
		maxParallel = DefaultListParallelism
	}

	datasets, err := paging.Collect(ctx, c.ListDatasets(&ListDatasetsRequest{
		Parent: ProjectPath(project),
	}, opts...))
	if err != nil {
		return nil, err
	}

	p := pool.NewWithResults[datasetTables]().
		WithContext(ctx).
		WithMaxGoroutines(maxParallel).
		WithCancelOnError()

	for _, dataset := range datasets {
		name := dataset.Name
		p.Go(func(ctx context.Context) (datasetTables, error) {
			tables, err := paging.Collect(ctx, c.ListTables(&ListTablesRequest{
				Parent: name,
			}, opts...))
			if err != nil {
				return datasetTables{}, err
			}

			return datasetTables{dataset: name, tables: tables}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	byDataset := make(map[string][]*Table, len(results))
	for _, r := range results {
		byDataset[r.dataset] = r.tables
	}

	return byDataset, nil
}
