package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	cbackoff "github.com/cenkalti/backoff/v5"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/meridianhq/meridian-go/calls"
)

// errJobRunning signals the poll loop that the job has not reached a terminal
// state yet.
var errJobRunning = errors.New("warehouse: job still running")

// Poll pacing for Job.Wait. Variables so tests can tighten them.
var (
	pollInitialInterval = 1 * time.Second
	pollMaxInterval     = 30 * time.Second
)

// Job is a handle to a long-running server-side job. It is single-consumer:
// do not call Wait concurrently on the same handle.
type Job struct {
	c    *Client
	name string
}

// Name returns the fully qualified job name, which can be persisted and later
// re-attached with JobFromName.
func (j *Job) Name() string {
	return j.name
}

// JobFromName re-attaches to a job started earlier, possibly by another
// process.
func (c *Client) JobFromName(name string) *Job {
	return &Job{c: c, name: name}
}

// ExportTable starts an export job and returns a handle to it. Starting a job
// is not idempotent, so it is never retried automatically; re-attach to the
// returned job name instead of re-issuing the request.
func (c *Client) ExportTable(ctx context.Context, req *ExportTableRequest, opts ...calls.Option) (*Job, error) {
	if req == nil || req.Table == "" {
		return nil, status.Error(codes.InvalidArgument, "warehouse: table name is required")
	}
	if req.DestinationURI == "" {
		return nil, status.Error(codes.InvalidArgument, "warehouse: destination URI is required")
	}

	jobStatus, err := calls.Invoke(ctx, "WarehouseService.ExportTable", req,
		unary[*ExportTableRequest, JobStatus](c, "ExportTable"),
		calls.Merge(c.CallOptions.ExportTable, opts)...)
	if err != nil {
		return nil, err
	}

	return &Job{c: c, name: jobStatus.Name}, nil
}

// GetJob fetches the current status of a job.
func (c *Client) GetJob(ctx context.Context, req *GetJobRequest, opts ...calls.Option) (*JobStatus, error) {
	if req == nil || req.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "warehouse: job name is required")
	}

	return calls.Invoke(ctx, "WarehouseService.GetJob", req,
		unary[*GetJobRequest, JobStatus](c, "GetJob"),
		calls.Merge(c.CallOptions.GetJob, opts)...)
}

// Wait polls the job until it reaches a terminal state or ctx is done. Poll
// pacing is jittered exponential backoff, which is deliberately looser than
// the deterministic per-call retry curve: polling is about not hammering the
// job service, not about replaying a failed request.
//
// A job that terminated unsuccessfully returns its final status together with
// a non-nil error.
func (j *Job) Wait(ctx context.Context) (*JobStatus, error) {
	b := cbackoff.NewExponentialBackOff()
	b.InitialInterval = pollInitialInterval
	b.MaxInterval = pollMaxInterval
	b.Multiplier = 1.5

	final, err := cbackoff.Retry(ctx, func() (*JobStatus, error) {
		jobStatus, err := j.c.GetJob(ctx, &GetJobRequest{Name: j.name})
		if err != nil {
			// GetJob already retried transient failures internally, so
			// anything that reaches us here is final.
			return nil, cbackoff.Permanent(err)
		}

		if !jobStatus.Done {
			log.WithField("job", j.name).Trace("job not done yet")
			return nil, errJobRunning
		}

		return jobStatus, nil
	}, cbackoff.WithBackOff(b))
	if err != nil {
		return nil, err
	}

	if final.Error != "" {
		return final, fmt.Errorf("warehouse: job %v failed: %v", final.Name, final.Error)
	}

	return final, nil
}
