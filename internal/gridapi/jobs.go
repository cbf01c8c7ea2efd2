package gridapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/logging"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

var (
	// ErrJobFailed wraps the terminal error of a failed or cancelled job.
	ErrJobFailed = errors.New("job did not succeed")
	// ErrJobTimeout means polling stopped because the context ended, not
	// because the job finished.
	ErrJobTimeout = errors.New("timed out waiting for job")
)

// JobFilter narrows ListJobs.
type JobFilter struct {
	ListOptions
	Kind  types.JobKind
	State types.JobState
}

func (f JobFilter) query() url.Values {
	q := url.Values{}
	f.ListOptions.apply(q)
	if f.Kind != "" {
		q.Set("kind", string(f.Kind))
	}
	if f.State != "" {
		q.Set("state", string(f.State))
	}
	return q
}

func (c *Client) ListJobs(ctx context.Context, f JobFilter) ([]types.Job, types.ListMeta, error) {
	return list[types.Job](ctx, c, "/api/v2/jobs", f.query())
}

func (c *Client) GetJob(ctx context.Context, id string) (*types.Job, error) {
	var j types.Job
	if err := c.get(ctx, "/api/v2/jobs/"+url.PathEscape(id), nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// AwaitOptions tune AwaitJob polling. Zero values use the defaults.
type AwaitOptions struct {
	// PollInterval is the first wait; each subsequent wait grows by half
	// until MaxInterval.
	PollInterval time.Duration
	MaxInterval  time.Duration
	// OnProgress receives every observed job snapshot, including the
	// terminal one.
	OnProgress func(types.Job)
}

// AwaitJob polls until the job reaches a terminal state or ctx ends. The
// last observed snapshot is returned even on error, so callers can show
// partial progress.
func (c *Client) AwaitJob(ctx context.Context, id string, opts AwaitOptions) (*types.Job, error) {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	maxInterval := opts.MaxInterval
	if maxInterval < interval {
		maxInterval = 10 * time.Second
	}

	var last *types.Job
	for {
		job, err := c.GetJob(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return last, fmt.Errorf("job %s: %w: %v", id, ErrJobTimeout, ctx.Err())
			}
			return last, fmt.Errorf("poll job %s: %w", id, err)
		}
		last = job
		if opts.OnProgress != nil {
			opts.OnProgress(*job)
		}
		logging.JobsDebug("job %s %s %d%%", job.ID, job.State, job.Progress)
		if job.Done() {
			if job.Succeeded() {
				logging.Jobs("job %s (%s) succeeded", job.ID, job.Kind)
				return job, nil
			}
			reason := job.Error
			if reason == "" {
				reason = string(job.State)
			}
			logging.Jobs("job %s (%s) ended %s: %s", job.ID, job.Kind, job.State, reason)
			return job, fmt.Errorf("job %s: %w: %s", id, ErrJobFailed, reason)
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return last, fmt.Errorf("job %s: %w: %v", id, ErrJobTimeout, ctx.Err())
		case <-t.C:
		}
		interval += interval / 2
		if interval > maxInterval {
			interval = maxInterval
		}
	}
}
