package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxAttempts  = 60
)

// JobFailedError reports that the server explicitly marked the job as
// failed. Retrying the same job is pointless; a fresh Start is required.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation: job %s failed", e.JobID)
	}
	return fmt.Sprintf("generation: job %s failed: %s", e.JobID, e.Message)
}

// TimeoutError reports that the attempt budget was exhausted without the
// job reaching a terminal status. The job may still complete server-side,
// so callers should suggest trying again rather than treating the
// generation as failed.
type TimeoutError struct {
	JobID    string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation: job %s still not terminal after %d polls", e.JobID, e.Attempts)
}

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval    time.Duration
	maxAttempts int
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		interval:    defaultPollInterval,
		maxAttempts: defaultMaxAttempts,
	}
}

// WithPollInterval overrides the fixed interval between status queries.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithMaxAttempts overrides the attempt budget.
func WithMaxAttempts(n int) PollOption {
	return func(c *pollConfig) {
		c.maxAttempts = n
	}
}

// PollResult is returned by Poll when the job completes.
type PollResult struct {
	JobID         string
	Attempts      int
	Data          map[string]any
	Provenance    map[string]FieldProvenance
	MissingFields []string
}

// Poll queries job status at a fixed interval until a terminal status is
// observed or the attempt budget runs out. Requests are strictly
// sequential: a new query is never issued before the previous one
// resolves, so a stale "processing" can never be read after a
// "completed".
//
// A transport error on any query aborts the run; only non-terminal
// status values are retried. Budget exhaustion yields a *TimeoutError,
// an explicit server-side failure a *JobFailedError.
func Poll(ctx context.Context, client Client, jobID string, opts ...PollOption) (*PollResult, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		status, err := client.Status(ctx, jobID)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("generation: poll job %s (attempt %d)", jobID, attempt))
		}

		switch status.Status {
		case StatusCompleted:
			return &PollResult{
				JobID:         jobID,
				Attempts:      attempt,
				Data:          status.Data,
				Provenance:    status.Provenance,
				MissingFields: status.MissingFields,
			}, nil
		case StatusFailed:
			return nil, &JobFailedError{JobID: jobID, Message: status.Error}
		}

		if attempt == cfg.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("generation: poll job %s cancelled", jobID))
		case <-time.After(cfg.interval):
		}
	}

	return nil, &TimeoutError{JobID: jobID, Attempts: cfg.maxAttempts}
}
