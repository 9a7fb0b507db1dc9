// Package jobs drives externally submitted asynchronous analysis jobs to a
// terminal state.
//
// The external contract is submit(ref) -> jobID and poll(jobID) -> status.
// A Poller repeats poll at a fixed interval until the job succeeds or fails,
// the attempt budget is spent, the timeout elapses or ctx is cancelled.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/highlights/pkg/logger"
	"github.com/okian/highlights/pkg/metrics"
)

// Status is the state reported by an external job.
type Status string

// Job states. SUBMITTED -> IN_PROGRESS -> {SUCCEEDED, FAILED}.
const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether s ends the job.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

const defaultInterval = 5 * time.Second

// Poll reports the current status of a job, its result once it succeeded and
// an optional failure reason.
type Poll[T any] func(ctx context.Context) (Status, T, string, error)

// Poller waits for jobs at a fixed interval.
type Poller struct {
	name        string
	interval    time.Duration
	maxAttempts int
	timeout     time.Duration
	logger      logger.Logger
}

// New builds a Poller. Without WithMaxAttempts or WithTimeout the wait is
// only bounded by ctx.
func New(name string, opts ...Option) *Poller {
	p := &Poller{
		name:     name,
		interval: defaultInterval,
		logger:   logger.Get().Named("poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait polls until the job is terminal. FAILED is returned as ErrJobFailed.
func Wait[T any](ctx context.Context, p *Poller, jobID string, poll Poll[T]) (T, error) {
	var zero T
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		metrics.RecordJobPoll(p.name)
		status, result, reason, err := poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return zero, p.ctxErr(ctx, jobID)
			}
			return zero, fmt.Errorf("%s job %s: poll: %w", p.name, jobID, err)
		}

		switch status {
		case StatusSucceeded:
			p.logger.Debug(ctx, "job succeeded",
				logger.String("job", p.name), logger.String("jobID", jobID), logger.Int("attempts", attempt))
			return result, nil
		case StatusFailed:
			if reason == "" {
				reason = "no reason reported"
			}
			return zero, fmt.Errorf("%w: %s job %s: %s", ErrJobFailed, p.name, jobID, reason)
		}

		if p.maxAttempts > 0 && attempt >= p.maxAttempts {
			return zero, fmt.Errorf("%w: %s job %s after %d attempts", ErrPollExhausted, p.name, jobID, attempt)
		}

		select {
		case <-ctx.Done():
			return zero, p.ctxErr(ctx, jobID)
		case <-ticker.C:
		}
	}
}

func (p *Poller) ctxErr(ctx context.Context, jobID string) error {
	if p.timeout > 0 && ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %s job %s after %s", ErrPollTimeout, p.name, jobID, p.timeout)
	}
	return fmt.Errorf("%s job %s: %w", p.name, jobID, ctx.Err())
}
