package controller

import (
	"context"
	"fmt"
	"time"

	"seo-assistant/cmd/internal/logger"
	"seo-assistant/dto"
)

// DefaultPollInterval is the fixed delay between job status checks.
const DefaultPollInterval = 2 * time.Second

// StatusFunc looks up the status of one job.
type StatusFunc func(ctx context.Context, jobID string) (dto.JobStatusResponse, error)

// Poller checks a job on a fixed interval until it reaches a terminal status.
type Poller struct {
	status    StatusFunc
	interval  time.Duration
	maxErrors int
}

// NewPoller creates a Poller. interval <= 0 means DefaultPollInterval; maxErrors <= 0 keeps
// polling through any number of failed status checks.
func NewPoller(status StatusFunc, interval time.Duration, maxErrors int) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{status: status, interval: interval, maxErrors: maxErrors}
}

// Poll blocks until jobID is completed or failed, or ctx is done. The first check happens one
// interval after the call. A failed job returns the response together with *JobFailedError.
func (p *Poller) Poll(ctx context.Context, jobID string) (dto.JobStatusResponse, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	consecutiveErrors := 0
	for {
		select {
		case <-ctx.Done():
			return dto.JobStatusResponse{}, ctx.Err()
		case <-ticker.C:
		}

		resp, err := p.status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return dto.JobStatusResponse{}, ctx.Err()
			}
			consecutiveErrors++
			logger.WarnWithFields("job status check failed", logger.Fields{
				"job_id":             jobID,
				"consecutive_errors": consecutiveErrors,
				"error":              err.Error(),
			})
			if p.maxErrors > 0 && consecutiveErrors >= p.maxErrors {
				return dto.JobStatusResponse{}, fmt.Errorf("job %s: giving up after %d failed status checks: %w", jobID, consecutiveErrors, err)
			}
			continue
		}
		consecutiveErrors = 0

		switch resp.Status {
		case dto.JobCompleted:
			return resp, nil
		case dto.JobFailed:
			msg := ""
			if resp.ErrorMessage != nil {
				msg = *resp.ErrorMessage
			}
			return resp, &JobFailedError{JobID: jobID, Message: msg}
		}
	}
}

// JobTask is a running poll bound to one session. It is canceled when the controller navigates
// away from that session.
type JobTask struct {
	SessionID string
	JobID     string

	cancel context.CancelFunc
	done   chan struct{}
	result dto.JobStatusResponse
	err    error
}

// Done is closed once the poll has finished and its outcome has been applied.
func (t *JobTask) Done() <-chan struct{} { return t.done }

// Cancel stops the poll. The controller ignores the outcome of a canceled task.
func (t *JobTask) Cancel() { t.cancel() }

// Wait blocks until the task finishes or ctx is done.
func (t *JobTask) Wait(ctx context.Context) (dto.JobStatusResponse, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return dto.JobStatusResponse{}, ctx.Err()
	}
}
