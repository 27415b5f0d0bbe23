package controller

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a submission or fetch for the same session is still in flight.
	ErrBusy            = errors.New("a request for this session is still pending")
	ErrNoActiveSession = errors.New("no active session")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrEmptyTitle      = errors.New("title is empty")
)

// JobFailedError reports a job that reached the failed status.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("job %s failed", e.JobID)
	}
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Message)
}
