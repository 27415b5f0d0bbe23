package controller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-assistant/dto"
)

func TestPollerReturnsOnCompleted(t *testing.T) {
	var calls atomic.Int32
	p := NewPoller(func(ctx context.Context, jobID string) (dto.JobStatusResponse, error) {
		if calls.Add(1) < 3 {
			return dto.JobStatusResponse{JobID: jobID, Status: dto.JobGenerating}, nil
		}
		return dto.JobStatusResponse{JobID: jobID, Status: dto.JobCompleted}, nil
	}, testInterval, 0)

	resp, err := p.Poll(context.Background(), "j-1")
	require.NoError(t, err)
	assert.Equal(t, dto.JobCompleted, resp.Status)
	assert.EqualValues(t, 3, calls.Load())
}

func TestPollerWaitsOneIntervalBeforeFirstCheck(t *testing.T) {
	interval := 50 * time.Millisecond
	start := time.Now()
	p := NewPoller(func(ctx context.Context, jobID string) (dto.JobStatusResponse, error) {
		return dto.JobStatusResponse{Status: dto.JobCompleted}, nil
	}, interval, 0)

	_, err := p.Poll(context.Background(), "j-1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), interval)
}

func TestPollerFailedStatus(t *testing.T) {
	p := NewPoller(func(ctx context.Context, jobID string) (dto.JobStatusResponse, error) {
		msg := "quota exceeded"
		return dto.JobStatusResponse{JobID: jobID, Status: dto.JobFailed, ErrorMessage: &msg}, nil
	}, testInterval, 0)

	resp, err := p.Poll(context.Background(), "j-2")
	var jobErr *JobFailedError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, "j-2", jobErr.JobID)
	assert.Equal(t, "quota exceeded", jobErr.Message)
	assert.Equal(t, dto.JobFailed, resp.Status)
	assert.EqualError(t, err, "job j-2 failed: quota exceeded")
}

func TestPollerErrorCountResetsOnSuccess(t *testing.T) {
	var calls atomic.Int32
	p := NewPoller(func(ctx context.Context, jobID string) (dto.JobStatusResponse, error) {
		switch calls.Add(1) {
		case 1, 2, 4, 5:
			return dto.JobStatusResponse{}, errors.New("timeout")
		case 3:
			return dto.JobStatusResponse{Status: dto.JobPending}, nil
		default:
			return dto.JobStatusResponse{Status: dto.JobCompleted}, nil
		}
	}, testInterval, 3)

	_, err := p.Poll(context.Background(), "j-3")
	require.NoError(t, err)
	assert.EqualValues(t, 6, calls.Load())
}

func TestPollerGivesUpAfterMaxErrors(t *testing.T) {
	var calls atomic.Int32
	cause := errors.New("connection refused")
	p := NewPoller(func(ctx context.Context, jobID string) (dto.JobStatusResponse, error) {
		calls.Add(1)
		return dto.JobStatusResponse{}, cause
	}, testInterval, 2)

	_, err := p.Poll(context.Background(), "j-4")
	require.ErrorIs(t, err, cause)
	assert.EqualValues(t, 2, calls.Load())
}

func TestPollerStopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	p := NewPoller(func(ctx context.Context, jobID string) (dto.JobStatusResponse, error) {
		calls.Add(1)
		return dto.JobStatusResponse{Status: dto.JobPending}, nil
	}, testInterval, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 8*testInterval)
	defer cancel()

	_, err := p.Poll(ctx, "j-5")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	n := calls.Load()
	time.Sleep(4 * testInterval)
	assert.Equal(t, n, calls.Load())
}

func TestNewPollerDefaultsInterval(t *testing.T) {
	p := NewPoller(nil, 0, 0)
	assert.Equal(t, DefaultPollInterval, p.interval)
}
