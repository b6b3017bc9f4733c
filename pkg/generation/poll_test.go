package generation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient implements Client for testing Poll.
type mockClient struct {
	startFunc   func(ctx context.Context, req StartRequest) (*StartResponse, error)
	statusFunc  func(ctx context.Context, jobID string) (*StatusResponse, error)
	confirmFunc func(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error)
}

func (m *mockClient) Start(ctx context.Context, req StartRequest) (*StartResponse, error) {
	return m.startFunc(ctx, req)
}

func (m *mockClient) Status(ctx context.Context, jobID string) (*StatusResponse, error) {
	return m.statusFunc(ctx, jobID)
}

func (m *mockClient) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	return m.confirmFunc(ctx, req)
}

func TestPoll_CompletesImmediately(t *testing.T) {
	mock := &mockClient{
		statusFunc: func(ctx context.Context, jobID string) (*StatusResponse, error) {
			return &StatusResponse{
				JobID:  jobID,
				Status: StatusCompleted,
				Data:   map[string]any{"full_name": "Jane Doe"},
			}, nil
		},
	}

	res, err := Poll(context.Background(), mock, "job-123",
		WithPollInterval(10*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, "job-123", res.JobID)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "Jane Doe", res.Data["full_name"])
}

func TestPoll_CompletesAfterRetries(t *testing.T) {
	var calls atomic.Int32
	mock := &mockClient{
		statusFunc: func(ctx context.Context, jobID string) (*StatusResponse, error) {
			n := calls.Add(1)
			if n < 3 {
				return &StatusResponse{JobID: jobID, Status: StatusProcessing}, nil
			}
			return &StatusResponse{
				JobID:  jobID,
				Status: StatusCompleted,
				Data:   map[string]any{"company_name": "Acme"},
			}, nil
		},
	}

	res, err := Poll(context.Background(), mock, "job-456",
		WithPollInterval(10*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPoll_AttemptBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	mock := &mockClient{
		statusFunc: func(ctx context.Context, jobID string) (*StatusResponse, error) {
			calls.Add(1)
			return &StatusResponse{JobID: jobID, Status: StatusPending}, nil
		},
	}

	_, err := Poll(context.Background(), mock, "job-slow",
		WithPollInterval(time.Millisecond),
		WithMaxAttempts(5),
	)
	require.Error(t, err)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "job-slow", timeoutErr.JobID)
	assert.Equal(t, 5, timeoutErr.Attempts)
	assert.Equal(t, int32(5), calls.Load())
}

func TestPoll_JobFailed(t *testing.T) {
	mock := &mockClient{
		statusFunc: func(ctx context.Context, jobID string) (*StatusResponse, error) {
			return &StatusResponse{
				JobID:  jobID,
				Status: StatusFailed,
				Error:  "profile not found",
			}, nil
		},
	}

	_, err := Poll(context.Background(), mock, "job-fail",
		WithPollInterval(10*time.Millisecond),
	)
	require.Error(t, err)

	var failedErr *JobFailedError
	require.ErrorAs(t, err, &failedErr)
	assert.Equal(t, "job-fail", failedErr.JobID)
	assert.Contains(t, failedErr.Error(), "profile not found")
}

func TestPoll_TimeoutDistinctFromFailure(t *testing.T) {
	mock := &mockClient{
		statusFunc: func(ctx context.Context, jobID string) (*StatusResponse, error) {
			return &StatusResponse{JobID: jobID, Status: StatusProcessing}, nil
		},
	}

	_, err := Poll(context.Background(), mock, "job-timeout",
		WithPollInterval(time.Millisecond),
		WithMaxAttempts(3),
	)
	require.Error(t, err)

	var failedErr *JobFailedError
	assert.False(t, errors.As(err, &failedErr), "timeout must not classify as job failure")
	var timeoutErr *TimeoutError
	assert.True(t, errors.As(err, &timeoutErr))
}

func TestPoll_TransportErrorAborts(t *testing.T) {
	var calls atomic.Int32
	mock := &mockClient{
		statusFunc: func(ctx context.Context, jobID string) (*StatusResponse, error) {
			calls.Add(1)
			return nil, &APIError{StatusCode: 500, Body: "server error"}
		},
	}

	_, err := Poll(context.Background(), mock, "job-err",
		WithPollInterval(10*time.Millisecond),
	)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "transport error must not be retried")
}

func TestPoll_ContextCancelled(t *testing.T) {
	mock := &mockClient{
		statusFunc: func(ctx context.Context, jobID string) (*StatusResponse, error) {
			return &StatusResponse{JobID: jobID, Status: StatusPending}, nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	_, err := Poll(ctx, mock, "job-cancel",
		WithPollInterval(10*time.Millisecond),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
