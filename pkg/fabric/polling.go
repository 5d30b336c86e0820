package fabric

import (
	"context"
	"fmt"
	"time"

	"github.com/fabworks/semgen/pkg/retry"
)

// Operation statuses reported by the Fabric API.
const (
	OperationRunning   = "Running"
	OperationSucceeded = "Succeeded"
	OperationFailed    = "Failed"
)

const (
	maxPollAttempts  = 60
	initialPollDelay = 2 * time.Second
	maxPollDelay     = 30 * time.Second
)

// Operation is the state of a long-running Fabric operation.
type Operation struct {
	Status string          `json:"status"`
	Error  *OperationError `json:"error,omitempty"`
}

// OperationError is the failure detail of a long-running operation.
type OperationError struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// PollOperation polls a long-running operation until it completes. Transient
// API errors are retried within each poll; a Failed status stops immediately
// with the operation's error detail.
func (c *Client) PollOperation(ctx context.Context, operationID string) (*Operation, error) {
	delay := c.pollInitialDelay

	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		var op Operation
		err := retry.DoIfRetryable(ctx, nil, func() error {
			return c.getJSON(ctx, "operations/"+operationID, &op)
		})
		if err != nil {
			return nil, fmt.Errorf("poll operation %s: %w", operationID, err)
		}

		switch op.Status {
		case OperationSucceeded:
			return &op, nil
		case OperationFailed:
			errorCode, message := "Unknown", "No details"
			if op.Error != nil {
				errorCode, message = op.Error.ErrorCode, op.Error.Message
			}
			return nil, fmt.Errorf("operation %s failed: [%s] %s", operationID, errorCode, message)
		}

		select {
		case <-time.After(delay):
			delay *= 2
			if delay > c.pollMaxDelay {
				delay = c.pollMaxDelay
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("operation %s still running after %d polls", operationID, maxPollAttempts)
}

// OperationResult is the created item returned by a completed operation.
type OperationResult struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// GetOperationResult fetches the result of a completed operation.
func (c *Client) GetOperationResult(ctx context.Context, operationID string) (*OperationResult, error) {
	var result OperationResult
	if err := c.getJSON(ctx, "operations/"+operationID+"/result", &result); err != nil {
		return nil, fmt.Errorf("get operation %s result: %w", operationID, err)
	}
	return &result, nil
}
