package httpclient

import (
	"context"
	"encoding/json"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// NextTask claims the next available task matching the claim
// (POST /next-available-task). Returns nil when no task is available.
func (c *Client) NextTask(ctx context.Context, claim schema.TaskClaim) (*schema.Task, error) {
	req, err := client.NewJSONRequest(claim)
	if err != nil {
		return nil, err
	}

	// Perform request. A queue with no claimable task responds with no
	// content, which leaves the response zeroed.
	var response schema.Task
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("next-available-task")); err != nil {
		return nil, err
	}
	if response.Id == 0 {
		return nil, nil
	}

	// Return the response
	return &response, nil
}

// SubmitResult finalizes a task with a result or an error payload
// (POST /submit-results).
func (c *Client) SubmitResult(ctx context.Context, result schema.TaskResult) (*schema.SubmitReceipt, error) {
	req, err := client.NewJSONRequest(result)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.SubmitReceipt
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("submit-results")); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// TaskDetails returns the parameters and result of a task by its
// caller-assigned identifier (POST /task-details).
func (c *Client) TaskDetails(ctx context.Context, taskId string) (json.RawMessage, json.RawMessage, error) {
	req, err := client.NewJSONRequest(schema.TaskDetailRequest{TaskId: taskId})
	if err != nil {
		return nil, nil, err
	}

	// Perform request
	var response struct {
		Params json.RawMessage `json:"params"`
		Result json.RawMessage `json:"result,omitempty"`
	}
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("task-details")); err != nil {
		return nil, nil, err
	}

	// Return the response
	return response.Params, response.Result, nil
}
