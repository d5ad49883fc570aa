package httpclient

import (
	"context"
	"fmt"
	"net/http"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// CreateQueue creates a new queue with its initial set of tasks
// (POST /create-queue).
func (c *Client) CreateQueue(ctx context.Context, meta schema.QueueMeta, tasks []schema.TaskMeta) (*schema.QueueCreated, error) {
	payload := struct {
		schema.QueueMeta
		Tasks []schema.TaskMeta `json:"tasks"`
	}{
		QueueMeta: meta,
		Tasks:     tasks,
	}

	req, err := client.NewJSONRequest(payload)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.QueueCreated
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("create-queue")); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// AddTasks inserts tasks into an existing queue (POST /add-tasks).
func (c *Client) AddTasks(ctx context.Context, queue uint64, tasks []schema.TaskMeta, options *schema.QueueOptions) (uint64, error) {
	payload := struct {
		Queue   uint64               `json:"queue"`
		Tasks   []schema.TaskMeta    `json:"tasks"`
		Options *schema.QueueOptions `json:"options,omitempty"`
	}{
		Queue:   queue,
		Tasks:   tasks,
		Options: options,
	}

	req, err := client.NewJSONRequest(payload)
	if err != nil {
		return 0, err
	}

	// Perform request
	var response struct {
		Queue    uint64 `json:"queue"`
		NumTasks uint64 `json:"numTasks"`
	}
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("add-tasks")); err != nil {
		return 0, err
	}

	// Return the number of inserted tasks
	return response.NumTasks, nil
}

// CheckQueue locates a queue by identifier or type (POST /check-queue).
func (c *Client) CheckQueue(ctx context.Context, check schema.QueueCheckRequest) (*schema.Queue, error) {
	req, err := client.NewJSONRequest(check)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.Queue
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("check-queue")); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// DeleteQueue deletes a queue and all of its tasks
// (DELETE /delete-queue/{queue}).
func (c *Client) DeleteQueue(ctx context.Context, queue uint64) (*schema.Queue, error) {
	req := client.NewRequestEx(http.MethodDelete, "")

	// Perform request
	var response schema.Queue
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("delete-queue", fmt.Sprint(queue))); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// DeleteEverything removes all queues and tasks (DELETE /delete-everything).
func (c *Client) DeleteEverything(ctx context.Context) error {
	req := client.NewRequestEx(http.MethodDelete, "")
	return c.DoWithContext(ctx, req, nil, client.OptPath("delete-everything"))
}

// Status returns task counts for a queue (GET /status/{queue}).
func (c *Client) Status(ctx context.Context, queue uint64) (*schema.QueueStatus, error) {
	req := client.NewRequest()

	// Perform request
	var response schema.QueueStatus
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("status", fmt.Sprint(queue))); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}
