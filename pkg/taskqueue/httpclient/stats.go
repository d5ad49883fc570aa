package httpclient

import (
	"context"
	"encoding/json"
	"fmt"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// QueuesDetails is a page of queues with the filtered page count.
type QueuesDetails struct {
	schema.QueueList
	TotalPages uint64 `json:"total_pages"`
}

// QueueCounts is the global task count snapshot.
type QueueCounts struct {
	schema.Counts
	CompletedQueues   []uint64 `json:"completed_queues,omitempty"`
	CompletedLastHour uint64   `json:"completed_last_hour"`
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (q QueuesDetails) String() string {
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}

func (q QueueCounts) String() string {
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// TaskStats returns task counters over a trailing interval
// (GET /tasks-stats).
func (c *Client) TaskStats(ctx context.Context, opts ...Opt) (*schema.TaskStats, error) {
	req := client.NewRequest()

	// Apply options
	opt, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.TaskStats
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("tasks-stats"), client.OptQuery(opt.Values)); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// RecentQueues returns the most recently updated queues
// (GET /recent-queues).
func (c *Client) RecentQueues(ctx context.Context) (*schema.RecentQueueList, error) {
	req := client.NewRequest()

	// Perform request
	var response schema.RecentQueueList
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("recent-queues")); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// ListQueues returns a page of queues with task totals
// (GET /queues-details).
func (c *Client) ListQueues(ctx context.Context, opts ...Opt) (*QueuesDetails, error) {
	req := client.NewRequest()

	// Apply options
	opt, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response QueuesDetails
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("queues-details"), client.OptQuery(opt.Values)); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// QueueDetails returns the composite view of a single queue
// (GET /queue-details/{queue}).
func (c *Client) QueueDetails(ctx context.Context, queue uint64, opts ...Opt) (*schema.QueueDetail, error) {
	req := client.NewRequest()

	// Apply options
	opt, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.QueueDetail
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("queue-details", fmt.Sprint(queue)), client.OptQuery(opt.Values)); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// QueueCounts returns the global task count snapshot (GET /queue-counts).
func (c *Client) QueueCounts(ctx context.Context) (*QueueCounts, error) {
	req := client.NewRequest()

	// Perform request
	var response QueueCounts
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("queue-counts")); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}
