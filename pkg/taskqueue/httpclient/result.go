package httpclient

import (
	"context"
	"fmt"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// GetResults returns the results of all finalized tasks in a queue
// (GET /get-results/{queue}). Returns an empty set when no task has been
// finalized yet.
func (c *Client) GetResults(ctx context.Context, queue uint64) (schema.ResultSet, error) {
	req := client.NewRequest()

	// Perform request
	response := schema.ResultSet{}
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("get-results", fmt.Sprint(queue))); err != nil {
		return nil, err
	}

	// Return the response
	return response, nil
}

// WaitForResults blocks until every task in the queue has been finalized
// and returns the results (GET /completed-results/{queue}). Returns nil
// when the server timed out before the queue completed.
func (c *Client) WaitForResults(ctx context.Context, queue uint64) (schema.ResultSet, error) {
	req := client.NewRequest()

	// Perform request
	response := schema.ResultSet{}
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("completed-results", fmt.Sprint(queue))); err != nil {
		return nil, err
	}
	if len(response) == 0 {
		return nil, nil
	}

	// Return the response
	return response, nil
}
