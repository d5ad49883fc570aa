package taskqueue

import (
	"context"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// postCallback delivers the results of a completed queue to the callback
// URL stored on the queue.
func (manager *Manager) postCallback(ctx context.Context, url string, queue uint64, results schema.ResultSet) error {
	payload := struct {
		Queue   uint64           `json:"queue"`
		Results schema.ResultSet `json:"results"`
	}{
		Queue:   queue,
		Results: results,
	}

	c, err := client.New(client.OptEndpoint(url))
	if err != nil {
		return err
	}
	req, err := client.NewJSONRequest(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, manager.opts.callbackTimeout)
	defer cancel()
	return c.DoWithContext(ctx, req, nil)
}
