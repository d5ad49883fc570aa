package taskqueue

import (
	"context"
	"errors"

	// Packages
	pg "github.com/mutablelogic/go-pg"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - STATS

// TaskStats returns task counters over a trailing interval. An empty
// interval covers all history.
func (manager *Manager) TaskStats(ctx context.Context, req schema.StatsRequest) (*schema.TaskStats, error) {
	var stats schema.TaskStats
	if err := manager.conn.Get(ctx, &stats, req); err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecentQueues returns the most recently updated queues with task counts
// and timing estimates.
func (manager *Manager) RecentQueues(ctx context.Context) (*schema.RecentQueueList, error) {
	var list schema.RecentQueueList
	if err := manager.conn.List(ctx, &list, schema.RecentQueuesRequest{}); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListQueues returns a page of queues with task totals, filtered and
// sorted according to the request.
func (manager *Manager) ListQueues(ctx context.Context, req schema.QueueListRequest) (*schema.QueueList, error) {
	var list schema.QueueList
	list.QueueListRequest = req
	if err := manager.conn.List(ctx, &list, req); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListTasks returns tasks in a queue, optionally filtered by status.
// Unless the request asks for all tasks, the list is truncated to a
// snapshot.
func (manager *Manager) ListTasks(ctx context.Context, req schema.TaskListRequest) (*schema.TaskList, error) {
	var list schema.TaskList
	if err := manager.conn.List(ctx, &list, req); err != nil {
		return nil, err
	}
	return &list, nil
}

// Counts returns a global snapshot of task counts and the queues with
// tasks currently being processed.
func (manager *Manager) Counts(ctx context.Context) (*schema.Counts, error) {
	var counts schema.Counts
	if err := manager.conn.Get(ctx, &counts, schema.CountsRequest{}); err != nil {
		return nil, err
	}
	return &counts, nil
}

// Breakdown counts tasks by status for the given queues.
func (manager *Manager) Breakdown(ctx context.Context, queues ...uint64) (*schema.BreakdownList, error) {
	var list schema.BreakdownList
	if err := manager.conn.List(ctx, &list, schema.BreakdownRequest{Queues: queues}); err != nil {
		return nil, err
	}
	return &list, nil
}

// StatusCounts counts tasks per queue and status, for metrics collection.
func (manager *Manager) StatusCounts(ctx context.Context) (*schema.StatusCountList, error) {
	var list schema.StatusCountList
	if err := manager.conn.List(ctx, &list, schema.StatusCountsRequest{}); err != nil {
		return nil, err
	}
	return &list, nil
}

// CompletedQueues lists the queues whose tasks have all been finalized.
// Queues without any tasks are not included.
func (manager *Manager) CompletedQueues(ctx context.Context) (*schema.CompletedQueues, error) {
	var list schema.CompletedQueues
	if err := manager.conn.List(ctx, &list, schema.CompletedQueuesRequest{}); err != nil {
		return nil, err
	}
	return &list, nil
}

// CompletedLastHour counts tasks finalized within the trailing hour.
func (manager *Manager) CompletedLastHour(ctx context.Context) (uint64, error) {
	var count schema.HourCount
	if err := manager.conn.Get(ctx, &count, schema.CompletedHourRequest{}); err != nil {
		return 0, err
	}
	return uint64(count), nil
}

// QueueDetail returns the composite view of a single queue: the queue
// itself, its task status breakdown and a task snapshot.
func (manager *Manager) QueueDetail(ctx context.Context, req schema.TaskListRequest) (*schema.QueueDetail, error) {
	var detail schema.QueueDetail
	if err := manager.conn.Tx(ctx, func(conn pg.Conn) error {
		if err := conn.Get(ctx, &detail.Queue, schema.QueueId(req.Queue)); errors.Is(err, pg.ErrNotFound) {
			return schema.Errf(schema.CodeQueueNotExist, "queue %d does not exist", req.Queue)
		} else if err != nil {
			return err
		}

		var breakdown schema.BreakdownList
		if err := conn.List(ctx, &breakdown, schema.BreakdownRequest{Queues: []uint64{req.Queue}}); err != nil {
			return err
		} else if len(breakdown.Body) > 0 {
			detail.Breakdown = breakdown.Body[0]
		} else {
			detail.Breakdown = schema.QueueBreakdown{Id: detail.Queue.Id, Type: detail.Queue.Type}
		}

		var tasks schema.TaskList
		if err := conn.List(ctx, &tasks, req); err != nil {
			return err
		}
		detail.Tasks = tasks.Body
		return nil
	}); err != nil {
		return nil, err
	}
	return &detail, nil
}
