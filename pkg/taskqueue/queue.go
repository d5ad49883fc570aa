package taskqueue

import (
	"context"
	"errors"
	"time"

	// Packages
	pg "github.com/mutablelogic/go-pg"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - QUEUE

// CreateQueue creates a new queue and inserts its initial set of tasks in
// a single transaction. Either the queue and all tasks are created, or
// nothing is.
func (manager *Manager) CreateQueue(ctx context.Context, meta schema.QueueMeta, tasks []schema.TaskMeta) (*schema.QueueCreated, error) {
	if len(tasks) == 0 {
		return nil, schema.Errf(schema.CodeEmptyTasks, "no tasks to insert")
	}

	var created schema.QueueCreated
	if err := manager.conn.Tx(ctx, func(conn pg.Conn) error {
		var queueId schema.QueueId
		if err := conn.Insert(ctx, &queueId, meta); err != nil {
			return err
		}
		count, err := insertTasks(ctx, conn, uint64(queueId), tasks, meta.Options.ExpiryDuration())
		if err != nil {
			return err
		}
		created = schema.QueueCreated{Queue: uint64(queueId), NumTasks: count}
		return nil
	}); err != nil {
		return nil, err
	}

	// Return success
	return &created, nil
}

// AddTasks inserts tasks into an existing queue. The processing lease is
// taken from the request options, then the queue options, then the
// default.
func (manager *Manager) AddTasks(ctx context.Context, queue uint64, tasks []schema.TaskMeta, options *schema.QueueOptions) (uint64, error) {
	if len(tasks) == 0 {
		return 0, schema.Errf(schema.CodeEmptyTasks, "no tasks to insert")
	}
	if err := options.Validate(); err != nil {
		return 0, err
	}

	var count uint64
	if err := manager.conn.Tx(ctx, func(conn pg.Conn) error {
		var dest schema.Queue
		if err := conn.Get(ctx, &dest, schema.QueueId(queue)); errors.Is(err, pg.ErrNotFound) {
			return schema.Errf(schema.CodeQueueNotExist, "queue %d does not exist", queue)
		} else if err != nil {
			return err
		}

		// Resolve the processing lease
		expiry := dest.Options.ExpiryDuration()
		if options != nil && options.ExpiryTime != nil {
			expiry = options.ExpiryDuration()
		}

		var err error
		count, err = insertTasks(ctx, conn, queue, tasks, expiry)
		return err
	}); err != nil {
		return 0, err
	}

	// Return success
	return count, nil
}

// GetQueue returns a queue by its identifier.
func (manager *Manager) GetQueue(ctx context.Context, queue uint64) (*schema.Queue, error) {
	var dest schema.Queue
	if err := manager.conn.Get(ctx, &dest, schema.QueueId(queue)); err != nil {
		return nil, err
	}
	return &dest, nil
}

// CheckQueue locates a queue by identifier or type, and returns it.
func (manager *Manager) CheckQueue(ctx context.Context, req schema.QueueCheckRequest) (*schema.Queue, error) {
	var dest schema.Queue
	if err := manager.conn.Get(ctx, &dest, req); err != nil {
		return nil, err
	}
	return &dest, nil
}

// DeleteQueue deletes a queue and all of its tasks, and returns the
// deleted queue.
func (manager *Manager) DeleteQueue(ctx context.Context, queue uint64) (*schema.Queue, error) {
	var dest schema.Queue
	if err := manager.conn.Delete(ctx, &dest, schema.QueueId(queue)); err != nil {
		return nil, err
	}

	// Waiters on a deleted queue will never be resolved
	manager.waiters.abandon(queue)

	return &dest, nil
}

// DeleteEverything removes all queues and tasks.
func (manager *Manager) DeleteEverything(ctx context.Context) error {
	if err := manager.conn.Exec(ctx, "${taskqueue.queue-clean}"); err != nil {
		return err
	}
	manager.waiters.abandonAll()
	return nil
}

// Status returns task counts for a queue.
func (manager *Manager) Status(ctx context.Context, queue uint64) (*schema.QueueStatus, error) {
	var status schema.QueueStatus
	if err := manager.conn.Tx(ctx, func(conn pg.Conn) error {
		var dest schema.Queue
		if err := conn.Get(ctx, &dest, schema.QueueId(queue)); errors.Is(err, pg.ErrNotFound) {
			return schema.Errf(schema.CodeQueueNotExist, "queue %d does not exist", queue)
		} else if err != nil {
			return err
		}
		return conn.Get(ctx, &status, schema.QueueStatusRequest{Queue: queue})
	}); err != nil {
		return nil, err
	}
	status.Queue = queue
	return &status, nil
}

// IsCompleted returns true when every task in the queue is in a terminal
// state. A queue with no tasks counts as completed.
func (manager *Manager) IsCompleted(ctx context.Context, queue uint64) (bool, error) {
	var completed schema.QueueCompleted
	if err := manager.conn.Get(ctx, &completed, schema.QueueCompletedRequest{Queue: queue}); err != nil {
		return false, err
	}
	return bool(completed), nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// insertTasks inserts tasks in batches, with a shared lease anchored at
// insertion time. All batches run on the same transaction connection.
func insertTasks(ctx context.Context, conn pg.Conn, queue uint64, tasks []schema.TaskMeta, lease time.Duration) (uint64, error) {
	var count schema.InsertCount

	expiry := time.Now().Add(lease)
	for len(tasks) > 0 {
		batch := tasks
		if len(batch) > schema.TaskInsertBatch {
			batch = batch[:schema.TaskInsertBatch]
		}
		if err := conn.Insert(ctx, &count, schema.TaskBatch{
			Queue:  queue,
			Expiry: expiry,
			Tasks:  batch,
		}); err != nil {
			return 0, err
		}
		tasks = tasks[len(batch):]
	}

	// Return the number of inserted tasks
	return uint64(count), nil
}
