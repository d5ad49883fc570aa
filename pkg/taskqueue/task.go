package taskqueue

import (
	"context"
	"errors"
	"os"

	// Packages
	pg "github.com/mutablelogic/go-pg"
	logger "github.com/mutablelogic/go-server/pkg/logger"
	ref "github.com/mutablelogic/go-server/pkg/ref"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
	attribute "go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - TASK

// NextTask claims the next available task matching the claim, and returns
// it. Tasks whose processing lease has expired are eligible to be claimed
// again. Returns nil if there is no task to claim.
func (manager *Manager) NextTask(ctx context.Context, claim schema.TaskClaim) (*schema.Task, error) {
	if claim.Worker == "" {
		claim.Worker = manager.opts.name
	}

	var task schema.Task
	if err := manager.conn.Get(ctx, &task, claim); errors.Is(err, pg.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	// Return the task
	return &task, nil
}

// SubmitResult finalizes a task with a result or an error payload, and
// returns the owning queue and its callback URL. Submitting against a
// task which has already been finalized returns a validation error with
// code TASK_FINALIZED.
func (manager *Manager) SubmitResult(ctx context.Context, result schema.TaskResult) (*schema.SubmitReceipt, error) {
	var receipt schema.SubmitReceipt
	if err := manager.conn.Tx(ctx, func(conn pg.Conn) error {
		if err := conn.Get(ctx, &receipt, result); errors.Is(err, pg.ErrNotFound) {
			// Distinguish a missing task from one already finalized
			var detail schema.TaskDetail
			if err := conn.Get(ctx, &detail, schema.TaskPk(result.Id)); err != nil {
				return err
			} else if detail.Terminal() {
				return schema.Errf(schema.CodeTaskFinalized, "task %d has already been finalized", result.Id)
			}
			return pg.ErrNotFound
		} else if err != nil {
			return err
		}

		// Record queue activity
		return conn.With("id", receipt.Queue).Exec(ctx, "${taskqueue.queue-touch}")
	}); err != nil {
		return nil, err
	}

	// Completion side effects are best-effort, after the commit. The
	// submission has been durably recorded, so a client disconnect must
	// not cancel them.
	manager.taskFinalized(context.WithoutCancel(ctx), &receipt)

	// Return success
	return &receipt, nil
}

// Results returns the results of all finalized tasks in a queue, keyed
// by the caller-assigned task identifier.
func (manager *Manager) Results(ctx context.Context, queue uint64) (schema.ResultSet, error) {
	results := schema.ResultSet{}
	if err := manager.conn.Tx(ctx, func(conn pg.Conn) error {
		var dest schema.Queue
		if err := conn.Get(ctx, &dest, schema.QueueId(queue)); err != nil {
			return err
		}
		return conn.List(ctx, results, schema.ResultsRequest{Queue: queue})
	}); err != nil {
		return nil, err
	}
	return results, nil
}

// GetTask returns the full stored state of a task by its database
// identifier.
func (manager *Manager) GetTask(ctx context.Context, task uint64) (*schema.TaskDetail, error) {
	var detail schema.TaskDetail
	if err := manager.conn.Get(ctx, &detail, schema.TaskPk(task)); err != nil {
		return nil, err
	}
	return &detail, nil
}

// LookupTask returns the full stored state of a task by its
// caller-assigned identifier.
func (manager *Manager) LookupTask(ctx context.Context, taskId string) (*schema.TaskDetail, error) {
	var detail schema.TaskDetail
	if err := manager.conn.Get(ctx, &detail, schema.TaskDetailRequest{TaskId: taskId}); err != nil {
		return nil, err
	}
	return &detail, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// taskFinalized checks whether the queue has been fully processed, and if
// so resolves waiters, notifies other instances and invokes the queue
// callback. Failures are logged, not returned, as the result submission
// has already been committed.
func (manager *Manager) taskFinalized(ctx context.Context, receipt *schema.SubmitReceipt) {
	log := ref.Log(ctx)
	if log == nil {
		log = logger.New(os.Stdout, logger.Text, false)
	}

	ctx, span := manager.tracer.Start(ctx, spanName("finalized"),
		trace.WithAttributes(attribute.Int64("queue", int64(receipt.Queue))),
	)
	defer span.End()

	completed, err := manager.IsCompleted(ctx, receipt.Queue)
	if err != nil {
		span.RecordError(err)
		log.With("queue", receipt.Queue).Print(ctx, "completion check failed: ", err)
		return
	} else if !completed {
		return
	}

	results, err := manager.Results(ctx, receipt.Queue)
	if err != nil {
		span.RecordError(err)
		log.With("queue", receipt.Queue).Print(ctx, "gathering results failed: ", err)
		return
	}

	// Resolve waiters on this instance
	manager.waiters.resolve(receipt.Queue, results)

	// Wake waiters on other instances
	if err := manager.conn.With("queue", receipt.Queue).Exec(ctx, "${taskqueue.queue-notify}"); err != nil {
		span.RecordError(err)
		log.With("queue", receipt.Queue).Print(ctx, "completion notify failed: ", err)
	}

	// The callback fires once, from the instance which finalized the
	// last task
	if receipt.Callback != nil {
		if err := manager.postCallback(ctx, *receipt.Callback, receipt.Queue, results); err != nil {
			span.RecordError(err)
			log.With("queue", receipt.Queue).Print(ctx, "completion callback failed: ", err)
		}
	}
}
