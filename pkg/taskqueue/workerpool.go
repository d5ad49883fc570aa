package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	// Packages
	server "github.com/mutablelogic/go-server"
	logger "github.com/mutablelogic/go-server/pkg/logger"
	ref "github.com/mutablelogic/go-server/pkg/ref"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// TaskHandler processes one claimed task. The returned value is recorded
// as the task result; a returned error finalizes the task as failed.
type TaskHandler func(context.Context, *schema.Task) (any, error)

// WorkerPool claims tasks from queues by type and dispatches them to
// registered handlers with a concurrency limit.
type WorkerPool struct {
	manager  *Manager
	opts     opts
	handlers map[string]TaskHandler
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	taskPeriod     = 15 * time.Second        // idle polling period
	taskBusyPeriod = 100 * time.Millisecond  // polling period while tasks are flowing
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewWorkerPool creates a worker pool over a manager. Handlers are then
// registered per queue type before calling Run.
func NewWorkerPool(manager *Manager, opt ...Opt) (*WorkerPool, error) {
	self := new(WorkerPool)
	self.manager = manager
	self.handlers = make(map[string]TaskHandler)

	// Apply options
	if o, err := applyOpts(opt); err != nil {
		return nil, err
	} else {
		self.opts = o
	}

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Register associates a handler with a queue type. Registering the same
// type twice is an error.
func (pool *WorkerPool) Register(queueType string, handler TaskHandler) error {
	if handler == nil {
		return schema.Errf(schema.CodeMissingProperty, "missing handler")
	}
	if _, exists := pool.handlers[queueType]; exists {
		return schema.Errf(schema.CodeInvalidTypeFormat, "handler for %q already registered", queueType)
	}
	pool.handlers[queueType] = handler
	return nil
}

// Run claims and processes tasks until the context is cancelled. Polling
// speeds up while tasks are flowing and backs off when queues are idle.
func (pool *WorkerPool) Run(ctx context.Context) error {
	if len(pool.handlers) == 0 {
		return schema.Errf(schema.CodeMissingProperty, "no handlers registered")
	}

	// Get the logger from the context
	var log server.Logger = ref.Log(ctx)
	if log == nil {
		log = logger.New(os.Stdout, logger.Text, false)
	}

	ch := make(chan *schema.Task)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < pool.opts.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range ch {
				pool.runTask(ctx, log, task)
			}
		}()
	}

	// Poll for tasks until the context is cancelled
	delta := taskBusyPeriod
	timer := time.NewTimer(delta)
	defer timer.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-timer.C:
			claimed, err := pool.claimTasks(ctx, ch)
			if err != nil {
				close(ch)
				wg.Wait()
				return err
			}
			if claimed {
				delta = taskBusyPeriod
			} else {
				delta = pool.opts.period
			}
			timer.Reset(delta)
		}
	}

	// Drain workers
	close(ch)
	wg.Wait()
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// claimTasks claims available tasks for each registered queue type and
// hands them to the workers. Returns true if any task was claimed.
func (pool *WorkerPool) claimTasks(ctx context.Context, ch chan<- *schema.Task) (bool, error) {
	var claimed bool
	for queueType := range pool.handlers {
		for {
			task, err := pool.manager.NextTask(ctx, schema.TaskClaim{
				Type:   queueType,
				Worker: pool.opts.name,
			})
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return claimed, nil
				}
				return claimed, err
			}
			if task == nil {
				break
			}
			claimed = true
			select {
			case ch <- task:
			case <-ctx.Done():
				return claimed, nil
			}
		}
	}
	return claimed, nil
}

// runTask executes the handler for a task and submits the outcome. The
// handler context is bounded by the processing lease, so a handler which
// overruns its lease is cancelled before the task can be claimed again.
func (pool *WorkerPool) runTask(ctx context.Context, log server.Logger, task *schema.Task) {
	deadline, cancel := context.WithDeadline(ctx, task.ExpiryTime)
	defer cancel()

	result, err := pool.execHandler(deadline, task)

	submit := schema.TaskResult{Id: task.Id}
	if err != nil {
		if data, err := json.Marshal(err.Error()); err == nil {
			submit.Error = data
		} else {
			submit.Error = json.RawMessage(`"handler failed"`)
		}
	} else {
		if data, err := json.Marshal(result); err != nil {
			submit.Error = json.RawMessage(`"handler returned an unserializable result"`)
		} else {
			submit.Result = data
		}
	}

	// Submission runs on the parent context, as the lease deadline no
	// longer applies once the handler has returned
	if _, err := pool.manager.SubmitResult(ctx, submit); err != nil {
		log.With("task", task.Id).Print(ctx, "submit failed: ", err)
	}
}

// execHandler runs the handler, converting a panic into an error.
func (pool *WorkerPool) execHandler(ctx context.Context, task *schema.Task) (result any, err error) {
	handler, exists := pool.handlers[task.Type]
	if !exists {
		return nil, fmt.Errorf("no handler for queue type %q", task.Type)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, task)
}
