package taskqueue

import (
	"context"
	"errors"
	"os"
	"strconv"

	// Packages
	pg "github.com/mutablelogic/go-pg"
	logger "github.com/mutablelogic/go-server/pkg/logger"
	ref "github.com/mutablelogic/go-server/pkg/ref"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
	attribute "go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Run listens for queue completion notifications and resolves waiters on
// this instance. Completions committed by other instances are picked up
// through LISTEN/NOTIFY, so a waiter does not depend on which instance
// finalized the last task. It runs until the context is cancelled and
// should be called as a goroutine.
func (manager *Manager) Run(ctx context.Context) error {
	// Get the logger from the context
	log := ref.Log(ctx)
	if log == nil {
		log = logger.New(os.Stdout, logger.Text, false)
	}

	// Create listener for completion notifications
	listener := manager.conn.Listener()
	if listener == nil {
		return pg.ErrBadParameter.With("listener is nil")
	}
	defer listener.Close(context.Background())

	if err := listener.Listen(ctx, schema.TopicComplete); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	for {
		notification, err := listener.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		queue, err := strconv.ParseUint(string(notification.Payload), 10, 64)
		if err != nil {
			log.With("payload", string(notification.Payload)).Debug(ctx, "ignoring malformed completion notification")
			continue
		}

		// Only gather results when a local waiter is blocked on this queue
		if !manager.waiters.contains(queue) {
			continue
		}

		child, span := manager.tracer.Start(ctx, spanName("completion"),
			trace.WithAttributes(attribute.Int64("queue", int64(queue))),
		)
		if results, err := manager.Results(child, queue); err != nil {
			span.RecordError(err)
			log.With("queue", queue).Print(child, "gathering results failed: ", err)
		} else {
			manager.waiters.resolve(queue, results)
		}
		span.End()
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func spanName(op string) string {
	return schema.SchemaName + "." + op
}
