package taskqueue

import (
	"context"
	"strings"

	// Packages
	pg "github.com/mutablelogic/go-pg"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
	sql "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/sql"
	otel "go.opentelemetry.io/otel"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Manager struct {
	conn    pg.PoolConn
	opts    opts
	tracer  trace.Tracer
	waiters *waiters
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new task queue manager, creating the schema, tables and
// indexes if they do not exist.
func New(ctx context.Context, conn pg.PoolConn, opt ...Opt) (*Manager, error) {
	self := new(Manager)
	self.waiters = newWaiters()
	self.tracer = otel.Tracer(schema.SchemaName)

	// Apply options
	if o, err := applyOpts(opt); err != nil {
		return nil, err
	} else {
		self.opts = o
	}

	// Parse query SQL
	queries, err := pg.NewQueries(strings.NewReader(sql.Queries))
	if err != nil {
		return nil, err
	}

	// Parse object SQL
	objects, err := pg.NewQueries(strings.NewReader(sql.Objects))
	if err != nil {
		return nil, err
	}

	// Check and set connection
	if conn == nil {
		return nil, pg.ErrBadParameter.With("connection is nil")
	} else {
		self.conn = conn.WithQueries(queries).With("schema", schema.SchemaName).With("topic", schema.TopicComplete).(pg.PoolConn)
	}

	// Execute object SQL
	for _, key := range objects.Keys() {
		if err := self.conn.Exec(ctx, objects.Get(key)); err != nil {
			return nil, err
		}
	}

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (manager *Manager) Conn() pg.PoolConn {
	return manager.conn
}

// Worker returns the name identifying this instance.
func (manager *Manager) Worker() string {
	return manager.opts.name
}
