package taskqueue

import (
	"errors"
	"os"
	"runtime"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for manager and worker pool configuration.
type Opt func(*opts) error

type opts struct {
	name            string
	workers         int
	period          time.Duration
	longPollTimeout time.Duration
	callbackTimeout time.Duration
}

////////////////////////////////////////////////////////////////////////////////
// ERRORS

var (
	ErrInvalidWorkers = errors.New("workers must be >= 1")
	ErrInvalidPeriod  = errors.New("period must be >= 1ms")
	ErrInvalidTimeout = errors.New("timeout must be >= 1s")
)

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithWorkerName sets the worker name used to identify this worker instance.
// Defaults to the hostname if not specified.
func WithWorkerName(name string) Opt {
	return func(o *opts) error {
		o.name = name
		return nil
	}
}

// WithWorkers sets the number of concurrent workers in a worker pool.
// Returns ErrInvalidWorkers if n < 1.
func WithWorkers(n int) Opt {
	return func(o *opts) error {
		if n < 1 {
			return ErrInvalidWorkers
		}
		o.workers = n
		return nil
	}
}

// WithPeriod sets the idle polling period for a worker pool.
// Returns ErrInvalidPeriod if d < 1ms.
func WithPeriod(d time.Duration) Opt {
	return func(o *opts) error {
		if d < time.Millisecond {
			return ErrInvalidPeriod
		}
		o.period = d
		return nil
	}
}

// WithLongPollTimeout sets how long a waiter blocks for queue completion
// before giving up. Returns ErrInvalidTimeout if d < 1s.
func WithLongPollTimeout(d time.Duration) Opt {
	return func(o *opts) error {
		if d < time.Second {
			return ErrInvalidTimeout
		}
		o.longPollTimeout = d
		return nil
	}
}

// WithCallbackTimeout sets the timeout for completion callback requests.
// Returns ErrInvalidTimeout if d < 1s.
func WithCallbackTimeout(d time.Duration) Opt {
	return func(o *opts) error {
		if d < time.Second {
			return ErrInvalidTimeout
		}
		o.callbackTimeout = d
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opt []Opt) (opts, error) {
	// Get hostname
	hostname, err := os.Hostname()
	if err != nil {
		return opts{}, err
	}

	// Set defaults
	o := opts{
		name:            hostname,
		workers:         runtime.NumCPU(),
		period:          taskPeriod,
		longPollTimeout: schema.LongPollTimeout,
		callbackTimeout: 30 * time.Second,
	}

	// Apply options
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			return opts{}, err
		}
	}

	// Return success
	return o, nil
}
