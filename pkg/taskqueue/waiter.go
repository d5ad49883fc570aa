package taskqueue

import (
	"context"
	"sync"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// waiters tracks blocked completion waiters by queue. Entries are removed
// when the waiter is resolved, abandoned, or gives up, so an abandoned
// long-poll does not leak.
type waiters struct {
	sync.Mutex
	queue map[uint64][]chan schema.ResultSet
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newWaiters() *waiters {
	return &waiters{
		queue: make(map[uint64][]chan schema.ResultSet),
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WaitForResults blocks until every task in the queue is finalized, then
// returns the queue results. Returns nil results when the wait times out
// before the queue completes.
func (manager *Manager) WaitForResults(ctx context.Context, queue uint64) (schema.ResultSet, error) {
	// Check the queue exists
	if _, err := manager.GetQueue(ctx, queue); err != nil {
		return nil, err
	}

	// Register before checking completion, so a task finalized between
	// the check and the wait cannot be missed
	ch, cancel := manager.waiters.register(queue)
	defer cancel()

	if completed, err := manager.IsCompleted(ctx, queue); err != nil {
		return nil, err
	} else if completed {
		return manager.Results(ctx, queue)
	}

	timer := time.NewTimer(manager.opts.longPollTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	case results, ok := <-ch:
		if !ok {
			// The queue was deleted while waiting
			return nil, nil
		}
		return results, nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// register adds a waiter for a queue, returning the channel the results
// will be delivered on and a cancel function which removes the waiter.
func (w *waiters) register(queue uint64) (chan schema.ResultSet, func()) {
	ch := make(chan schema.ResultSet, 1)

	w.Lock()
	w.queue[queue] = append(w.queue[queue], ch)
	w.Unlock()

	return ch, func() {
		w.Lock()
		defer w.Unlock()
		chans := w.queue[queue]
		for i, other := range chans {
			if other == ch {
				w.queue[queue] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
		if len(w.queue[queue]) == 0 {
			delete(w.queue, queue)
		}
	}
}

// resolve delivers results to all waiters for a queue.
func (w *waiters) resolve(queue uint64, results schema.ResultSet) {
	w.Lock()
	defer w.Unlock()
	for _, ch := range w.queue[queue] {
		select {
		case ch <- results:
		default:
		}
	}
	delete(w.queue, queue)
}

// contains returns true when there are waiters for a queue.
func (w *waiters) contains(queue uint64) bool {
	w.Lock()
	defer w.Unlock()
	_, exists := w.queue[queue]
	return exists
}

// abandon closes all waiters for a queue without results.
func (w *waiters) abandon(queue uint64) {
	w.Lock()
	defer w.Unlock()
	for _, ch := range w.queue[queue] {
		close(ch)
	}
	delete(w.queue, queue)
}

// abandonAll closes all waiters.
func (w *waiters) abandonAll() {
	w.Lock()
	defer w.Unlock()
	for queue, chans := range w.queue {
		for _, ch := range chans {
			close(ch)
		}
		delete(w.queue, queue)
	}
}
