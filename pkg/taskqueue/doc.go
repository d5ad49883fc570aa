// Package taskqueue provides a durable task queue backed by PostgreSQL.
// Tasks are grouped into queues, claimed by workers with a processing
// lease, and finalized with a result or an error. Waiters can block until
// a queue has been fully processed, and a callback URL stored on the
// queue is invoked when the last task completes.
package taskqueue
