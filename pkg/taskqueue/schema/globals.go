package schema

import (
	"encoding/json"
	"regexp"
	"time"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	SchemaName       = "taskqueue"
	DefaultPriority  = 5                // priority assigned when a task does not set one
	DefaultExpiry    = 2 * time.Minute // processing lease when neither request nor queue set one
	MinPriority      = 1
	TaskInsertBatch  = 4096 // tasks inserted per statement in a batched insert
	TaskListLimit    = 10   // task rows returned in a queue detail view
	QueueListLimit   = 10   // queues per page in the queue detail list
	RecentQueueLimit = 11   // queues returned by the recent activity view
	MinAvgSamples    = 10   // completed tasks required before timing estimates are reported
	LongPollTimeout  = 2 * time.Minute
	TopicComplete    = "taskqueue_complete" // pg_notify topic for queue completion
)

const (
	StatusAvailable  = "available"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

var (
	reQueueType = regexp.MustCompile(`^[a-z0-9-]+$`)
	reCallback  = regexp.MustCompile(`^https?://[^\s]+$`)
	reInterval  = regexp.MustCompile(`^\d+\s+(second|minute|hour|day|week|month|year)s?$`)
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func stringify[T any](v T) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}
