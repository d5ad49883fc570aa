package schema

import (
	"encoding/json"
	"strings"
	"time"

	// Packages
	pg "github.com/mutablelogic/go-pg"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type QueueId uint64

// QueueOptions are persisted with the queue and applied to tasks which do
// not set their own values.
type QueueOptions struct {
	Callback   string `json:"callback,omitempty" help:"URL called when all tasks have completed"`
	ExpiryTime *int64 `json:"expiryTime,omitempty" help:"Processing lease in milliseconds"`
}

// QueueInfo carries queue housekeeping timestamps, in milliseconds since
// the epoch.
type QueueInfo struct {
	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

type QueueMeta struct {
	Type    string        `json:"type,omitempty" arg:"" help:"Queue type"`
	Tags    []string      `json:"tags,omitempty" help:"Queue tags"`
	Options *QueueOptions `json:"options,omitempty" embed:""`
	Notes   string        `json:"notes,omitempty" help:"Free-form notes"`
}

type Queue struct {
	Id uint64 `json:"id"`
	QueueMeta
	Info QueueInfo `json:"info"`
}

// QueueCheckRequest locates a queue by identifier or, failing that, by type.
type QueueCheckRequest struct {
	Id   *uint64 `json:"id,omitempty"`
	Type string  `json:"type,omitempty"`
}

type QueueStatusRequest struct {
	Queue uint64 `json:"queue"`
}

// QueueStatus counts tasks by terminal state for a single queue.
type QueueStatus struct {
	Queue          uint64 `json:"queue"`
	TotalTasks     uint64 `json:"total_tasks"`
	CompletedTasks uint64 `json:"completed_tasks"`
	ErrorTasks     uint64 `json:"error_tasks"`
}

type QueueCompletedRequest struct {
	Queue uint64 `json:"queue"`
}

// QueueCompleted is true when every task in the queue is in a terminal
// state. A queue with no tasks counts as completed.
type QueueCompleted bool

type QueueCreated struct {
	Queue    uint64 `json:"queue"`
	NumTasks uint64 `json:"numTasks"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (q Queue) String() string {
	return stringify(q)
}

func (q QueueMeta) String() string {
	return stringify(q)
}

func (q QueueStatus) String() string {
	return stringify(q)
}

func (q QueueCreated) String() string {
	return stringify(q)
}

////////////////////////////////////////////////////////////////////////////////
// READER

// QueueId
func (q *QueueId) Scan(row pg.Row) error {
	return row.Scan((*uint64)(q))
}

// Queue
func (q *Queue) Scan(row pg.Row) error {
	return row.Scan(&q.Id, &q.Type, &q.Tags, &q.Options, &q.Info, &q.Notes)
}

// QueueStatus
func (s *QueueStatus) Scan(row pg.Row) error {
	return row.Scan(&s.TotalTasks, &s.CompletedTasks, &s.ErrorTasks)
}

// QueueCompleted
func (c *QueueCompleted) Scan(row pg.Row) error {
	return row.Scan((*bool)(c))
}

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

func (q QueueId) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if q == 0 {
		return "", Errf(CodeInvalidQueueId, "invalid queue identifier")
	} else {
		bind.Set("id", uint64(q))
	}

	switch op {
	case pg.Get:
		return bind.Replace("${taskqueue.queue-get}"), nil
	case pg.Delete:
		return bind.Replace("${taskqueue.queue-delete}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported QueueId operation %q", op)
	}
}

func (q QueueCheckRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if op != pg.Get {
		return "", httpresponse.ErrInternalError.Withf("Unsupported QueueCheckRequest operation %q", op)
	}

	// Identifier takes precedence over type
	if q.Id != nil {
		if *q.Id == 0 {
			return "", Errf(CodeInvalidQueueId, "invalid queue identifier")
		}
		bind.Set("id", *q.Id)
		return bind.Replace("${taskqueue.queue-get}"), nil
	}
	if queueType, err := queueType(q.Type); err != nil {
		return "", err
	} else {
		bind.Set("type", queueType)
	}
	return bind.Replace("${taskqueue.queue-get-type}"), nil
}

func (q QueueStatusRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if q.Queue == 0 {
		return "", Errf(CodeInvalidQueueId, "invalid queue identifier")
	} else {
		bind.Set("id", q.Queue)
	}

	switch op {
	case pg.Get:
		return bind.Replace("${taskqueue.queue-status}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported QueueStatusRequest operation %q", op)
	}
}

func (q QueueCompletedRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if q.Queue == 0 {
		return "", Errf(CodeInvalidQueueId, "invalid queue identifier")
	} else {
		bind.Set("id", q.Queue)
	}

	switch op {
	case pg.Get:
		return bind.Replace("${taskqueue.queue-completed}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported QueueCompletedRequest operation %q", op)
	}
}

////////////////////////////////////////////////////////////////////////////////
// WRITER

// Insert
func (q QueueMeta) Insert(bind *pg.Bind) (string, error) {
	// Queue type
	if queueType, err := queueType(q.Type); err != nil {
		return "", err
	} else {
		bind.Set("type", queueType)
	}

	// Tags
	tags := make([]string, 0, len(q.Tags))
	for _, tag := range q.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	bind.Set("tags", tags)

	// Options
	if err := q.Options.Validate(); err != nil {
		return "", err
	} else if data, err := json.Marshal(orEmpty(q.Options)); err != nil {
		return "", err
	} else {
		bind.Set("options", string(data))
	}

	// Info
	now := time.Now().UnixMilli()
	if data, err := json.Marshal(QueueInfo{CreatedAt: now, UpdatedAt: now}); err != nil {
		return "", err
	} else {
		bind.Set("info", string(data))
	}

	// Notes
	bind.Set("notes", q.Notes)

	// Return the insert query
	return bind.Replace("${taskqueue.queue-insert}"), nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (o *QueueOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.Callback != "" && !reCallback.MatchString(o.Callback) {
		return Errf(CodeInvalidCallbackFormat, "invalid callback url %q", o.Callback)
	}
	if o.ExpiryTime != nil && *o.ExpiryTime <= 0 {
		return Errf(CodeInvalidExpiryTime, "expiry time must be a positive number of milliseconds")
	}
	return nil
}

// ExpiryDuration returns the processing lease set on the queue, or the
// default lease when none is set.
func (o *QueueOptions) ExpiryDuration() time.Duration {
	if o == nil || o.ExpiryTime == nil {
		return DefaultExpiry
	}
	return time.Duration(*o.ExpiryTime) * time.Millisecond
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// Normalize and validate a queue type
func queueType(t string) (string, error) {
	if t = strings.ToLower(strings.TrimSpace(t)); t == "" {
		return "", Errf(CodeMissingProperty, "missing queue type")
	} else if !reQueueType.MatchString(t) {
		return "", Errf(CodeInvalidTypeFormat, "invalid queue type %q", t)
	}
	return t, nil
}

func orEmpty(o *QueueOptions) QueueOptions {
	if o == nil {
		return QueueOptions{}
	}
	return *o
}
