package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	// Packages
	pg "github.com/mutablelogic/go-pg"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// TaskMeta describes one task in an insert request. The identifier is
// chosen by the caller and carried through to the result set.
type TaskMeta struct {
	TaskId   string          `json:"taskId"`
	Params   json.RawMessage `json:"params,omitempty"`
	Priority *int64          `json:"priority,omitempty"`
}

// TaskBatch inserts a set of tasks into a queue with a shared processing
// lease, anchored at insertion time.
type TaskBatch struct {
	Queue  uint64     `json:"queue"`
	Expiry time.Time  `json:"expiry"`
	Tasks  []TaskMeta `json:"tasks"`
}

// Task is the view of a task handed to a worker when it is claimed.
type Task struct {
	Id         uint64          `json:"id"`
	TaskId     string          `json:"taskId"`
	Params     json.RawMessage `json:"params"`
	Priority   int64           `json:"priority"`
	ExpiryTime time.Time       `json:"expiry_time"`
	Queue      uint64          `json:"queue"`
	Type       string          `json:"type"`
}

// TaskClaim selects the next available task. Exactly one of Queue, Type
// or Tags must be set.
type TaskClaim struct {
	Queue  uint64   `json:"queue,omitempty"`
	Type   string   `json:"type,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Worker string   `json:"worker,omitempty"`
}

// TaskResult finalizes a task with either a result or an error payload,
// never both.
type TaskResult struct {
	Id     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// SubmitReceipt is returned when a task is finalized. The callback is the
// completion URL stored on the owning queue, if any.
type SubmitReceipt struct {
	Queue    uint64  `json:"queue"`
	Callback *string `json:"callback,omitempty"`
}

// TaskPk selects a task by its database identifier.
type TaskPk uint64

// TaskDetailRequest selects a task by its caller-assigned identifier.
type TaskDetailRequest struct {
	TaskId string `json:"taskId"`
}

// TaskDetail is the full stored state of a task.
type TaskDetail struct {
	Id         uint64          `json:"id"`
	TaskId     string          `json:"taskId"`
	Queue      uint64          `json:"queue"`
	Params     json.RawMessage `json:"params"`
	Priority   int64           `json:"priority"`
	Status     string          `json:"status"`
	StartTime  *time.Time      `json:"start_time,omitempty"`
	EndTime    *time.Time      `json:"end_time,omitempty"`
	ExpiryTime time.Time       `json:"expiry_time"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// ResultsRequest lists the results of all finalized tasks in a queue.
type ResultsRequest struct {
	Queue uint64 `json:"queue"`
}

// ResultSet maps caller-assigned task identifiers to their stored result
// envelopes.
type ResultSet map[string]json.RawMessage

// InsertCount counts rows returned by a batched insert.
type InsertCount uint64

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (t Task) String() string {
	return stringify(t)
}

func (t TaskMeta) String() string {
	return stringify(t)
}

func (t TaskDetail) String() string {
	return stringify(t)
}

func (r SubmitReceipt) String() string {
	return stringify(r)
}

////////////////////////////////////////////////////////////////////////////////
// READER

// Task
func (t *Task) Scan(row pg.Row) error {
	return row.Scan(&t.Id, &t.TaskId, &t.Params, &t.Priority, &t.ExpiryTime, &t.Queue, &t.Type)
}

// SubmitReceipt
func (r *SubmitReceipt) Scan(row pg.Row) error {
	return row.Scan(&r.Queue, &r.Callback)
}

// TaskDetail
func (t *TaskDetail) Scan(row pg.Row) error {
	return row.Scan(&t.Id, &t.TaskId, &t.Queue, &t.Params, &t.Priority, &t.Status, &t.StartTime, &t.EndTime, &t.ExpiryTime, &t.Result)
}

// ResultSet
func (r ResultSet) Scan(row pg.Row) error {
	var taskId string
	var result json.RawMessage
	if err := row.Scan(&taskId, &result); err != nil {
		return err
	}
	r[taskId] = result
	return nil
}

// InsertCount
func (c *InsertCount) Scan(row pg.Row) error {
	var id uint64
	if err := row.Scan(&id); err != nil {
		return err
	}
	*c += 1
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

func (c TaskClaim) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if op != pg.Get {
		return "", httpresponse.ErrInternalError.Withf("Unsupported TaskClaim operation %q", op)
	}

	// Exactly one selector can be set
	switch {
	case c.Queue != 0 && c.Type == "" && len(c.Tags) == 0:
		bind.Set("selector", `q2."id" = `+bind.Set("queue", c.Queue))
	case c.Queue == 0 && c.Type != "" && len(c.Tags) == 0:
		if queueType, err := queueType(c.Type); err != nil {
			return "", err
		} else {
			bind.Set("selector", `q2."type" = `+bind.Set("type", queueType))
		}
	case c.Queue == 0 && c.Type == "" && len(c.Tags) > 0:
		bind.Set("selector", `q2."tags" @> `+bind.Set("tags", c.Tags))
	default:
		return "", Errf(CodeMissingQueueId, "claim requires exactly one of queue, type or tags")
	}

	// Worker name is recorded against the task when set
	if worker := strings.TrimSpace(c.Worker); worker == "" {
		bind.Set("worker", nil)
	} else {
		bind.Set("worker", worker)
	}

	return bind.Replace("${taskqueue.task-claim}"), nil
}

func (r TaskResult) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if op != pg.Get {
		return "", httpresponse.ErrInternalError.Withf("Unsupported TaskResult operation %q", op)
	}
	if r.Id == 0 {
		return "", Errf(CodeMissingProperty, "missing task identifier")
	} else {
		bind.Set("id", r.Id)
	}

	// A task is finalized with a result or an error, never both
	var envelope map[string]json.RawMessage
	switch {
	case isSet(r.Result) && !isSet(r.Error):
		envelope = map[string]json.RawMessage{"result": r.Result}
		bind.Set("success", true)
	case isSet(r.Error) && !isSet(r.Result):
		envelope = map[string]json.RawMessage{"error": r.Error}
		bind.Set("success", false)
	default:
		return "", Errf(CodeMissingProperty, "exactly one of result or error must be set")
	}
	if data, err := json.Marshal(envelope); err != nil {
		return "", err
	} else {
		bind.Set("result", string(data))
	}

	return bind.Replace("${taskqueue.task-submit}"), nil
}

func (t TaskPk) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if t == 0 {
		return "", Errf(CodeMissingProperty, "missing task identifier")
	} else {
		bind.Set("id", uint64(t))
	}

	switch op {
	case pg.Get:
		return bind.Replace("${taskqueue.task-get}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported TaskPk operation %q", op)
	}
}

func (t TaskDetailRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if taskId := strings.TrimSpace(t.TaskId); taskId == "" {
		return "", Errf(CodeMissingProperty, "missing task identifier")
	} else {
		bind.Set("task_id", taskId)
	}

	switch op {
	case pg.Get:
		return bind.Replace("${taskqueue.task-get-external}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported TaskDetailRequest operation %q", op)
	}
}

func (r ResultsRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if r.Queue == 0 {
		return "", Errf(CodeInvalidQueueId, "invalid queue identifier")
	} else {
		bind.Set("id", r.Queue)
	}

	switch op {
	case pg.List:
		return bind.Replace("${taskqueue.task-results}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported ResultsRequest operation %q", op)
	}
}

////////////////////////////////////////////////////////////////////////////////
// WRITER

// Insert
func (b TaskBatch) Insert(bind *pg.Bind) (string, error) {
	if b.Queue == 0 {
		return "", Errf(CodeInvalidQueueId, "invalid queue identifier")
	}
	if len(b.Tasks) == 0 {
		return "", Errf(CodeEmptyTasks, "no tasks to insert")
	}

	taskIds := make([]string, 0, len(b.Tasks))
	params := make([]string, 0, len(b.Tasks))
	priorities := make([]int64, 0, len(b.Tasks))
	for i, task := range b.Tasks {
		if err := task.Validate(); err != nil {
			return "", httpresponse.ErrBadRequest.Withf("task %d: %v", i, err)
		}
		taskIds = append(taskIds, strings.TrimSpace(task.TaskId))
		params = append(params, string(task.Params))
		if task.Priority != nil {
			priorities = append(priorities, *task.Priority)
		} else {
			priorities = append(priorities, DefaultPriority)
		}
	}

	bind.Set("queue", b.Queue)
	bind.Set("expiry", b.Expiry)
	bind.Set("task_ids", taskIds)
	bind.Set("params", params)
	bind.Set("priorities", priorities)

	// Return the insert query
	return bind.Replace("${taskqueue.task-insert}"), nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// UnmarshalJSON decodes a task, reporting a stable validation code when
// the task is not a JSON object or the priority is not an integer.
func (t *TaskMeta) UnmarshalJSON(data []byte) error {
	type meta TaskMeta
	var v meta
	if err := json.Unmarshal(data, &v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if typeErr.Field == "priority" {
				return Errf(CodePriorityNotAnInteger, "priority is not an integer")
			}
			if typeErr.Field == "" {
				return Errf(CodeTaskNotAnObject, "task is not an object")
			}
		}
		return err
	}
	*t = TaskMeta(v)
	return nil
}

func (t TaskMeta) Validate() error {
	if strings.TrimSpace(t.TaskId) == "" {
		return Errf(CodeMissingProperty, "missing taskId")
	}
	if len(t.Params) == 0 || string(t.Params) == "null" {
		return Errf(CodeEmptyParams, "missing params")
	}
	var params map[string]json.RawMessage
	if err := json.Unmarshal(t.Params, &params); err != nil {
		return Errf(CodeParamsNotAnObject, "params is not an object")
	} else if len(params) == 0 {
		return Errf(CodeEmptyParams, "params is empty")
	}
	if t.Priority != nil && *t.Priority < MinPriority {
		return Errf(CodeInvalidPriority, "priority must be %d or greater", MinPriority)
	}
	return nil
}

// Terminal returns true when the task has been finalized.
func (t TaskDetail) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusError
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func isSet(data json.RawMessage) bool {
	return len(data) > 0 && string(data) != "null"
}
