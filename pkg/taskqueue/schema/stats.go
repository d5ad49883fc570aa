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

// StatsRequest bounds task counters to a trailing interval, expressed as
// a PostgreSQL interval such as "5 minutes" or "2 days".
type StatsRequest struct {
	Interval string `json:"interval,omitempty"`
}

// TaskStats counts tasks added and finalized within the requested
// interval. The total is over all tasks regardless of interval.
type TaskStats struct {
	TotalTasks     uint64 `json:"total_tasks"`
	AddedTasks     uint64 `json:"added_tasks"`
	PendingTasks   uint64 `json:"pending_tasks"`
	CompletedTasks uint64 `json:"completed_tasks"`
	SuccessTasks   uint64 `json:"success_tasks"`
	ErrorTasks     uint64 `json:"error_tasks"`
}

type RecentQueuesRequest struct{}

// RecentQueue summarizes a recently updated queue. Timing estimates are
// only reported once enough completed tasks have been sampled.
type RecentQueue struct {
	Id             uint64   `json:"id"`
	Type           string   `json:"type"`
	UpdatedAt      *int64   `json:"updated_at,omitempty"`
	CompletedTasks uint64   `json:"completed_tasks"`
	PendingTasks   uint64   `json:"pending_tasks"`
	AvgExecTime    *float64 `json:"avg_exec_time,omitempty"`
	EstCompletion  *float64 `json:"est_completion_time,omitempty"`
}

type RecentQueueList struct {
	Body []RecentQueue `json:"body,omitempty"`
}

// QueueListRequest pages through queues, optionally filtered by a type
// substring or a tag, and sorted by a whitelisted column.
type QueueListRequest struct {
	pg.OffsetLimit
	Search    string `json:"search,omitempty"`
	Tag       string `json:"tag,omitempty"`
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`
}

type QueueListItem struct {
	Id         uint64   `json:"id"`
	Type       string   `json:"type"`
	Tags       []string `json:"tags,omitempty"`
	CreatedAt  *int64   `json:"created_at,omitempty"`
	UpdatedAt  *int64   `json:"updated_at,omitempty"`
	TotalTasks uint64   `json:"total_tasks"`
}

type QueueList struct {
	QueueListRequest
	Count uint64          `json:"count"`
	Body  []QueueListItem `json:"body,omitempty"`
}

// TaskListRequest lists tasks in a queue, optionally filtered by status.
// Unless All is set the list is truncated to a snapshot.
type TaskListRequest struct {
	Queue  uint64 `json:"queue"`
	Status string `json:"status,omitempty"`
	All    bool   `json:"all,omitempty"`
}

type TaskListItem struct {
	Id         uint64          `json:"id"`
	TaskId     string          `json:"taskId"`
	Params     json.RawMessage `json:"params"`
	Priority   int64           `json:"priority"`
	Status     string          `json:"status"`
	StartTime  *time.Time      `json:"start_time,omitempty"`
	EndTime    *time.Time      `json:"end_time,omitempty"`
	ExpiryTime time.Time       `json:"expiry_time"`
	Result     json.RawMessage `json:"result,omitempty"`
	ExecTime   *float64        `json:"exec_time,omitempty"`
}

type TaskList struct {
	Body []TaskListItem `json:"body,omitempty"`
}

type CountsRequest struct{}

// Counts is a global snapshot over all queues.
type Counts struct {
	TotalTasks    uint64   `json:"total_tasks"`
	PendingTasks  uint64   `json:"pending_tasks"`
	OngoingQueues []uint64 `json:"ongoing_queues,omitempty"`
}

// BreakdownRequest counts tasks by status for the given queues.
type BreakdownRequest struct {
	Queues []uint64 `json:"queues"`
}

type QueueBreakdown struct {
	Id         uint64 `json:"id"`
	Type       string `json:"type"`
	Total      uint64 `json:"total"`
	Available  uint64 `json:"available"`
	Processing uint64 `json:"processing"`
	Completed  uint64 `json:"completed"`
	Error      uint64 `json:"error"`
}

type BreakdownList struct {
	Body []QueueBreakdown `json:"body,omitempty"`
}

type StatusCountsRequest struct{}

// StatusCount counts tasks in one status for one queue.
type StatusCount struct {
	Queue  uint64 `json:"queue"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Count  uint64 `json:"count"`
}

type StatusCountList struct {
	Body []StatusCount `json:"body,omitempty"`
}

type CompletedQueuesRequest struct{}

// CompletedQueues lists queues whose tasks have all been finalized.
type CompletedQueues struct {
	Body []uint64 `json:"body,omitempty"`
}

type CompletedHourRequest struct{}

// HourCount counts tasks finalized within the trailing hour.
type HourCount uint64

// QueueDetail is the composite view of a single queue.
type QueueDetail struct {
	Queue     Queue          `json:"queue"`
	Breakdown QueueBreakdown `json:"breakdown"`
	Tasks     []TaskListItem `json:"tasks,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Columns which the queue list can be sorted by
var queueSortColumns = map[string]string{
	"id":          `q."id"`,
	"type":        `q."type"`,
	"tags":        `q."tags"`,
	"created_at":  `(q."info"->>'created_at')::BIGINT`,
	"updated_at":  `(q."info"->>'updated_at')::BIGINT`,
	"total_tasks": `COUNT(t."id")`,
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (s TaskStats) String() string {
	return stringify(s)
}

func (l RecentQueueList) String() string {
	return stringify(l)
}

func (l QueueList) String() string {
	return stringify(l)
}

func (l TaskList) String() string {
	return stringify(l)
}

func (c Counts) String() string {
	return stringify(c)
}

func (l BreakdownList) String() string {
	return stringify(l)
}

func (d QueueDetail) String() string {
	return stringify(d)
}

////////////////////////////////////////////////////////////////////////////////
// READER

// TaskStats
func (s *TaskStats) Scan(row pg.Row) error {
	return row.Scan(&s.TotalTasks, &s.AddedTasks, &s.PendingTasks, &s.CompletedTasks, &s.SuccessTasks, &s.ErrorTasks)
}

// RecentQueue
func (q *RecentQueue) Scan(row pg.Row) error {
	return row.Scan(&q.Id, &q.Type, &q.UpdatedAt, &q.CompletedTasks, &q.PendingTasks, &q.AvgExecTime, &q.EstCompletion)
}

// RecentQueueList
func (l *RecentQueueList) Scan(row pg.Row) error {
	var queue RecentQueue
	if err := queue.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, queue)
	return nil
}

// QueueListItem
func (q *QueueListItem) Scan(row pg.Row) error {
	return row.Scan(&q.Id, &q.Type, &q.Tags, &q.CreatedAt, &q.UpdatedAt, &q.TotalTasks)
}

// QueueList
func (l *QueueList) Scan(row pg.Row) error {
	var item QueueListItem
	if err := item.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, item)
	return nil
}

// QueueListCount
func (l *QueueList) ScanCount(row pg.Row) error {
	return row.Scan(&l.Count)
}

// TaskListItem
func (t *TaskListItem) Scan(row pg.Row) error {
	return row.Scan(&t.Id, &t.TaskId, &t.Params, &t.Priority, &t.Status, &t.StartTime, &t.EndTime, &t.ExpiryTime, &t.Result, &t.ExecTime)
}

// TaskList
func (l *TaskList) Scan(row pg.Row) error {
	var task TaskListItem
	if err := task.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, task)
	return nil
}

// Counts
func (c *Counts) Scan(row pg.Row) error {
	return row.Scan(&c.TotalTasks, &c.PendingTasks, &c.OngoingQueues)
}

// QueueBreakdown
func (b *QueueBreakdown) Scan(row pg.Row) error {
	return row.Scan(&b.Id, &b.Type, &b.Total, &b.Available, &b.Processing, &b.Completed, &b.Error)
}

// BreakdownList
func (l *BreakdownList) Scan(row pg.Row) error {
	var breakdown QueueBreakdown
	if err := breakdown.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, breakdown)
	return nil
}

// StatusCount
func (s *StatusCount) Scan(row pg.Row) error {
	return row.Scan(&s.Queue, &s.Type, &s.Status, &s.Count)
}

// StatusCountList
func (l *StatusCountList) Scan(row pg.Row) error {
	var status StatusCount
	if err := status.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, status)
	return nil
}

// CompletedQueues
func (l *CompletedQueues) Scan(row pg.Row) error {
	var queue uint64
	if err := row.Scan(&queue); err != nil {
		return err
	}
	l.Body = append(l.Body, queue)
	return nil
}

// HourCount
func (c *HourCount) Scan(row pg.Row) error {
	return row.Scan((*uint64)(c))
}

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

func (s StatsRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	// An unbounded request covers all history
	interval := strings.TrimSpace(s.Interval)
	if interval == "" {
		interval = "5000 years"
	} else if !reInterval.MatchString(interval) {
		return "", Errf(CodeInvalidInterval, "invalid interval %q", interval)
	}
	bind.Set("interval", interval)

	switch op {
	case pg.Get:
		return bind.Replace("${taskqueue.stats-tasks}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported StatsRequest operation %q", op)
	}
}

func (r RecentQueuesRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	bind.Set("recent", RecentQueueLimit)
	bind.Set("samples", MinAvgSamples)

	switch op {
	case pg.List:
		return bind.Replace("${taskqueue.stats-recent}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported RecentQueuesRequest operation %q", op)
	}
}

func (r QueueListRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	var where []string

	// Filters. A search term matches the queue type or any of its tags
	if search := strings.TrimSpace(r.Search); search != "" {
		pattern := `'%' || ` + bind.Set("search", search) + ` || '%'`
		where = append(where, `(q."type" ILIKE `+pattern+` OR ARRAY_TO_STRING(q."tags", ' ') ILIKE `+pattern+`)`)
	}
	if tag := strings.TrimSpace(r.Tag); tag != "" {
		where = append(where, bind.Set("tag", tag)+` = ANY (q."tags")`)
	}
	if len(where) > 0 {
		bind.Set("where", "WHERE "+strings.Join(where, " AND "))
	} else {
		bind.Set("where", "")
	}

	// Sort column and direction are whitelisted
	sortBy := r.SortBy
	if sortBy == "" {
		sortBy = "id"
	}
	column, exists := queueSortColumns[sortBy]
	if !exists {
		return "", httpresponse.ErrBadRequest.Withf("invalid sort column %q", sortBy)
	}
	switch strings.ToLower(r.SortOrder) {
	case "", "asc":
		bind.Set("sort", "ORDER BY "+column+" ASC")
	case "desc":
		bind.Set("sort", "ORDER BY "+column+" DESC")
	default:
		return "", httpresponse.ErrBadRequest.Withf("invalid sort order %q", r.SortOrder)
	}

	// Pagination
	r.OffsetLimit.Bind(bind, QueueListLimit)

	switch op {
	case pg.List:
		return bind.Replace("${taskqueue.stats-queues}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported QueueListRequest operation %q", op)
	}
}

func (r TaskListRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if r.Queue == 0 {
		return "", Errf(CodeInvalidQueueId, "invalid queue identifier")
	} else {
		bind.Set("id", r.Queue)
	}

	// Status filter
	switch r.Status {
	case "":
		bind.Set("status", "")
	case StatusAvailable, StatusProcessing, StatusCompleted, StatusError:
		bind.Set("status", `AND "status" = `+bind.Set("filter", r.Status))
	default:
		return "", httpresponse.ErrBadRequest.Withf("invalid status %q", r.Status)
	}

	// Truncate to a snapshot unless all tasks are requested
	if !r.All {
		limit := uint64(TaskListLimit)
		offsetlimit := pg.OffsetLimit{Limit: &limit}
		offsetlimit.Bind(bind, TaskListLimit)
	}

	switch op {
	case pg.List:
		return bind.Replace("${taskqueue.task-list}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported TaskListRequest operation %q", op)
	}
}

func (c CountsRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	switch op {
	case pg.Get:
		return bind.Replace("${taskqueue.stats-counts}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported CountsRequest operation %q", op)
	}
}

func (b BreakdownRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	bind.Set("queues", b.Queues)

	switch op {
	case pg.List:
		return bind.Replace("${taskqueue.stats-breakdown}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported BreakdownRequest operation %q", op)
	}
}

func (s StatusCountsRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	switch op {
	case pg.List:
		return bind.Replace("${taskqueue.stats-status}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported StatusCountsRequest operation %q", op)
	}
}

func (c CompletedQueuesRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	switch op {
	case pg.List:
		return bind.Replace("${taskqueue.stats-completed-queues}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported CompletedQueuesRequest operation %q", op)
	}
}

func (c CompletedHourRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	switch op {
	case pg.Get:
		return bind.Replace("${taskqueue.stats-completed-hour}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("Unsupported CompletedHourRequest operation %q", op)
	}
}
