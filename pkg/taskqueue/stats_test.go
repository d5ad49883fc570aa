package taskqueue_test

import (
	"context"
	"encoding/json"
	"testing"

	// Packages
	taskqueue "github.com/mutablelogic/go-taskqueue/pkg/taskqueue"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
	assert "github.com/stretchr/testify/assert"
)

////////////////////////////////////////////////////////////////////////////////
// STATS TESTS

func Test_Stats_Tasks(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	created, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "stats-tasks"}, []schema.TaskMeta{
		{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
		{TaskId: "b", Params: json.RawMessage(`{"k":2}`)},
	})
	assert.NoError(err)

	task, err := mgr.NextTask(ctx, schema.TaskClaim{Queue: created.Queue})
	assert.NoError(err)
	_, err = mgr.SubmitResult(ctx, schema.TaskResult{Id: task.Id, Result: json.RawMessage(`1`)})
	assert.NoError(err)

	t.Run("AllHistory", func(t *testing.T) {
		stats, err := mgr.TaskStats(ctx, schema.StatsRequest{})
		assert.NoError(err)
		assert.GreaterOrEqual(stats.TotalTasks, uint64(2))
		assert.GreaterOrEqual(stats.AddedTasks, uint64(2))
		assert.GreaterOrEqual(stats.SuccessTasks, uint64(1))
	})

	t.Run("WithInterval", func(t *testing.T) {
		stats, err := mgr.TaskStats(ctx, schema.StatsRequest{Interval: "1 hour"})
		assert.NoError(err)
		assert.GreaterOrEqual(stats.AddedTasks, uint64(2))
	})

	t.Run("InvalidInterval", func(t *testing.T) {
		_, err := mgr.TaskStats(ctx, schema.StatsRequest{Interval: "yesterday"})
		assert.Error(err)

		var verr *schema.ValidationError
		assert.ErrorAs(err, &verr)
		assert.Equal(schema.CodeInvalidInterval, verr.Code)
	})
}

func Test_Stats_Queues(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	created, err := mgr.CreateQueue(ctx, schema.QueueMeta{
		Type: "stats-queues",
		Tags: []string{"stats-tag"},
	}, []schema.TaskMeta{
		{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
	})
	assert.NoError(err)

	t.Run("ListAll", func(t *testing.T) {
		list, err := mgr.ListQueues(ctx, schema.QueueListRequest{})
		assert.NoError(err)
		assert.NotNil(list)
		assert.GreaterOrEqual(list.Count, uint64(1))
	})

	t.Run("SearchByType", func(t *testing.T) {
		list, err := mgr.ListQueues(ctx, schema.QueueListRequest{Search: "stats-que"})
		assert.NoError(err)
		assert.Equal(uint64(1), list.Count)
		assert.Len(list.Body, 1)
		assert.Equal(created.Queue, list.Body[0].Id)
		assert.Equal(uint64(1), list.Body[0].TotalTasks)
	})

	t.Run("SearchByTag", func(t *testing.T) {
		list, err := mgr.ListQueues(ctx, schema.QueueListRequest{Search: "ats-tag"})
		assert.NoError(err)
		assert.Equal(uint64(1), list.Count)
		assert.Len(list.Body, 1)
		assert.Equal(created.Queue, list.Body[0].Id)
	})

	t.Run("FilterByTag", func(t *testing.T) {
		list, err := mgr.ListQueues(ctx, schema.QueueListRequest{Tag: "stats-tag"})
		assert.NoError(err)
		assert.Equal(uint64(1), list.Count)
	})

	t.Run("SortByTags", func(t *testing.T) {
		list, err := mgr.ListQueues(ctx, schema.QueueListRequest{SortBy: "tags"})
		assert.NoError(err)
		assert.NotNil(list)
	})

	t.Run("SortDescending", func(t *testing.T) {
		list, err := mgr.ListQueues(ctx, schema.QueueListRequest{SortBy: "id", SortOrder: "desc"})
		assert.NoError(err)
		for i := 1; i < len(list.Body); i++ {
			assert.GreaterOrEqual(list.Body[i-1].Id, list.Body[i].Id)
		}
	})

	t.Run("InvalidSortColumn", func(t *testing.T) {
		_, err := mgr.ListQueues(ctx, schema.QueueListRequest{SortBy: "params"})
		assert.Error(err)
	})

	t.Run("InvalidSortOrder", func(t *testing.T) {
		_, err := mgr.ListQueues(ctx, schema.QueueListRequest{SortOrder: "sideways"})
		assert.Error(err)
	})
}

func Test_Stats_TaskList(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	tasks := make([]schema.TaskMeta, 0, 15)
	for i := 0; i < 15; i++ {
		tasks = append(tasks, schema.TaskMeta{
			TaskId: "task-" + string(rune('a'+i)),
			Params: json.RawMessage(`{"k":1}`),
		})
	}
	created, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "stats-tasklist"}, tasks)
	assert.NoError(err)

	t.Run("Snapshot", func(t *testing.T) {
		list, err := mgr.ListTasks(ctx, schema.TaskListRequest{Queue: created.Queue})
		assert.NoError(err)
		assert.Len(list.Body, schema.TaskListLimit)
	})

	t.Run("All", func(t *testing.T) {
		list, err := mgr.ListTasks(ctx, schema.TaskListRequest{Queue: created.Queue, All: true})
		assert.NoError(err)
		assert.Len(list.Body, 15)
	})

	t.Run("FilterByStatus", func(t *testing.T) {
		list, err := mgr.ListTasks(ctx, schema.TaskListRequest{
			Queue:  created.Queue,
			Status: schema.StatusCompleted,
			All:    true,
		})
		assert.NoError(err)
		assert.Empty(list.Body)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		_, err := mgr.ListTasks(ctx, schema.TaskListRequest{Queue: created.Queue, Status: "paused"})
		assert.Error(err)
	})
}

func Test_Stats_Counts(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	created, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "stats-counts"}, []schema.TaskMeta{
		{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
		{TaskId: "b", Params: json.RawMessage(`{"k":2}`)},
	})
	assert.NoError(err)

	// Claim one so the queue is ongoing
	_, err = mgr.NextTask(ctx, schema.TaskClaim{Queue: created.Queue})
	assert.NoError(err)

	t.Run("Counts", func(t *testing.T) {
		counts, err := mgr.Counts(ctx)
		assert.NoError(err)
		assert.GreaterOrEqual(counts.TotalTasks, uint64(2))
		assert.GreaterOrEqual(counts.PendingTasks, uint64(2))
		assert.Contains(counts.OngoingQueues, created.Queue)
	})

	t.Run("Breakdown", func(t *testing.T) {
		list, err := mgr.Breakdown(ctx, created.Queue)
		assert.NoError(err)
		assert.Len(list.Body, 1)
		assert.Equal(created.Queue, list.Body[0].Id)
		assert.Equal(uint64(2), list.Body[0].Total)
		assert.Equal(uint64(1), list.Body[0].Available)
		assert.Equal(uint64(1), list.Body[0].Processing)
	})

	t.Run("StatusCounts", func(t *testing.T) {
		list, err := mgr.StatusCounts(ctx)
		assert.NoError(err)
		assert.NotEmpty(list.Body)
	})
}

func Test_Stats_RecentQueues(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	created, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "stats-recent"}, []schema.TaskMeta{
		{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
	})
	assert.NoError(err)

	t.Run("RecentQueues", func(t *testing.T) {
		list, err := mgr.RecentQueues(ctx)
		assert.NoError(err)
		assert.NotEmpty(list.Body)

		var found bool
		for _, queue := range list.Body {
			if queue.Id == created.Queue {
				found = true
				assert.Equal("stats-recent", queue.Type)
				assert.Equal(uint64(1), queue.PendingTasks)

				// Not enough completed samples for estimates
				assert.Nil(queue.AvgExecTime)
				assert.Nil(queue.EstCompletion)
			}
		}
		assert.True(found)
	})
}

func Test_Stats_CompletedQueues(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	created, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "stats-completed"}, []schema.TaskMeta{
		{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
	})
	assert.NoError(err)

	task, err := mgr.NextTask(ctx, schema.TaskClaim{Queue: created.Queue})
	assert.NoError(err)
	_, err = mgr.SubmitResult(ctx, schema.TaskResult{Id: task.Id, Result: json.RawMessage(`1`)})
	assert.NoError(err)

	t.Run("CompletedQueues", func(t *testing.T) {
		completed, err := mgr.CompletedQueues(ctx)
		assert.NoError(err)
		assert.Contains(completed.Body, created.Queue)
	})

	t.Run("CompletedLastHour", func(t *testing.T) {
		count, err := mgr.CompletedLastHour(ctx)
		assert.NoError(err)
		assert.GreaterOrEqual(count, uint64(1))
	})
}

func Test_Stats_QueueDetail(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	created, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "stats-detail"}, []schema.TaskMeta{
		{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
		{TaskId: "b", Params: json.RawMessage(`{"k":2}`)},
	})
	assert.NoError(err)

	t.Run("QueueDetail", func(t *testing.T) {
		detail, err := mgr.QueueDetail(ctx, schema.TaskListRequest{Queue: created.Queue})
		assert.NoError(err)
		assert.Equal(created.Queue, detail.Queue.Id)
		assert.Equal("stats-detail", detail.Queue.Type)
		assert.Equal(uint64(2), detail.Breakdown.Total)
		assert.Len(detail.Tasks, 2)
	})

	t.Run("MissingQueue", func(t *testing.T) {
		_, err := mgr.QueueDetail(ctx, schema.TaskListRequest{Queue: 999999})
		assert.Error(err)

		var verr *schema.ValidationError
		assert.ErrorAs(err, &verr)
		assert.Equal(schema.CodeQueueNotExist, verr.Code)
	})
}
