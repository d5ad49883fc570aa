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
// QUEUE TESTS

func Test_Queue_Create(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	t.Run("CreateQueue", func(t *testing.T) {
		created, err := mgr.CreateQueue(ctx, schema.QueueMeta{
			Type: "encode-video",
			Tags: []string{"media", "batch"},
		}, []schema.TaskMeta{
			{TaskId: "a", Params: json.RawMessage(`{"file":"a.mp4"}`)},
			{TaskId: "b", Params: json.RawMessage(`{"file":"b.mp4"}`)},
		})
		assert.NoError(err)
		assert.NotNil(created)
		assert.NotZero(created.Queue)
		assert.Equal(uint64(2), created.NumTasks)

		// The queue is stored with its metadata
		queue, err := mgr.GetQueue(ctx, created.Queue)
		assert.NoError(err)
		assert.Equal("encode-video", queue.Type)
		assert.ElementsMatch([]string{"media", "batch"}, queue.Tags)
		assert.NotZero(queue.Info.CreatedAt)
	})

	t.Run("TypeIsNormalized", func(t *testing.T) {
		created, err := mgr.CreateQueue(ctx, schema.QueueMeta{
			Type: "  Encode-Audio  ",
		}, []schema.TaskMeta{
			{TaskId: "a", Params: json.RawMessage(`{"file":"a.flac"}`)},
		})
		assert.NoError(err)

		queue, err := mgr.GetQueue(ctx, created.Queue)
		assert.NoError(err)
		assert.Equal("encode-audio", queue.Type)
	})

	t.Run("NoTasks", func(t *testing.T) {
		_, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "empty"}, nil)
		assert.Error(err)

		var verr *schema.ValidationError
		assert.ErrorAs(err, &verr)
		assert.Equal(schema.CodeEmptyTasks, verr.Code)
	})

	t.Run("InvalidType", func(t *testing.T) {
		_, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "not valid!"}, []schema.TaskMeta{
			{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
		})
		assert.Error(err)
	})

	t.Run("InvalidTaskRollsBackQueue", func(t *testing.T) {
		_, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "rollback"}, []schema.TaskMeta{
			{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
			{TaskId: "b", Params: json.RawMessage(`[1,2,3]`)},
		})
		assert.Error(err)

		// The queue should not have been created
		_, err = mgr.CheckQueue(ctx, schema.QueueCheckRequest{Type: "rollback"})
		assert.Error(err)
	})
}

func Test_Queue_AddTasks(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	created, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "add-tasks"}, []schema.TaskMeta{
		{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
	})
	assert.NoError(err)

	t.Run("AddTasks", func(t *testing.T) {
		n, err := mgr.AddTasks(ctx, created.Queue, []schema.TaskMeta{
			{TaskId: "b", Params: json.RawMessage(`{"k":2}`)},
			{TaskId: "c", Params: json.RawMessage(`{"k":3}`)},
		}, nil)
		assert.NoError(err)
		assert.Equal(uint64(2), n)

		status, err := mgr.Status(ctx, created.Queue)
		assert.NoError(err)
		assert.Equal(uint64(3), status.TotalTasks)
	})

	t.Run("NoTasks", func(t *testing.T) {
		_, err := mgr.AddTasks(ctx, created.Queue, nil, nil)
		assert.Error(err)

		var verr *schema.ValidationError
		assert.ErrorAs(err, &verr)
		assert.Equal(schema.CodeEmptyTasks, verr.Code)
	})

	t.Run("QueueDoesNotExist", func(t *testing.T) {
		_, err := mgr.AddTasks(ctx, 999999, []schema.TaskMeta{
			{TaskId: "x", Params: json.RawMessage(`{"k":1}`)},
		}, nil)
		assert.Error(err)

		var verr *schema.ValidationError
		assert.ErrorAs(err, &verr)
		assert.Equal(schema.CodeQueueNotExist, verr.Code)
	})

	t.Run("InvalidOptions", func(t *testing.T) {
		expiry := int64(-1)
		_, err := mgr.AddTasks(ctx, created.Queue, []schema.TaskMeta{
			{TaskId: "x", Params: json.RawMessage(`{"k":1}`)},
		}, &schema.QueueOptions{ExpiryTime: &expiry})
		assert.Error(err)

		var verr *schema.ValidationError
		assert.ErrorAs(err, &verr)
		assert.Equal(schema.CodeInvalidExpiryTime, verr.Code)
	})
}

func Test_Queue_Check(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	created, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "check-queue"}, []schema.TaskMeta{
		{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
	})
	assert.NoError(err)

	t.Run("ById", func(t *testing.T) {
		queue, err := mgr.CheckQueue(ctx, schema.QueueCheckRequest{Id: &created.Queue})
		assert.NoError(err)
		assert.Equal(created.Queue, queue.Id)
	})

	t.Run("ByType", func(t *testing.T) {
		queue, err := mgr.CheckQueue(ctx, schema.QueueCheckRequest{Type: "check-queue"})
		assert.NoError(err)
		assert.Equal("check-queue", queue.Type)
	})

	t.Run("IdTakesPrecedence", func(t *testing.T) {
		queue, err := mgr.CheckQueue(ctx, schema.QueueCheckRequest{Id: &created.Queue, Type: "does-not-exist"})
		assert.NoError(err)
		assert.Equal(created.Queue, queue.Id)
	})

	t.Run("MissingSelector", func(t *testing.T) {
		_, err := mgr.CheckQueue(ctx, schema.QueueCheckRequest{})
		assert.Error(err)
	})
}

func Test_Queue_Delete(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	t.Run("DeleteQueue", func(t *testing.T) {
		created, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "delete-queue"}, []schema.TaskMeta{
			{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
		})
		assert.NoError(err)

		deleted, err := mgr.DeleteQueue(ctx, created.Queue)
		assert.NoError(err)
		assert.Equal(created.Queue, deleted.Id)

		// Queue and its tasks are gone
		_, err = mgr.GetQueue(ctx, created.Queue)
		assert.Error(err)
	})

	t.Run("DeleteMissingQueue", func(t *testing.T) {
		_, err := mgr.DeleteQueue(ctx, 999999)
		assert.Error(err)
	})
}

func Test_Queue_Status(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	created, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "status-queue"}, []schema.TaskMeta{
		{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
		{TaskId: "b", Params: json.RawMessage(`{"k":2}`)},
	})
	assert.NoError(err)

	t.Run("InitialStatus", func(t *testing.T) {
		status, err := mgr.Status(ctx, created.Queue)
		assert.NoError(err)
		assert.Equal(created.Queue, status.Queue)
		assert.Equal(uint64(2), status.TotalTasks)
		assert.Equal(uint64(0), status.CompletedTasks)
		assert.Equal(uint64(0), status.ErrorTasks)
	})

	t.Run("NotCompleted", func(t *testing.T) {
		completed, err := mgr.IsCompleted(ctx, created.Queue)
		assert.NoError(err)
		assert.False(completed)
	})

	t.Run("CompletedAfterFinalizing", func(t *testing.T) {
		for {
			task, err := mgr.NextTask(ctx, schema.TaskClaim{Queue: created.Queue})
			assert.NoError(err)
			if task == nil {
				break
			}
			_, err = mgr.SubmitResult(ctx, schema.TaskResult{
				Id:     task.Id,
				Result: json.RawMessage(`"done"`),
			})
			assert.NoError(err)
		}

		completed, err := mgr.IsCompleted(ctx, created.Queue)
		assert.NoError(err)
		assert.True(completed)

		status, err := mgr.Status(ctx, created.Queue)
		assert.NoError(err)
		assert.Equal(uint64(2), status.CompletedTasks)
	})

	t.Run("MissingQueue", func(t *testing.T) {
		_, err := mgr.Status(ctx, 999999)
		assert.Error(err)

		var verr *schema.ValidationError
		assert.ErrorAs(err, &verr)
		assert.Equal(schema.CodeQueueNotExist, verr.Code)
	})
}

func Test_Queue_DeleteEverything(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := taskqueue.New(ctx, conn)
	assert.NoError(err)

	created, err := mgr.CreateQueue(ctx, schema.QueueMeta{Type: "wipe-queue"}, []schema.TaskMeta{
		{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
	})
	assert.NoError(err)

	t.Run("DeleteEverything", func(t *testing.T) {
		assert.NoError(mgr.DeleteEverything(ctx))

		_, err := mgr.GetQueue(ctx, created.Queue)
		assert.Error(err)
	})
}
