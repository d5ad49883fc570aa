package schema_test

import (
	"encoding/json"
	"testing"
	"time"

	// Packages
	pg "github.com/mutablelogic/go-pg"
	schema "github.com/mutablelogic/go-taskqueue/pkg/taskqueue/schema"
	assert "github.com/stretchr/testify/assert"
)

////////////////////////////////////////////////////////////////////////////////
// TASK VALIDATION TESTS

func Test_TaskMeta_Validate(t *testing.T) {
	assert := assert.New(t)

	code := func(err error) string {
		var verr *schema.ValidationError
		if assert.ErrorAs(err, &verr) {
			return verr.Code
		}
		return ""
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(schema.TaskMeta{
			TaskId: "a",
			Params: json.RawMessage(`{"k":1}`),
		}.Validate())
	})

	t.Run("MissingTaskId", func(t *testing.T) {
		err := schema.TaskMeta{Params: json.RawMessage(`{"k":1}`)}.Validate()
		assert.Equal(schema.CodeMissingProperty, code(err))
	})

	t.Run("MissingParams", func(t *testing.T) {
		err := schema.TaskMeta{TaskId: "a"}.Validate()
		assert.Equal(schema.CodeEmptyParams, code(err))
	})

	t.Run("NullParams", func(t *testing.T) {
		err := schema.TaskMeta{TaskId: "a", Params: json.RawMessage(`null`)}.Validate()
		assert.Equal(schema.CodeEmptyParams, code(err))
	})

	t.Run("ParamsNotAnObject", func(t *testing.T) {
		err := schema.TaskMeta{TaskId: "a", Params: json.RawMessage(`[1,2]`)}.Validate()
		assert.Equal(schema.CodeParamsNotAnObject, code(err))
	})

	t.Run("EmptyObject", func(t *testing.T) {
		err := schema.TaskMeta{TaskId: "a", Params: json.RawMessage(`{}`)}.Validate()
		assert.Equal(schema.CodeEmptyParams, code(err))
	})

	t.Run("PriorityValid", func(t *testing.T) {
		for _, priority := range []int64{schema.MinPriority, 5, 11, 100} {
			p := priority
			assert.NoError(schema.TaskMeta{
				TaskId:   "a",
				Params:   json.RawMessage(`{"k":1}`),
				Priority: &p,
			}.Validate())
		}
	})

	t.Run("PriorityNotPositive", func(t *testing.T) {
		for _, priority := range []int64{0, -1} {
			p := priority
			err := schema.TaskMeta{
				TaskId:   "a",
				Params:   json.RawMessage(`{"k":1}`),
				Priority: &p,
			}.Validate()
			assert.Equal(schema.CodeInvalidPriority, code(err))
		}
	})
}

func Test_TaskMeta_Unmarshal(t *testing.T) {
	assert := assert.New(t)

	t.Run("Object", func(t *testing.T) {
		var task schema.TaskMeta
		assert.NoError(json.Unmarshal([]byte(`{"taskId":"a","params":{"k":1},"priority":3}`), &task))
		assert.Equal("a", task.TaskId)
		assert.Equal(int64(3), *task.Priority)
	})

	t.Run("NotAnObject", func(t *testing.T) {
		for _, data := range []string{`[1,2]`, `"task"`, `42`} {
			var task schema.TaskMeta
			err := json.Unmarshal([]byte(data), &task)
			assert.Equal(schema.CodeTaskNotAnObject, code(err), data)
		}
	})

	t.Run("PriorityNotAnInteger", func(t *testing.T) {
		var task schema.TaskMeta
		err := json.Unmarshal([]byte(`{"taskId":"a","params":{"k":1},"priority":"high"}`), &task)
		assert.Equal(schema.CodePriorityNotAnInteger, code(err))
	})
}

////////////////////////////////////////////////////////////////////////////////
// TASK SELECTOR TESTS

func Test_TaskClaim_Select(t *testing.T) {
	assert := assert.New(t)

	t.Run("ByQueue", func(t *testing.T) {
		_, err := schema.TaskClaim{Queue: 1}.Select(pg.NewBind(), pg.Get)
		assert.NoError(err)
	})

	t.Run("ByType", func(t *testing.T) {
		_, err := schema.TaskClaim{Type: "encode-video"}.Select(pg.NewBind(), pg.Get)
		assert.NoError(err)
	})

	t.Run("ByTags", func(t *testing.T) {
		_, err := schema.TaskClaim{Tags: []string{"gpu"}}.Select(pg.NewBind(), pg.Get)
		assert.NoError(err)
	})

	t.Run("NoSelector", func(t *testing.T) {
		_, err := schema.TaskClaim{}.Select(pg.NewBind(), pg.Get)
		assert.Error(err)

		var verr *schema.ValidationError
		assert.ErrorAs(err, &verr)
		assert.Equal(schema.CodeMissingQueueId, verr.Code)
	})

	t.Run("MultipleSelectors", func(t *testing.T) {
		_, err := schema.TaskClaim{Queue: 1, Type: "encode-video"}.Select(pg.NewBind(), pg.Get)
		assert.Error(err)
	})

	t.Run("InvalidType", func(t *testing.T) {
		_, err := schema.TaskClaim{Type: "not valid!"}.Select(pg.NewBind(), pg.Get)
		assert.Error(err)
	})

	t.Run("UnsupportedOp", func(t *testing.T) {
		_, err := schema.TaskClaim{Queue: 1}.Select(pg.NewBind(), pg.List)
		assert.Error(err)
	})
}

func Test_TaskResult_Select(t *testing.T) {
	assert := assert.New(t)

	t.Run("WithResult", func(t *testing.T) {
		_, err := schema.TaskResult{Id: 1, Result: json.RawMessage(`{"k":1}`)}.Select(pg.NewBind(), pg.Get)
		assert.NoError(err)
	})

	t.Run("WithError", func(t *testing.T) {
		_, err := schema.TaskResult{Id: 1, Error: json.RawMessage(`"failed"`)}.Select(pg.NewBind(), pg.Get)
		assert.NoError(err)
	})

	t.Run("MissingId", func(t *testing.T) {
		_, err := schema.TaskResult{Result: json.RawMessage(`1`)}.Select(pg.NewBind(), pg.Get)
		assert.Error(err)
	})

	t.Run("Neither", func(t *testing.T) {
		_, err := schema.TaskResult{Id: 1}.Select(pg.NewBind(), pg.Get)
		assert.Error(err)
	})

	t.Run("NullIsNotSet", func(t *testing.T) {
		_, err := schema.TaskResult{
			Id:     1,
			Result: json.RawMessage(`null`),
			Error:  json.RawMessage(`null`),
		}.Select(pg.NewBind(), pg.Get)
		assert.Error(err)
	})

	t.Run("Both", func(t *testing.T) {
		_, err := schema.TaskResult{
			Id:     1,
			Result: json.RawMessage(`1`),
			Error:  json.RawMessage(`"failed"`),
		}.Select(pg.NewBind(), pg.Get)
		assert.Error(err)
	})
}

////////////////////////////////////////////////////////////////////////////////
// TASK BATCH TESTS

func Test_TaskBatch_Insert(t *testing.T) {
	assert := assert.New(t)

	t.Run("Valid", func(t *testing.T) {
		_, err := schema.TaskBatch{
			Queue:  1,
			Expiry: time.Now().Add(time.Minute),
			Tasks: []schema.TaskMeta{
				{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
			},
		}.Insert(pg.NewBind())
		assert.NoError(err)
	})

	t.Run("MissingQueue", func(t *testing.T) {
		_, err := schema.TaskBatch{
			Tasks: []schema.TaskMeta{
				{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
			},
		}.Insert(pg.NewBind())
		assert.Error(err)
	})

	t.Run("NoTasks", func(t *testing.T) {
		_, err := schema.TaskBatch{Queue: 1}.Insert(pg.NewBind())
		assert.Error(err)
	})

	t.Run("InvalidTask", func(t *testing.T) {
		_, err := schema.TaskBatch{
			Queue: 1,
			Tasks: []schema.TaskMeta{
				{TaskId: "a", Params: json.RawMessage(`{"k":1}`)},
				{TaskId: "b", Params: json.RawMessage(`[]`)},
			},
		}.Insert(pg.NewBind())
		assert.Error(err)
	})
}

////////////////////////////////////////////////////////////////////////////////
// TASK DETAIL TESTS

func Test_TaskDetail_Terminal(t *testing.T) {
	assert := assert.New(t)

	assert.False(schema.TaskDetail{Status: schema.StatusAvailable}.Terminal())
	assert.False(schema.TaskDetail{Status: schema.StatusProcessing}.Terminal())
	assert.True(schema.TaskDetail{Status: schema.StatusCompleted}.Terminal())
	assert.True(schema.TaskDetail{Status: schema.StatusError}.Terminal())
}
