package taskqueue_test

import (
	"context"
	"testing"

	// Packages
	taskqueue "github.com/mutablelogic/go-taskqueue/pkg/taskqueue"
	test "github.com/mutablelogic/go-taskqueue/pkg/test"
	assert "github.com/stretchr/testify/assert"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var conn test.Conn

func TestMain(m *testing.M) {
	test.Main(m, &conn)
}

////////////////////////////////////////////////////////////////////////////////
// MANAGER TESTS

func Test_Manager_New(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	t.Run("New", func(t *testing.T) {
		mgr, err := taskqueue.New(ctx, conn)
		assert.NoError(err)
		assert.NotNil(mgr)
		assert.NotNil(mgr.Conn())
		assert.NotEmpty(mgr.Worker())
	})

	t.Run("NewWithWorkerName", func(t *testing.T) {
		mgr, err := taskqueue.New(ctx, conn, taskqueue.WithWorkerName("test-worker"))
		assert.NoError(err)
		assert.NotNil(mgr)
		assert.Equal("test-worker", mgr.Worker())
	})

	t.Run("NilConnection", func(t *testing.T) {
		_, err := taskqueue.New(ctx, nil)
		assert.Error(err)
	})

	t.Run("Idempotent", func(t *testing.T) {
		// Creating the schema twice should not fail
		mgr1, err := taskqueue.New(ctx, conn)
		assert.NoError(err)
		assert.NotNil(mgr1)

		mgr2, err := taskqueue.New(ctx, conn)
		assert.NoError(err)
		assert.NotNil(mgr2)
	})
}
