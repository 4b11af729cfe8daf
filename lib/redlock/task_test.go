package redlock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStates(t *testing.T) {
	ok := CompletedTask(true, nil)
	assert.True(t, ok.IsCompleted())
	assert.True(t, ok.Succeeded())
	assert.False(t, ok.ReturnedFalse())
	assert.False(t, ok.Faulted())

	no := CompletedTask(false, nil)
	assert.True(t, no.ReturnedFalse())
	assert.False(t, no.Succeeded())

	bad := CompletedTask(false, errFault)
	assert.True(t, bad.Faulted())
	assert.False(t, bad.ReturnedFalse())
}

func TestStartTask(t *testing.T) {
	release := make(chan struct{})
	task := StartTask(func() (bool, error) {
		<-release
		return true, nil
	})

	// a pending task is neither success, clean failure nor fault
	assert.False(t, task.IsCompleted())
	assert.False(t, task.Succeeded())
	assert.False(t, task.ReturnedFalse())
	assert.False(t, task.Faulted())

	close(release)
	ok, err := task.Result()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, task.Succeeded())
}

func TestStartTaskRecoversPanic(t *testing.T) {
	task := StartTask(func() (bool, error) {
		panic("boom")
	})

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not complete")
	}
	ok, err := task.Result()
	assert.False(t, ok)
	assert.ErrorContains(t, err, "boom")
	assert.True(t, task.Faulted())
}

func TestWatchDeliversEveryCompletion(t *testing.T) {
	gates := make([]chan struct{}, 4)
	tasks := make([]*Task, 4)
	for i := range tasks {
		gate := make(chan struct{})
		gates[i] = gate
		tasks[i] = StartTask(func() (bool, error) {
			<-gate
			return true, nil
		})
	}

	done := watch(tasks)
	defer done.close()

	// complete in reverse order
	for i := len(gates) - 1; i >= 0; i-- {
		close(gates[i])
		select {
		case got := <-done.ch:
			assert.Equal(t, i, got)
		case <-time.After(time.Second):
			t.Fatalf("completion of task %d not delivered", i)
		}
	}
}
