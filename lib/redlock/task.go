package redlock

import (
	"fmt"
	"github.com/ValentinKolb/dLock/lib/store"
)

// Task is the pending or completed outcome of one operation against one store.
type Task struct {
	done chan struct{}
	ok   bool
	err  error
}

// Tasks maps each store to the outcome of the latest acquire or extend issued against it.
// The map is created by Acquire, updated in place by Extend and consumed by Release.
type Tasks map[store.IStore]*Task

// StartTask runs fn in its own goroutine. A panic in fn completes the task with an error.
func StartTask(fn func() (bool, error)) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.ok, t.err = false, fmt.Errorf("store operation panicked: %v", r)
			}
		}()
		t.ok, t.err = fn()
	}()
	return t
}

// CompletedTask returns a task that already has a result
func CompletedTask(ok bool, err error) *Task {
	t := &Task{done: make(chan struct{}), ok: ok, err: err}
	close(t.done)
	return t
}

// Done is closed once the task completed
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// IsCompleted reports whether the task completed without blocking
func (t *Task) IsCompleted() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Result blocks until the task completed and returns its outcome
func (t *Task) Result() (bool, error) {
	<-t.done
	return t.ok, t.err
}

// ReturnedFalse reports whether the task completed cleanly with false.
// Only then it is certain that the store does not hold the lock for us.
func (t *Task) ReturnedFalse() bool {
	return t.IsCompleted() && t.err == nil && !t.ok
}

// Succeeded reports whether the task completed cleanly with true
func (t *Task) Succeeded() bool {
	return t.IsCompleted() && t.err == nil && t.ok
}

// Faulted reports whether the task completed with an error
func (t *Task) Faulted() bool {
	return t.IsCompleted() && t.err != nil
}

// --------------------------------------------------------------------------
// Completion fan-in
// --------------------------------------------------------------------------

// completions delivers the index of every task once it completes.
// The channel is buffered for all tasks, so watchers never block on send.
type completions struct {
	ch   chan int
	stop chan struct{}
}

func watch(tasks []*Task) *completions {
	c := &completions{
		ch:   make(chan int, len(tasks)),
		stop: make(chan struct{}),
	}
	for i, t := range tasks {
		go func() {
			select {
			case <-t.Done():
				c.ch <- i
			case <-c.stop:
			}
		}()
	}
	return c
}

// close stops all watchers still waiting for a task
func (c *completions) close() {
	close(c.stop)
}
