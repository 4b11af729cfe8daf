package redlock

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dLock/lib/common"
	"github.com/ValentinKolb/dLock/lib/store"
	"sync"
	"time"
)

// ErrNoStores is returned when a quorum operation is started without any store
var ErrNoStores = errors.New("redlock: no stores configured")

// Acquire races TryAcquire of the primitive on all stores and returns as soon
// as the outcome is decided.
//
// On success the per-store tasks are returned; they must be handed to Extend
// and Release. A nil map with a nil error means the lock was not acquired
// (contention or timeout). A *QuorumError is returned when so many stores
// faulted that acquiring was impossible. Cancellation of ctx aborts the wait
// and returns ctx.Err(). On every non-success outcome, stores that granted
// the primitive are released and still pending stores are handed to the
// janitor.
func Acquire(ctx context.Context, primitive Acquirable, stores []store.IStore, janitor *Janitor) (Tasks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, ErrNoStores
	}

	started := time.Now()
	var tasks Tasks
	var err error
	if len(stores) == 1 {
		tasks, err = acquireSingle(ctx, primitive, stores[0], janitor)
	} else {
		tasks, err = acquireQuorum(ctx, primitive, stores, janitor)
	}
	common.RecordAcquire(acquireResult(tasks, err), started)
	return tasks, err
}

// acquireSingle handles the one-store case. There is no quorum to decide,
// only the single outcome and the elapsed time are checked. A call still
// pending on timeout or cancellation is handed to the janitor.
func acquireSingle(ctx context.Context, primitive Acquirable, s store.IStore, janitor *Janitor) (Tasks, error) {
	opCtx := context.WithoutCancel(ctx)
	started := time.Now()

	task := StartTask(func() (bool, error) {
		return primitive.TryAcquire(opCtx, s)
	})

	timer := time.NewTimer(primitive.AcquireTimeout())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		janitor.ReleaseUponCompletion(primitive, s, task)
		return nil, ctx.Err()
	case <-timer.C:
		janitor.ReleaseUponCompletion(primitive, s, task)
		return nil, ctx.Err()
	case <-task.Done():
	}

	ok, err := task.Result()
	switch {
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &QuorumError{Op: "acquire", Errors: []error{err}}
	case !ok:
		return nil, ctx.Err()
	}

	if elapsed := time.Since(started); elapsed > primitive.AcquireTimeout() {
		// granted too late to guarantee the min validity
		Logger.Debugf("acquire on store %s took %s (budget %s), releasing", s.Name(), elapsed, primitive.AcquireTimeout())
		_ = primitive.Release(opCtx, s, true)
		return nil, ctx.Err()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		_ = primitive.Release(opCtx, s, true)
		return nil, ctxErr
	}
	return Tasks{s: task}, nil
}

func acquireQuorum(ctx context.Context, primitive Acquirable, stores []store.IStore, janitor *Janitor) (Tasks, error) {
	// in-flight store operations are never aborted by the caller, their
	// eventual result still feeds the cleanup below
	opCtx := context.WithoutCancel(ctx)

	tasks := make([]*Task, len(stores))
	for i, s := range stores {
		tasks[i] = StartTask(func() (bool, error) {
			return primitive.TryAcquire(opCtx, s)
		})
	}

	succeeded, err := waitForAcquire(ctx, primitive, stores, tasks)
	if !succeeded {
		cleanupFailedAcquire(opCtx, primitive, stores, tasks, janitor)
		return nil, err
	}

	result := make(Tasks, len(stores))
	for i, s := range stores {
		result[s] = tasks[i]
	}
	return result, nil
}

// waitForAcquire counts completions until a majority verdict, the acquire timeout or cancellation.
func waitForAcquire(ctx context.Context, primitive Acquirable, stores []store.IStore, tasks []*Task) (bool, error) {
	n := len(stores)

	timer := time.NewTimer(primitive.AcquireTimeout())
	defer timer.Stop()

	done := watch(tasks)
	defer done.close()

	pending := make(map[int]struct{}, n)
	for i := range tasks {
		pending[i] = struct{}{}
	}

	var successCount, failCount, faultCount int
	var faults []error

	// fault registers one faulted store and reports whether the outcome is decided
	fault := func(err error) (bool, error) {
		faultCount++
		faults = append(faults, err)
		if HasTooManyFailuresOrFaults(faultCount, n) {
			return true, &QuorumError{Op: "acquire", Errors: faults}
		}
		return HasTooManyFailuresOrFaults(failCount+faultCount, n), nil
	}

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()

		case <-timer.C:
			// a context that ran out at the same moment is still reported
			return false, ctx.Err()

		case i := <-done.ch:
			delete(pending, i)

			ok, err := tasks[i].Result()
			switch {
			case err != nil:
				if decided, quorumErr := fault(err); decided {
					return false, quorumErr
				}
			case ok:
				successCount++
				if HasSufficientSuccesses(successCount, n) {
					return true, nil
				}
			default:
				failCount++
				if HasTooManyFailuresOrFaults(failCount+faultCount, n) {
					return false, nil
				}
			}

			// fast path: when every undecided store is known to be down, waiting
			// for their network timeouts cannot change the verdict
			if len(pending) > 0 && allDisconnected(primitive, stores, pending) {
				for j := range pending {
					err := store.NewError(store.RetCDisconnected, stores[j].Name(), "store is disconnected", nil)
					if decided, quorumErr := fault(err); decided {
						return false, quorumErr
					}
				}
				return false, nil
			}
		}
	}
}

func allDisconnected(primitive Acquirable, stores []store.IStore, pending map[int]struct{}) bool {
	for i := range pending {
		if primitive.IsConnected(stores[i]) {
			return false
		}
	}
	return true
}

// cleanupFailedAcquire releases everything a failed acquire may have obtained.
// Completed grants are released together, pending attempts go to the janitor.
func cleanupFailedAcquire(ctx context.Context, primitive Acquirable, stores []store.IStore, tasks []*Task, janitor *Janitor) {
	var wg sync.WaitGroup
	for i, task := range tasks {
		s := stores[i]
		switch {
		case !task.IsCompleted():
			janitor.ReleaseUponCompletion(primitive, s, task)
		case !task.ReturnedFalse():
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = primitive.Release(ctx, s, true)
			}()
		}
	}
	wg.Wait()
}

func acquireResult(tasks Tasks, err error) string {
	var quorumErr *QuorumError
	switch {
	case tasks != nil:
		return common.ResultSuccess
	case errors.As(err, &quorumErr):
		return common.ResultFault
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return common.ResultCancelled
	case err != nil:
		return common.ResultFault
	default:
		return common.ResultFailure
	}
}

// String helps debugging by listing the state of every store
func (t Tasks) String() string {
	s := "Tasks{"
	first := true
	for st, task := range t {
		if !first {
			s += ", "
		}
		first = false
		state := "pending"
		switch {
		case task.Succeeded():
			state = "true"
		case task.ReturnedFalse():
			state = "false"
		case task.Faulted():
			state = "fault"
		}
		s += fmt.Sprintf("%s=%s", st.Name(), state)
	}
	return s + "}"
}
