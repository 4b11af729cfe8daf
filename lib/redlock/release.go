package redlock

import (
	"context"
	"github.com/ValentinKolb/dLock/lib/common"
	"github.com/ValentinKolb/dLock/lib/store"
	"time"
)

// Release gives up the primitive on a majority of the stores in tasks.
//
// Every store is released in its own task as soon as its latest acquire or
// extend completes. A store that cleanly returned false is never contacted
// and confirms right away, so clean failures are counted first. Release
// returns once a majority confirmed; releases still in flight (including
// stores whose acquire or extend is still pending) are handed to the
// janitor and finish in the background. A *QuorumError is returned if so
// many releases fail that a majority can never confirm. Cancellation of ctx
// only aborts the wait, never the release calls.
func Release(ctx context.Context, primitive Releasable, tasks Tasks, janitor *Janitor) (err error) {
	opCtx := context.WithoutCancel(ctx)

	stores := make([]store.IStore, 0, len(tasks))
	releases := make([]*Task, 0, len(tasks))
	for s, task := range tasks {
		stores = append(stores, s)
		releases = append(releases, startRelease(opCtx, primitive, s, task, janitor.releaseTimeout))
	}
	n := len(releases)

	done := watch(releases)
	pending := make(map[int]struct{}, n)
	for i := range releases {
		pending[i] = struct{}{}
	}

	defer func() {
		done.close()
		// whatever is still running is finished by the janitor
		for i := range pending {
			janitor.AwaitCompletion(stores[i], releases[i])
		}
		switch {
		case err == nil:
			common.RecordRelease(common.ResultSuccess)
		case ctx.Err() != nil:
			common.RecordRelease(common.ResultCancelled)
		default:
			common.RecordRelease(common.ResultFault)
		}
	}()

	var successCount, faultCount int
	var faults []error

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case i := <-done.ch:
			delete(pending, i)

			if _, releaseErr := releases[i].Result(); releaseErr != nil {
				faults = append(faults, releaseErr)
				faultCount++
				if HasTooManyFailuresOrFaults(faultCount, n) {
					return &QuorumError{Op: "release", Errors: faults}
				}
				continue
			}

			successCount++
			if HasSufficientSuccesses(successCount, n) {
				return nil
			}
		}
	}
	return nil
}

// startRelease releases primitive on s once latest completed. The task
// yields false when nothing had to be released because latest cleanly
// returned false, and true once the store confirmed the release.
func startRelease(ctx context.Context, primitive Releasable, s store.IStore, latest *Task, timeout time.Duration) *Task {
	return StartTask(func() (bool, error) {
		<-latest.Done()
		if latest.ReturnedFalse() {
			return false, nil
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := primitive.Release(ctx, s, false); err != nil {
			return false, err
		}
		return true, nil
	})
}
