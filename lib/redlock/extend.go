package redlock

import (
	"context"
	"github.com/ValentinKolb/dLock/lib/common"
	"time"
)

// ExtendResult is the ternary outcome of an extend round
type ExtendResult int

const (
	// ExtendInconclusive means no majority was reached before the timeout. The lock may still be held.
	ExtendInconclusive ExtendResult = iota
	// ExtendRenewed means a majority of stores renewed the lock
	ExtendRenewed
	// ExtendLost means a majority of stores no longer hold the lock for us
	ExtendLost
)

func (r ExtendResult) String() string {
	switch r {
	case ExtendRenewed:
		return common.ResultRenewed
	case ExtendLost:
		return common.ResultLost
	default:
		return common.ResultInconclusive
	}
}

// Extend renews the primitive on all stores of tasks and updates tasks in place.
//
// A store whose previous acquire or extend is still in flight gets no new
// call; its pending task takes part in this round instead. Faults count as
// failures, the next round retries them. The acquire timeout of the
// primitive bounds the round. An error is only returned on cancellation.
func Extend(ctx context.Context, primitive Extensible, tasks Tasks) (ExtendResult, error) {
	if len(tasks) == 0 {
		return ExtendLost, ErrNoStores
	}
	opCtx := context.WithoutCancel(ctx)

	round := make([]*Task, 0, len(tasks))
	for s, task := range tasks {
		if task.IsCompleted() {
			task = StartTask(func() (bool, error) {
				return primitive.TryExtend(opCtx, s)
			})
			tasks[s] = task
		}
		round = append(round, task)
	}

	result, err := waitForExtend(ctx, primitive, round)
	if err == nil {
		common.RecordExtend(result.String())
	}
	return result, err
}

func waitForExtend(ctx context.Context, primitive Extensible, round []*Task) (ExtendResult, error) {
	n := len(round)

	timer := time.NewTimer(primitive.AcquireTimeout())
	defer timer.Stop()

	done := watch(round)
	defer done.close()

	var successCount, failCount int
	for {
		select {
		case <-ctx.Done():
			return ExtendInconclusive, ctx.Err()

		case <-timer.C:
			return ExtendInconclusive, nil

		case i := <-done.ch:
			ok, err := round[i].Result()
			if err == nil && ok {
				successCount++
				if HasSufficientSuccesses(successCount, n) {
					return ExtendRenewed, nil
				}
				continue
			}

			if err != nil {
				Logger.Debugf("extend fault: %v", err)
			}
			failCount++
			if HasTooManyFailuresOrFaults(failCount, n) {
				return ExtendLost, nil
			}
		}
	}
}
