package primitives

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dLock/lib/redlock"
	"github.com/ValentinKolb/dLock/lib/store"
)

// Semaphore admits up to maxCount holders. Each holder is a member of a
// sorted set scored by the server time at which its ticket expires.
type Semaphore struct {
	base
	key      string
	maxCount int
}

var _ redlock.Primitive = (*Semaphore)(nil)

// NewSemaphore creates the semaphore primitive for one acquire attempt
func NewSemaphore(key, lockID string, maxCount int, timeouts redlock.Timeouts) (*Semaphore, error) {
	if maxCount < 1 {
		return nil, store.NewError(store.RetCInvalidOperation, "", fmt.Sprintf("semaphore max count must be at least 1, got %d", maxCount), nil)
	}
	return &Semaphore{
		base:     base{lockID: lockID, timeouts: timeouts},
		key:      key,
		maxCount: maxCount,
	}, nil
}

// MaxCount returns the number of tickets of the semaphore
func (sem *Semaphore) MaxCount() int {
	return sem.maxCount
}

func (sem *Semaphore) TryAcquire(ctx context.Context, s store.IStore) (bool, error) {
	return run(ctx, s, semaphoreAcquireScript, []string{sem.key}, sem.lockID, sem.timeouts.ExpiryMillis(), sem.maxCount)
}

func (sem *Semaphore) TryExtend(ctx context.Context, s store.IStore) (bool, error) {
	return run(ctx, s, semaphoreExtendScript, []string{sem.key}, sem.lockID, sem.timeouts.ExpiryMillis())
}

func (sem *Semaphore) Release(ctx context.Context, s store.IStore, fireAndForget bool) error {
	return release(ctx, s, fireAndForget, semaphoreReleaseScript, []string{sem.key}, sem.lockID)
}
