package lockmgr

import (
	"context"
	"github.com/ValentinKolb/dLock/lib/redlock"
	"time"
)

// Lock is an exclusive lock or a semaphore, depending on how it was created.
// A Lock holds no state on its own, every acquire creates a fresh lock id.
type Lock struct {
	mgr          *LockManager
	name         string
	newPrimitive func(lockID string) (redlock.Primitive, error)
}

func (l *Lock) Name() string {
	return l.name
}

func (l *Lock) TryAcquire(ctx context.Context) (*LockHandle, error) {
	lockID := l.mgr.opts.LockIDs.New()
	p, err := l.newPrimitive(lockID)
	if err != nil {
		return nil, err
	}
	return l.mgr.tryAcquire(ctx, l.name, lockID, p)
}

// Acquire retries TryAcquire until it succeeds or timeout passed. Every
// attempt uses its own lock id: the janitor may still release a late grant
// of an earlier attempt, and that release must not hit the current one.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) (*LockHandle, error) {
	return l.mgr.acquire(ctx, timeout, l.TryAcquire)
}

// ReleaseLockID releases the lock held under lockID on a quorum of stores.
// It is meant for ids that were handed out by another process (for example
// the CLI), handles of this process are released with LockHandle.Release.
func (l *Lock) ReleaseLockID(ctx context.Context, lockID string) error {
	p, err := l.newPrimitive(lockID)
	if err != nil {
		return err
	}

	// without the acquire outcome every store has to be assumed to hold the lock
	tasks := make(redlock.Tasks, len(l.mgr.stores))
	for _, s := range l.mgr.stores {
		tasks[s] = redlock.CompletedTask(true, nil)
	}
	return redlock.Release(ctx, p, tasks, l.mgr.janitor)
}
