package lockmgr

import (
	"context"
	"github.com/ValentinKolb/dLock/lib/redlock"
	"github.com/ValentinKolb/dLock/lib/redlock/primitives"
	"time"
)

// ReaderWriterLock is held either by any number of readers or by one writer.
// It is stored under the keys name+".readers" and name+".writer".
type ReaderWriterLock struct {
	mgr       *LockManager
	name      string
	readerKey string
	writerKey string
}

func (rw *ReaderWriterLock) Name() string {
	return rw.name
}

func (rw *ReaderWriterLock) TryAcquireReadLock(ctx context.Context) (*LockHandle, error) {
	lockID := rw.mgr.opts.LockIDs.New()
	p := primitives.NewReadLock(rw.readerKey, rw.writerKey, lockID, rw.mgr.timeouts)
	return rw.mgr.tryAcquire(ctx, rw.name, lockID, p)
}

// AcquireReadLock retries TryAcquireReadLock with a fresh lock id per attempt
func (rw *ReaderWriterLock) AcquireReadLock(ctx context.Context, timeout time.Duration) (*LockHandle, error) {
	return rw.mgr.acquire(ctx, timeout, rw.TryAcquireReadLock)
}

func (rw *ReaderWriterLock) TryAcquireWriteLock(ctx context.Context) (*LockHandle, error) {
	lockID := rw.mgr.opts.LockIDs.New()
	p := primitives.NewWriteLock(rw.readerKey, rw.writerKey, lockID, rw.mgr.timeouts)
	h, err := rw.mgr.tryAcquire(ctx, rw.name, lockID, p)
	if h == nil {
		rw.giveUp(ctx, p)
	}
	return h, err
}

func (rw *ReaderWriterLock) AcquireWriteLock(ctx context.Context, timeout time.Duration) (*LockHandle, error) {
	// one lock id for all attempts, so the waiting token keeps our place. A late
	// grant of an earlier attempt cannot be confused with the current one:
	// write_acquire refuses while the writer key holds the real id.
	lockID := rw.mgr.opts.LockIDs.New()
	p := primitives.NewWriteLock(rw.readerKey, rw.writerKey, lockID, rw.mgr.timeouts)
	h, err := rw.mgr.acquire(ctx, timeout, func(ctx context.Context) (*LockHandle, error) {
		return rw.mgr.tryAcquire(ctx, rw.name, lockID, p)
	})
	if h == nil {
		rw.giveUp(ctx, p)
	}
	return h, err
}

// giveUp clears the waiting token a writer may have left behind
func (rw *ReaderWriterLock) giveUp(ctx context.Context, p *primitives.WriteLock) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redlock.DefaultJanitorReleaseTimeout)
	defer cancel()
	p.ReleaseWaiting(ctx, rw.mgr.stores)
}
