package primitives

import (
	"context"
	"github.com/ValentinKolb/dLock/lib/redlock"
	"github.com/ValentinKolb/dLock/lib/store"
	"sync"
)

// waitingSuffix marks the writer key as reserved by a writer waiting for readers to leave
const waitingSuffix = "_WRITERWAITING"

// ReadLock is the shared side of a reader/writer lock. Readers are members of
// a set; the set expires as a whole once no reader renews it.
type ReadLock struct {
	base
	readerKey string
	writerKey string
}

var _ redlock.Primitive = (*ReadLock)(nil)

// NewReadLock creates the read lock primitive for one acquire attempt
func NewReadLock(readerKey, writerKey, lockID string, timeouts redlock.Timeouts) *ReadLock {
	return &ReadLock{
		base:      base{lockID: lockID, timeouts: timeouts},
		readerKey: readerKey,
		writerKey: writerKey,
	}
}

func (r *ReadLock) TryAcquire(ctx context.Context, s store.IStore) (bool, error) {
	return run(ctx, s, readAcquireScript, []string{r.readerKey, r.writerKey}, r.lockID, r.timeouts.ExpiryMillis())
}

func (r *ReadLock) TryExtend(ctx context.Context, s store.IStore) (bool, error) {
	return run(ctx, s, readExtendScript, []string{r.readerKey}, r.lockID, r.timeouts.ExpiryMillis())
}

func (r *ReadLock) Release(ctx context.Context, s store.IStore, fireAndForget bool) error {
	return release(ctx, s, fireAndForget, readReleaseScript, []string{r.readerKey}, r.lockID)
}

// WriteLock is the exclusive side of a reader/writer lock. The writer key
// holds either the lock id (held) or the waiting token (waiting for readers).
type WriteLock struct {
	base
	readerKey string
	writerKey string
}

var _ redlock.Primitive = (*WriteLock)(nil)

// NewWriteLock creates the write lock primitive. The lock id must stay the
// same across the retries of one blocking acquire so the waiting token keeps
// the writer's place.
func NewWriteLock(readerKey, writerKey, lockID string, timeouts redlock.Timeouts) *WriteLock {
	return &WriteLock{
		base:      base{lockID: lockID, timeouts: timeouts},
		readerKey: readerKey,
		writerKey: writerKey,
	}
}

// WaitingToken returns the value planted in the writer key while waiting for readers
func (w *WriteLock) WaitingToken() string {
	return w.lockID + waitingSuffix
}

func (w *WriteLock) TryAcquire(ctx context.Context, s store.IStore) (bool, error) {
	return run(ctx, s, writeAcquireScript, []string{w.readerKey, w.writerKey}, w.lockID, w.timeouts.ExpiryMillis(), w.WaitingToken())
}

func (w *WriteLock) TryExtend(ctx context.Context, s store.IStore) (bool, error) {
	return run(ctx, s, mutexExtendScript, []string{w.writerKey}, w.lockID, w.timeouts.ExpiryMillis())
}

// Release deletes the writer key if it holds the lock id or the waiting token
func (w *WriteLock) Release(ctx context.Context, s store.IStore, fireAndForget bool) error {
	return release(ctx, s, fireAndForget, writeReleaseScript, []string{w.writerKey}, w.lockID, w.WaitingToken())
}

// ReleaseWaiting clears the waiting token on all stores. It is used by a
// writer that gives up waiting; errors are ignored, the token expires anyway.
func (w *WriteLock) ReleaseWaiting(ctx context.Context, stores []store.IStore) {
	var wg sync.WaitGroup
	for _, s := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Release(ctx, s, true)
		}()
	}
	wg.Wait()
}
