package lockmgr

import (
	"context"
	"github.com/ValentinKolb/dLock/lib/redlock"
)

// LockHandle is a held lock. It is renewed in the background until it is
// released or lost. Release and Close are idempotent.
type LockHandle struct {
	mgr    *LockManager
	name   string
	lockID string
	handle *redlock.Handle
}

// Name returns the name of the lock
func (h *LockHandle) Name() string {
	return h.name
}

// LockID returns the id the lock is held under
func (h *LockHandle) LockID() string {
	return h.lockID
}

// Lost is closed when the lock is known to be lost, for example because it
// could not be renewed before it expired. Work protected by the lock should stop.
func (h *LockHandle) Lost() <-chan struct{} {
	return h.handle.Lost()
}

// Release stops renewing the lock and releases it on a quorum of stores
func (h *LockHandle) Release(ctx context.Context) error {
	defer h.mgr.handles.Delete(h.lockID)
	return h.handle.Release(ctx)
}

// Close releases the lock without a deadline
func (h *LockHandle) Close() error {
	return h.Release(context.Background())
}
