// Package lockmgr implements distributed locks on top of a set of
// independent key-value stores that implement the store.IStore interface.
// A lock is held when a majority of the stores granted it (RedLock).
//
// The lockmgr keeps no lock state of its own besides the handles it handed
// out. It is therefore safe to create several lock managers on the same
// stores, even in different processes. As long as the same stores are used,
// all locks work as expected.
//
// Core Functionality:
//   - Exclusive locks, semaphores and reader/writer locks
//   - Automatic renewal of held locks and a Lost signal when renewal fails
//   - Blocking acquire with randomized busy waiting and a timeout
//   - Safe release operations that verify ownership
//
// Implementation Approach:
//
//	Every lock operation on a single store is one atomic lua script
//	(see package redlock/primitives). The quorum logic lives in package
//	redlock:
//
//	- Lock Acquisition: The acquire script runs on all stores at once. The
//	  lock is acquired as soon as a majority granted it within
//	  expiry - minValidity. Otherwise everything that was granted is
//	  released again.
//
//	- Renewal: While a handle is held, it is extended every
//	  ExtensionCadence. If a majority reports the lock gone, or the lock
//	  could not be confirmed for a whole expiry, Lost() is closed.
//
//	- Safe Release: The release scripts only delete state that carries the
//	  lock id of the handle. Release returns once a majority confirmed, the
//	  remaining stores are released in the background.
//
// Thread Safety:
//
//	LockManager, Lock, ReaderWriterLock and LockHandle are safe for
//	concurrent use.
//
// Fault Tolerance:
//
//	With N stores, up to (N-1)/2 stores may be down without affecting
//	acquire, renew or release. If more stores fault, TryAcquire and Acquire
//	return a *redlock.QuorumError wrapping the store errors. Contention and
//	timeouts are not errors: TryAcquire returns a nil handle, Acquire
//	returns ErrTimeout.
//
// Usage Example:
//
//	mgr, err := lockmgr.NewLockManager(stores, lockmgr.WithExpiry(10*time.Second))
//	if err != nil {
//	    // Handle error
//	}
//	defer mgr.Close(ctx)
//
//	h, err := mgr.NewLock("resource:123").Acquire(ctx, 5*time.Second)
//	if err != nil {
//	    // Handle error (ErrTimeout, *redlock.QuorumError, ctx.Err())
//	}
//	defer h.Release(ctx)
//
//	select {
//	case <-h.Lost():
//	    // Stop working on the resource
//	case <-work():
//	}
//
// Security Considerations:
//
//	Lock ids are random uuids prefixed with host name and process id. This
//	protects against accidental lock stealing, not against an attacker with
//	access to the stores.
package lockmgr
