package lockmgr

import (
	"context"
	"time"
)

// ILockManager creates the distributed primitives of one set of stores.
type ILockManager interface {
	// NewLock returns an exclusive lock with the given name.
	NewLock(name string) *Lock

	// NewSemaphore returns a semaphore with the given name that admits up to maxCount holders.
	// All users of a semaphore must agree on maxCount.
	NewSemaphore(name string, maxCount int) (*Lock, error)

	// NewReaderWriterLock returns a reader/writer lock with the given name.
	NewReaderWriterLock(name string) *ReaderWriterLock

	// Close releases all handles that are still held and waits for the background releases.
	Close(ctx context.Context) error
}

// ILock is implemented by the exclusive lock and the semaphore.
type ILock interface {
	// Name returns the name of the lock.
	Name() string

	// TryAcquire makes a single attempt to acquire the lock.
	// A nil handle with a nil error means the lock is held by someone else.
	// An error is returned if too many stores faulted to reach a quorum.
	TryAcquire(ctx context.Context) (*LockHandle, error)

	// Acquire retries until the lock was acquired, timeout elapsed (ErrTimeout)
	// or ctx was cancelled. A negative timeout waits forever.
	Acquire(ctx context.Context, timeout time.Duration) (*LockHandle, error)
}

// IReaderWriterLock allows many readers or a single writer.
type IReaderWriterLock interface {
	// Name returns the name of the lock.
	Name() string

	// TryAcquireReadLock makes a single attempt to acquire a read lock.
	TryAcquireReadLock(ctx context.Context) (*LockHandle, error)

	// AcquireReadLock retries until a read lock was acquired (see ILock.Acquire).
	AcquireReadLock(ctx context.Context, timeout time.Duration) (*LockHandle, error)

	// TryAcquireWriteLock makes a single attempt to acquire the write lock.
	TryAcquireWriteLock(ctx context.Context) (*LockHandle, error)

	// AcquireWriteLock retries until the write lock was acquired (see ILock.Acquire).
	// While readers hold the lock the writer keeps its place and turns away new readers.
	AcquireWriteLock(ctx context.Context, timeout time.Duration) (*LockHandle, error)
}

var (
	_ ILockManager      = (*LockManager)(nil)
	_ ILock             = (*Lock)(nil)
	_ IReaderWriterLock = (*ReaderWriterLock)(nil)
)
