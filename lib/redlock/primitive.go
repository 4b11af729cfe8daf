package redlock

import (
	"context"
	"github.com/ValentinKolb/dLock/lib/store"
	"time"
)

// Releasable is implemented by every synchronization primitive
type Releasable interface {
	// Release gives up the primitive on one store. With fireAndForget set
	// errors are only logged and nil is returned.
	Release(ctx context.Context, s store.IStore, fireAndForget bool) error
	// IsConnected is a round-trip free liveness probe for the store
	IsConnected(s store.IStore) bool
}

// Acquirable primitives can be acquired on a single store
type Acquirable interface {
	Releasable
	// TryAcquire makes one acquisition attempt and reports whether it succeeded
	TryAcquire(ctx context.Context, s store.IStore) (bool, error)
	// AcquireTimeout is the budget for reaching a quorum
	AcquireTimeout() time.Duration
}

// Extensible primitives can renew their hold on a single store
type Extensible interface {
	Releasable
	// TryExtend renews the primitive if it is still held by us
	TryExtend(ctx context.Context, s store.IStore) (bool, error)
	// AcquireTimeout is the budget for reaching a quorum
	AcquireTimeout() time.Duration
}

// Primitive is the full capability set of the mutex, semaphore and reader/writer primitives
type Primitive interface {
	Acquirable
	Extensible
}
