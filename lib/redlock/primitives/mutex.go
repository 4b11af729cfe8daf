package primitives

import (
	"context"
	"github.com/ValentinKolb/dLock/lib/redlock"
	"github.com/ValentinKolb/dLock/lib/store"
)

// Mutex is an exclusive lock stored as a single key holding the lock id
type Mutex struct {
	base
	key string
}

var _ redlock.Primitive = (*Mutex)(nil)

// NewMutex creates the mutex primitive for one acquire attempt
func NewMutex(key, lockID string, timeouts redlock.Timeouts) *Mutex {
	return &Mutex{
		base: base{lockID: lockID, timeouts: timeouts},
		key:  key,
	}
}

// Key returns the store key of the mutex
func (m *Mutex) Key() string {
	return m.key
}

func (m *Mutex) TryAcquire(ctx context.Context, s store.IStore) (bool, error) {
	return run(ctx, s, mutexAcquireScript, []string{m.key}, m.lockID, m.timeouts.ExpiryMillis())
}

func (m *Mutex) TryExtend(ctx context.Context, s store.IStore) (bool, error) {
	return run(ctx, s, mutexExtendScript, []string{m.key}, m.lockID, m.timeouts.ExpiryMillis())
}

func (m *Mutex) Release(ctx context.Context, s store.IStore, fireAndForget bool) error {
	return release(ctx, s, fireAndForget, mutexReleaseScript, []string{m.key}, m.lockID)
}
