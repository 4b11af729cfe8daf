package lockmgr

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dLock/lib/redlock"
	"github.com/ValentinKolb/dLock/lib/redlock/primitives"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("lockmgr")

var (
	// ErrTimeout is returned by a blocking acquire that gave up
	ErrTimeout = errors.New("timed out acquiring lock")
	// ErrClosed is returned when acquiring through a closed LockManager
	ErrClosed = errors.New("lock manager is closed")
)

// LockManager creates locks that are held on a majority of independent stores.
// It is safe for concurrent use.
type LockManager struct {
	stores   []store.IStore
	opts     Options
	timeouts redlock.Timeouts
	janitor  *redlock.Janitor

	// handles that were acquired and not yet released, keyed by lock id
	handles *xsync.MapOf[string, *LockHandle]

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewLockManager creates a lock manager over stores. The stores stay owned by
// the caller and must be closed by it after the manager was closed.
func NewLockManager(stores []store.IStore, opts ...Option) (*LockManager, error) {
	if len(stores) == 0 {
		return nil, fmt.Errorf("%w: at least one store is required", ErrInvalidOptions)
	}
	seen := make(map[store.IStore]struct{}, len(stores))
	for _, s := range stores {
		if s == nil {
			return nil, fmt.Errorf("%w: nil store", ErrInvalidOptions)
		}
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("%w: store %s given twice", ErrInvalidOptions, s.Name())
		}
		seen[s] = struct{}{}
	}

	o, err := buildOptions(opts...)
	if err != nil {
		return nil, err
	}
	timeouts, err := o.timeouts()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	Logger.Debugf("created lock manager on %d store(s), %s", len(stores), timeouts)
	return &LockManager{
		stores:   append([]store.IStore(nil), stores...),
		opts:     o,
		timeouts: timeouts,
		janitor:  redlock.NewJanitor(o.JanitorConcurrency, 0),
		handles:  xsync.NewMapOf[string, *LockHandle](),
	}, nil
}

// Options returns the effective options including defaults
func (m *LockManager) Options() Options {
	return m.opts
}

// Stores returns the stores of the manager
func (m *LockManager) Stores() []store.IStore {
	return m.stores
}

// Outstanding returns the number of handles that are held and not yet released
func (m *LockManager) Outstanding() int {
	return m.handles.Size()
}

func (m *LockManager) NewLock(name string) *Lock {
	return &Lock{
		mgr:  m,
		name: name,
		newPrimitive: func(lockID string) (redlock.Primitive, error) {
			return primitives.NewMutex(name, lockID, m.timeouts), nil
		},
	}
}

func (m *LockManager) NewSemaphore(name string, maxCount int) (*Lock, error) {
	// validate once up front, the primitive is created per acquire
	if _, err := primitives.NewSemaphore(name, "", maxCount, m.timeouts); err != nil {
		return nil, err
	}
	return &Lock{
		mgr:  m,
		name: name,
		newPrimitive: func(lockID string) (redlock.Primitive, error) {
			sem, err := primitives.NewSemaphore(name, lockID, maxCount, m.timeouts)
			if err != nil {
				return nil, err
			}
			return sem, nil
		},
	}, nil
}

func (m *LockManager) NewReaderWriterLock(name string) *ReaderWriterLock {
	return &ReaderWriterLock{
		mgr:       m,
		name:      name,
		readerKey: name + ".readers",
		writerKey: name + ".writer",
	}
}

// Close releases all outstanding handles and waits until the background
// releases are done. Acquiring after Close fails with ErrClosed.
func (m *LockManager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		m.closed.Store(true)

		var errs []error
		m.handles.Range(func(lockID string, h *LockHandle) bool {
			Logger.Infof("releasing outstanding lock %s (%s)", h.Name(), lockID)
			if err := h.Release(ctx); err != nil {
				errs = append(errs, fmt.Errorf("release %s: %w", h.Name(), err))
			}
			return true
		})
		m.janitor.Close()
		m.closeErr = errors.Join(errs...)
	})
	return m.closeErr
}

// --------------------------------------------------------------------------
// Acquire helpers
// --------------------------------------------------------------------------

// tryAcquire runs one quorum acquire of p and wraps a success into a registered handle
func (m *LockManager) tryAcquire(ctx context.Context, name string, lockID string, p redlock.Primitive) (*LockHandle, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	started := time.Now()
	tasks, err := redlock.Acquire(ctx, p, m.stores, m.janitor)
	if err != nil || tasks == nil {
		return nil, err
	}

	h := &LockHandle{
		mgr:    m,
		name:   name,
		lockID: lockID,
		handle: redlock.NewHandle(p, tasks, m.janitor, redlock.HandleOptions{
			LeaseDuration:    m.opts.Expiry,
			ExtensionCadence: m.opts.ExtensionCadence,
			AcquiredAt:       started,
		}),
	}
	m.handles.Store(lockID, h)
	if m.closed.Load() {
		// lost the race against Close, which may not have seen the handle
		_ = h.Release(ctx)
		return nil, ErrClosed
	}
	Logger.Debugf("acquired %s (%s) in %s", name, lockID, time.Since(started))
	return h, nil
}

// acquire calls attempt until it returns a handle or an error, timeout
// elapsed or ctx is done. A negative timeout waits forever.
func (m *LockManager) acquire(ctx context.Context, timeout time.Duration, attempt attemptFunc) (*LockHandle, error) {
	return retry(ctx, newBusyWait(m.opts.BusyWaitMin, m.opts.BusyWaitMax, timeout), attempt)
}
