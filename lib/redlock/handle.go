package redlock

import (
	"context"
	"github.com/ValentinKolb/dLock/lib/lease"
	"sync"
	"time"
)

// HandleOptions configures the lease of a Handle
type HandleOptions struct {
	// LeaseDuration is the expiry of the lock on each store
	LeaseDuration time.Duration
	// ExtensionCadence is the renewal interval, <= 0 disables auto-extension
	ExtensionCadence time.Duration
	// AcquiredAt is when the acquire attempt started (zero = now)
	AcquiredAt time.Time
}

// Handle is a held quorum lock. It renews itself through the lease monitor
// and releases the lock on a quorum of stores when released.
//
// State machine: acquired -> (monitored)* -> released. Release is idempotent.
type Handle struct {
	primitive Extensible
	tasks     Tasks
	janitor   *Janitor
	opts      HandleOptions
	monitor   *lease.Monitor

	releaseOnce sync.Once
	releaseErr  error
}

var _ lease.Handle = (*Handle)(nil)

// NewHandle wraps the tasks of a successful Acquire and starts monitoring the lease
func NewHandle(primitive Extensible, tasks Tasks, janitor *Janitor, opts HandleOptions) *Handle {
	if opts.AcquiredAt.IsZero() {
		opts.AcquiredAt = time.Now()
	}
	h := &Handle{
		primitive: primitive,
		tasks:     tasks,
		janitor:   janitor,
		opts:      opts,
	}
	h.monitor = lease.NewMonitor(h)
	return h
}

// LeaseDuration implements lease.Handle
func (h *Handle) LeaseDuration() time.Duration {
	return h.opts.LeaseDuration
}

// MonitoringCadence implements lease.Handle.
// Without auto-extension the lease is checked once, when it expires.
func (h *Handle) MonitoringCadence() time.Duration {
	if h.opts.ExtensionCadence > 0 {
		return h.opts.ExtensionCadence
	}
	return h.opts.LeaseDuration
}

// RenewOrValidate implements lease.Handle. It runs one Extend round, or,
// with auto-extension disabled, checks whether the lease ran out.
func (h *Handle) RenewOrValidate(ctx context.Context) (lease.State, error) {
	if h.opts.ExtensionCadence <= 0 {
		if time.Since(h.opts.AcquiredAt) < h.opts.LeaseDuration {
			return lease.StateHeld, nil
		}
		return lease.StateLost, nil
	}

	result, err := Extend(ctx, h.primitive, h.tasks)
	if err != nil {
		return lease.StateUnknown, err
	}
	switch result {
	case ExtendRenewed:
		return lease.StateRenewed, nil
	case ExtendLost:
		Logger.Warningf("lock lost: %s", h.tasks)
		return lease.StateLost, nil
	default:
		return lease.StateUnknown, nil
	}
}

// Lost is closed when the lock is known to be lost
func (h *Handle) Lost() <-chan struct{} {
	return h.monitor.Lost()
}

// Release stops the lease monitor and releases the lock on a quorum of stores.
// Only the first call has an effect; later calls return the first result.
func (h *Handle) Release(ctx context.Context) error {
	h.releaseOnce.Do(func() {
		// after Close the monitor no longer touches the tasks
		h.monitor.Close()
		h.releaseErr = Release(ctx, h.primitive, h.tasks, h.janitor)
	})
	return h.releaseErr
}

// Close releases the lock without a deadline. It implements io.Closer.
func (h *Handle) Close() error {
	return h.Release(context.Background())
}
