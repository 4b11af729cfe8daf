package lockmgr

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff determines how long to wait before the next attempt.
// It returns false once no attempt is left.
type Backoff interface {
	Next() (time.Duration, bool)
}

// busyWait waits a random duration in [lo, hi] between attempts until the
// deadline passed. A zero deadline never gives up.
type busyWait struct {
	lo, hi   time.Duration
	deadline time.Time
}

var _ Backoff = &busyWait{}

// newBusyWait creates the backoff of a blocking acquire. A negative timeout waits forever.
func newBusyWait(lo, hi, timeout time.Duration) *busyWait {
	b := &busyWait{lo: lo, hi: hi}
	if timeout >= 0 {
		b.deadline = time.Now().Add(timeout)
	}
	return b
}

func (b *busyWait) Next() (time.Duration, bool) {
	wait := b.lo
	if b.hi > b.lo {
		wait += rand.N(b.hi - b.lo + 1)
	}
	if b.deadline.IsZero() {
		return wait, true
	}
	remaining := time.Until(b.deadline)
	if remaining <= 0 {
		return 0, false
	}
	return min(wait, remaining), true
}

// attemptFunc is a single try to acquire. A nil handle without error means
// the lock is taken and the attempt can be repeated.
type attemptFunc func(ctx context.Context) (*LockHandle, error)

// retry repeats attempt until it returns a handle or an error. It fails with
// ErrTimeout once strategy gives up and with ctx.Err() once ctx is done.
func retry(ctx context.Context, strategy Backoff, attempt attemptFunc) (*LockHandle, error) {
	for {
		h, err := attempt(ctx)
		if err != nil || h != nil {
			return h, err
		}
		wait, ok := strategy.Next()
		if !ok {
			return nil, ErrTimeout
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
