package redlock

import (
	"fmt"
	"time"
)

// Timeouts is the (expiry, minValidity) pair of a lock.
// The time left for reaching a quorum is expiry - minValidity. This guarantees
// that a lock is still valid for at least minValidity once it was acquired.
type Timeouts struct {
	expiry      time.Duration
	minValidity time.Duration
}

// NewTimeouts validates and creates a Timeouts value
func NewTimeouts(expiry, minValidity time.Duration) (Timeouts, error) {
	if expiry <= 0 {
		return Timeouts{}, fmt.Errorf("expiry must be positive, got %s", expiry)
	}
	if minValidity <= 0 || minValidity >= expiry {
		return Timeouts{}, fmt.Errorf("min validity must be in (0, %s), got %s", expiry, minValidity)
	}
	return Timeouts{expiry: expiry, minValidity: minValidity}, nil
}

// Expiry returns the ttl of the lock on each store
func (t Timeouts) Expiry() time.Duration {
	return t.expiry
}

// ExpiryMillis returns the expiry in whole milliseconds (at least 1) as required by PX/PEXPIRE
func (t Timeouts) ExpiryMillis() int64 {
	ms := t.expiry.Milliseconds()
	if ms < 1 {
		return 1
	}
	return ms
}

// MinValidity returns the minimum time a freshly acquired lock stays valid
func (t Timeouts) MinValidity() time.Duration {
	return t.minValidity
}

// AcquireTimeout returns the time budget for acquiring or extending a lock on a quorum of stores
func (t Timeouts) AcquireTimeout() time.Duration {
	return t.expiry - t.minValidity
}

func (t Timeouts) String() string {
	return fmt.Sprintf("expiry=%s minValidity=%s acquireTimeout=%s", t.expiry, t.minValidity, t.AcquireTimeout())
}
