package lockmgr

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dLock/lib/redlock"
	"time"
)

// ErrInvalidOptions is wrapped by every option validation error
var ErrInvalidOptions = errors.New("invalid lock options")

const (
	DefaultExpiry      = 30 * time.Second
	MinExpiry          = 100 * time.Millisecond
	DefaultBusyWaitMin = 10 * time.Millisecond
	DefaultBusyWaitMax = 800 * time.Millisecond
)

// Options controls the timing of all locks of a LockManager
type Options struct {
	// Expiry is the ttl of a lock on each store
	Expiry time.Duration
	// MinValidity is the time a freshly acquired lock is guaranteed to stay valid.
	// Defaults to 90% of Expiry.
	MinValidity time.Duration
	// ExtensionCadence is the interval of automatic renewals. Defaults to Expiry/3, 0 disables renewals.
	ExtensionCadence time.Duration
	// BusyWaitMin and BusyWaitMax bound the random sleep between two attempts of a blocking acquire
	BusyWaitMin time.Duration
	BusyWaitMax time.Duration
	// LockIDs creates the lock ids, defaults to a generator for this process
	LockIDs *redlock.LockIDGenerator
	// JanitorConcurrency bounds the background releases in flight
	JanitorConcurrency int

	minValiditySet bool
	cadenceSet     bool
}

// Option configures a LockManager
type Option func(*Options)

// WithExpiry sets the ttl of the locks
func WithExpiry(expiry time.Duration) Option {
	return func(o *Options) {
		o.Expiry = expiry
	}
}

// WithMinValidity sets the guaranteed validity of a freshly acquired lock
func WithMinValidity(minValidity time.Duration) Option {
	return func(o *Options) {
		o.MinValidity = minValidity
		o.minValiditySet = true
	}
}

// WithExtensionCadence sets the renewal interval, 0 disables automatic renewal
func WithExtensionCadence(cadence time.Duration) Option {
	return func(o *Options) {
		o.ExtensionCadence = cadence
		o.cadenceSet = true
	}
}

// WithBusyWait sets the bounds of the sleep between two attempts of a blocking acquire
func WithBusyWait(lo, hi time.Duration) Option {
	return func(o *Options) {
		o.BusyWaitMin = lo
		o.BusyWaitMax = hi
	}
}

// WithLockIDGenerator shares a lock id generator, for example one per process
func WithLockIDGenerator(gen *redlock.LockIDGenerator) Option {
	return func(o *Options) {
		o.LockIDs = gen
	}
}

// WithJanitorConcurrency bounds the number of background releases in flight
func WithJanitorConcurrency(n int) Option {
	return func(o *Options) {
		o.JanitorConcurrency = n
	}
}

// buildOptions applies opts to the defaults and validates the result
func buildOptions(opts ...Option) (Options, error) {
	o := Options{
		Expiry:      DefaultExpiry,
		BusyWaitMin: DefaultBusyWaitMin,
		BusyWaitMax: DefaultBusyWaitMax,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if !o.minValiditySet {
		o.MinValidity = o.Expiry / 10 * 9
	}
	if !o.cadenceSet {
		o.ExtensionCadence = o.Expiry / 3
	}
	if o.LockIDs == nil {
		o.LockIDs = redlock.NewLockIDGenerator()
	}
	return o, o.validate()
}

func (o Options) validate() error {
	switch {
	case o.Expiry < MinExpiry:
		return fmt.Errorf("%w: expiry must be at least %s, got %s", ErrInvalidOptions, MinExpiry, o.Expiry)
	case o.MinValidity <= 0 || o.MinValidity >= o.Expiry:
		return fmt.Errorf("%w: min validity must be in (0, %s), got %s", ErrInvalidOptions, o.Expiry, o.MinValidity)
	case o.ExtensionCadence < 0:
		return fmt.Errorf("%w: extension cadence must not be negative, got %s", ErrInvalidOptions, o.ExtensionCadence)
	case o.ExtensionCadence >= o.MinValidity:
		return fmt.Errorf("%w: extension cadence (%s) must be less than min validity (%s)", ErrInvalidOptions, o.ExtensionCadence, o.MinValidity)
	case o.BusyWaitMin < 0 || o.BusyWaitMin > o.BusyWaitMax:
		return fmt.Errorf("%w: busy wait bounds must satisfy 0 <= min <= max, got %s - %s", ErrInvalidOptions, o.BusyWaitMin, o.BusyWaitMax)
	}
	return nil
}

// timeouts returns the redlock representation of expiry and min validity
func (o Options) timeouts() (redlock.Timeouts, error) {
	return redlock.NewTimeouts(o.Expiry, o.MinValidity)
}
