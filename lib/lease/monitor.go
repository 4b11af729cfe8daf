package lease

import (
	"context"
	"github.com/lni/dragonboat/v4/logger"
	"sync"
	"time"
)

var Logger = logger.GetLogger("lease")

// State is the verdict of a single renew-or-validate call
type State int

const (
	// StateUnknown means the call could not tell whether the lease is still held
	StateUnknown State = iota
	// StateRenewed means the lease was renewed for another lease duration
	StateRenewed
	// StateHeld means the lease is still valid but was not renewed
	StateHeld
	// StateLost means the lease is definitely gone
	StateLost
)

func (s State) String() string {
	switch s {
	case StateRenewed:
		return "renewed"
	case StateHeld:
		return "held"
	case StateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Handle is the capability a monitored lease has to provide
type Handle interface {
	// LeaseDuration is how long the lease stays valid after it was last confirmed
	LeaseDuration() time.Duration
	// MonitoringCadence is the interval between two RenewOrValidate calls (<= 0 disables monitoring)
	MonitoringCadence() time.Duration
	// RenewOrValidate renews the lease, or checks that it is still valid if renewal is disabled
	RenewOrValidate(ctx context.Context) (State, error)
}

// Monitor periodically renews or validates a lease and signals when it is lost.
type Monitor struct {
	handle    Handle
	lost      chan struct{}
	lostOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewMonitor starts monitoring h
func NewMonitor(h Handle) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Monitor{
		handle: h,
		lost:   make(chan struct{}),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go m.run(ctx)
	return m
}

// Lost is closed once the lease is known to be lost. It is never closed by Close.
func (m *Monitor) Lost() <-chan struct{} {
	return m.lost
}

// IsLost reports whether Lost was already signaled
func (m *Monitor) IsLost() bool {
	select {
	case <-m.lost:
		return true
	default:
		return false
	}
}

// Close stops monitoring. An in-flight RenewOrValidate call is cancelled and
// waited for, so the handle is not used by the monitor after Close returns.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
		m.cancel()
	})
	<-m.done
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	cadence := m.handle.MonitoringCadence()
	if cadence <= 0 {
		<-m.stop
		return
	}

	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	lastConfirmed := time.Now()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
		}

		callCtx, callCancel := context.WithTimeout(ctx, m.handle.LeaseDuration())
		state, err := m.handle.RenewOrValidate(callCtx)
		callCancel()

		select {
		case <-m.stop:
			return
		default:
		}

		if err != nil {
			Logger.Warningf("lease check failed: %v", err)
			state = StateUnknown
		}

		switch state {
		case StateRenewed:
			lastConfirmed = time.Now()
		case StateHeld:
		case StateLost:
			m.signalLost()
			return
		default:
			if since := time.Since(lastConfirmed); since >= m.handle.LeaseDuration() {
				Logger.Warningf("lease not confirmed for %s (lease duration %s), considering it lost", since, m.handle.LeaseDuration())
				m.signalLost()
				return
			}
		}
	}
}

func (m *Monitor) signalLost() {
	m.lostOnce.Do(func() {
		close(m.lost)
	})
}
