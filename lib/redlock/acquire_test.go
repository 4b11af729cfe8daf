package redlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJanitor(t *testing.T) *Janitor {
	t.Helper()
	j := NewJanitor(8, time.Second)
	t.Cleanup(j.Close)
	return j
}

func TestAcquireScenarios(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []outcome
		acquired bool
		quorum   bool // a *QuorumError is expected
	}{
		{"all granted", []outcome{granted, granted, granted}, true, false},
		{"one denied", []outcome{granted, denied, granted}, true, false},
		{"one fault", []outcome{faulted, granted, granted}, true, false},
		{"majority denied", []outcome{denied, granted, denied}, false, false},
		{"denied and fault", []outcome{denied, faulted, granted}, false, false},
		{"majority faulted", []outcome{faulted, faulted, granted}, false, true},
		{"all faulted", []outcome{faulted, faulted, faulted}, false, true},
		{"even split", []outcome{granted, granted, denied, denied}, false, false},
		{"even majority", []outcome{granted, granted, granted, denied}, true, false},
		{"five stores two faults", []outcome{faulted, granted, faulted, granted, granted}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores, _ := fakeStores(len(tt.outcomes))
			p := newFakePrimitive(time.Second)
			for i, o := range tt.outcomes {
				p.onAcquire(stores[i], o)
			}
			j := NewJanitor(8, time.Second)

			tasks, err := Acquire(context.Background(), p, stores, j)
			j.Close()

			if tt.quorum {
				var quorumErr *QuorumError
				require.True(t, errors.As(err, &quorumErr), "expected quorum error, got %v", err)
				assert.Equal(t, "acquire", quorumErr.Op)
				assert.ErrorIs(t, err, errFault)
				assert.Nil(t, tasks)
				return
			}
			require.NoError(t, err)

			if !tt.acquired {
				assert.Nil(t, tasks)
				// every store that did not cleanly deny was released
				for i, o := range tt.outcomes {
					if o.ok || o.err != nil {
						assert.Equal(t, 1, p.releasedOn(stores[i].Name()), "store %d", i)
					} else {
						assert.Zero(t, p.releasedOn(stores[i].Name()), "store %d", i)
					}
				}
				return
			}

			require.Len(t, tasks, len(stores))
			successes := 0
			for _, task := range tasks {
				if task.Succeeded() {
					successes++
				}
			}
			assert.True(t, HasSufficientSuccesses(successes, len(stores)))
			assert.Empty(t, p.releaseCalls())
		})
	}
}

func TestAcquireReturnsOnMajority(t *testing.T) {
	stores, _ := fakeStores(3)
	slow, gate := blocked(true)
	p := newFakePrimitive(time.Second).
		onAcquire(stores[0], granted).
		onAcquire(stores[1], granted).
		onAcquire(stores[2], slow)
	j := newTestJanitor(t)

	started := time.Now()
	tasks, err := Acquire(context.Background(), p, stores, j)
	require.NoError(t, err)
	require.NotNil(t, tasks)
	assert.Less(t, time.Since(started), 500*time.Millisecond)

	// the slow store is still part of the lock
	assert.False(t, tasks[stores[2]].IsCompleted())
	close(gate)
	ok, err := tasks[stores[2]].Result()
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestAcquireTimeoutHandsPendingToJanitor(t *testing.T) {
	stores, _ := fakeStores(3)
	late, gate := blocked(true)
	p := newFakePrimitive(50 * time.Millisecond).
		onAcquire(stores[0], granted).
		onAcquire(stores[1], late).
		onAcquire(stores[2], late)
	j := NewJanitor(8, time.Second)

	started := time.Now()
	tasks, err := Acquire(context.Background(), p, stores, j)
	require.NoError(t, err)
	assert.Nil(t, tasks)
	assert.GreaterOrEqual(t, time.Since(started), 50*time.Millisecond)

	// the granted store was released right away, the late ones after they completed
	assert.Equal(t, 1, p.releasedOn(stores[0].Name()))
	close(gate)
	j.Close()
	assert.Equal(t, 1, p.releasedOn(stores[1].Name()))
	assert.Equal(t, 1, p.releasedOn(stores[2].Name()))
}

func TestAcquireLateDenialIsNotReleased(t *testing.T) {
	stores, _ := fakeStores(3)
	late, gate := blocked(false)
	p := newFakePrimitive(20 * time.Millisecond).
		onAcquire(stores[0], denied).
		onAcquire(stores[1], late).
		onAcquire(stores[2], late)
	j := NewJanitor(8, time.Second)

	tasks, err := Acquire(context.Background(), p, stores, j)
	require.NoError(t, err)
	assert.Nil(t, tasks)

	close(gate)
	j.Close()
	assert.Empty(t, p.releaseCalls())
}

func TestAcquireCancelled(t *testing.T) {
	stores, _ := fakeStores(3)
	slow, gate := blocked(true)
	defer close(gate)
	p := newFakePrimitive(time.Minute)
	for _, s := range stores {
		p.onAcquire(s, slow)
	}
	j := newTestJanitor(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	tasks, err := Acquire(ctx, p, stores, j)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, tasks)
}

func TestAcquireAlreadyCancelled(t *testing.T) {
	stores, _ := fakeStores(3)
	p := newFakePrimitive(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Acquire(ctx, p, stores, newTestJanitor(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.acquireCalls[stores[0].Name()])
}

func TestAcquireDisconnectedFastPath(t *testing.T) {
	stores, fakes := fakeStores(3)
	hanging, gate := blocked(false)
	p := newFakePrimitive(time.Minute).
		onAcquire(stores[0], granted).
		onAcquire(stores[1], hanging).
		onAcquire(stores[2], hanging)
	fakes[1].connected.Store(false)
	fakes[2].connected.Store(false)
	j := NewJanitor(8, time.Second)

	started := time.Now()
	tasks, err := Acquire(context.Background(), p, stores, j)
	assert.Nil(t, tasks)
	assert.Less(t, time.Since(started), time.Second)

	var quorumErr *QuorumError
	require.True(t, errors.As(err, &quorumErr), "expected quorum error, got %v", err)
	assert.Len(t, quorumErr.Errors, 2)

	close(gate)
	j.Close()
	assert.Equal(t, 1, p.releasedOn(stores[0].Name()))
}

func TestAcquireWaitsForConnectedStores(t *testing.T) {
	stores, fakes := fakeStores(3)
	slow := outcome{ok: true, delay: 30 * time.Millisecond}
	p := newFakePrimitive(time.Second).
		onAcquire(stores[0], granted).
		onAcquire(stores[1], slow).
		onAcquire(stores[2], slow)
	// only one pending store is down, the other one can still decide
	fakes[2].connected.Store(false)

	tasks, err := Acquire(context.Background(), p, stores, newTestJanitor(t))
	require.NoError(t, err)
	assert.NotNil(t, tasks)
}

func TestAcquireSingleStore(t *testing.T) {
	t.Run("granted", func(t *testing.T) {
		stores, _ := fakeStores(1)
		p := newFakePrimitive(time.Second).onAcquire(stores[0], granted)

		tasks, err := Acquire(context.Background(), p, stores, newTestJanitor(t))
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.True(t, tasks[stores[0]].Succeeded())
	})

	t.Run("denied", func(t *testing.T) {
		stores, _ := fakeStores(1)
		p := newFakePrimitive(time.Second).onAcquire(stores[0], denied)

		tasks, err := Acquire(context.Background(), p, stores, newTestJanitor(t))
		require.NoError(t, err)
		assert.Nil(t, tasks)
		assert.Empty(t, p.releaseCalls())
	})

	t.Run("fault", func(t *testing.T) {
		stores, _ := fakeStores(1)
		p := newFakePrimitive(time.Second).onAcquire(stores[0], faulted)

		tasks, err := Acquire(context.Background(), p, stores, newTestJanitor(t))
		assert.Nil(t, tasks)
		var quorumErr *QuorumError
		require.True(t, errors.As(err, &quorumErr))
		assert.ErrorIs(t, err, errFault)
	})

	t.Run("granted too late", func(t *testing.T) {
		stores, _ := fakeStores(1)
		p := newFakePrimitive(10*time.Millisecond).onAcquire(stores[0], outcome{ok: true, delay: 40 * time.Millisecond})
		j := NewJanitor(8, time.Second)

		started := time.Now()
		tasks, err := Acquire(context.Background(), p, stores, j)
		require.NoError(t, err)
		assert.Nil(t, tasks)
		assert.Less(t, time.Since(started), 40*time.Millisecond, "waited past the acquire timeout")

		// the late grant is released in the background
		j.Close()
		require.Len(t, p.releaseCalls(), 1)
		assert.True(t, p.releaseCalls()[0].fireAndForget)
	})

	t.Run("cancelled while pending", func(t *testing.T) {
		stores, _ := fakeStores(1)
		hanging, gate := blocked(true)
		p := newFakePrimitive(time.Second).onAcquire(stores[0], hanging)
		j := NewJanitor(8, time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		started := time.Now()
		tasks, err := Acquire(ctx, p, stores, j)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Nil(t, tasks)
		assert.Less(t, time.Since(started), 500*time.Millisecond, "cancellation was not honored")

		close(gate)
		j.Close()
		assert.Equal(t, 1, p.releasedOn(stores[0].Name()))
	})

	t.Run("timeout while pending", func(t *testing.T) {
		stores, _ := fakeStores(1)
		hanging, gate := blocked(true)
		p := newFakePrimitive(30*time.Millisecond).onAcquire(stores[0], hanging)
		j := NewJanitor(8, time.Second)

		started := time.Now()
		tasks, err := Acquire(context.Background(), p, stores, j)
		require.NoError(t, err)
		assert.Nil(t, tasks)
		assert.Less(t, time.Since(started), 500*time.Millisecond)

		close(gate)
		j.Close()
		assert.Equal(t, 1, p.releasedOn(stores[0].Name()))
	})

	t.Run("denied after the context ended", func(t *testing.T) {
		stores, _ := fakeStores(1)
		ctx, cancel := context.WithCancel(context.Background())
		p := newFakePrimitive(time.Second).onAcquire(stores[0], outcome{delay: 30 * time.Millisecond})
		time.AfterFunc(5*time.Millisecond, cancel)

		tasks, err := Acquire(ctx, p, stores, newTestJanitor(t))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, tasks)
	})
}

func TestAcquireWithoutStores(t *testing.T) {
	_, err := Acquire(context.Background(), newFakePrimitive(time.Second), nil, newTestJanitor(t))
	assert.ErrorIs(t, err, ErrNoStores)
}
