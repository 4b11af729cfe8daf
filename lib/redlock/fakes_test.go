package redlock

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dLock/lib/store"
	"sync"
	"sync/atomic"
	"time"
)

// fakeStore only carries a name and a connection flag, the fake primitive never calls it
type fakeStore struct {
	name      string
	connected atomic.Bool
}

func newFakeStore(name string) *fakeStore {
	s := &fakeStore{name: name}
	s.connected.Store(true)
	return s
}

func (s *fakeStore) Name() string { return s.name }

func (s *fakeStore) EvalInt(context.Context, *store.Script, []string, ...interface{}) (int64, error) {
	return 0, errors.New("fake store does not run scripts")
}

func (s *fakeStore) IsConnected() bool { return s.connected.Load() }

func (s *fakeStore) Close() error { return nil }

func fakeStores(n int) ([]store.IStore, []*fakeStore) {
	stores := make([]store.IStore, n)
	fakes := make([]*fakeStore, n)
	for i := range stores {
		fakes[i] = newFakeStore(fmt.Sprintf("store-%d", i))
		stores[i] = fakes[i]
	}
	return stores, fakes
}

// outcome scripts the reply of one store
type outcome struct {
	ok    bool
	err   error
	delay time.Duration
	block chan struct{} // if set, the call waits until it is closed
}

var (
	granted  = outcome{ok: true}
	denied   = outcome{}
	errFault = errors.New("connection reset")
	faulted  = outcome{err: errFault}
)

func blocked(ok bool) (outcome, chan struct{}) {
	ch := make(chan struct{})
	return outcome{ok: ok, block: ch}, ch
}

type releaseCall struct {
	store         string
	fireAndForget bool
}

// fakePrimitive replies with scripted outcomes per store name and records every call
type fakePrimitive struct {
	timeout time.Duration

	mu           sync.Mutex
	acquire      map[string]outcome
	extend       map[string]outcome
	releaseErr   map[string]error
	releaseGate  map[string]chan struct{}
	acquireCalls map[string]int
	extendCalls  map[string]int
	releases     []releaseCall
}

func newFakePrimitive(timeout time.Duration) *fakePrimitive {
	return &fakePrimitive{
		timeout:      timeout,
		acquire:      map[string]outcome{},
		extend:       map[string]outcome{},
		releaseErr:   map[string]error{},
		releaseGate:  map[string]chan struct{}{},
		acquireCalls: map[string]int{},
		extendCalls:  map[string]int{},
	}
}

func (p *fakePrimitive) onAcquire(s store.IStore, o outcome) *fakePrimitive {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquire[s.Name()] = o
	return p
}

func (p *fakePrimitive) onExtend(s store.IStore, o outcome) *fakePrimitive {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extend[s.Name()] = o
	return p
}

func (p *fakePrimitive) onRelease(s store.IStore, err error) *fakePrimitive {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseErr[s.Name()] = err
	return p
}

// onReleaseBlocked makes releases on s hang until the returned channel is closed
func (p *fakePrimitive) onReleaseBlocked(s store.IStore) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan struct{})
	p.releaseGate[s.Name()] = ch
	return ch
}

func (o outcome) run(ctx context.Context) (bool, error) {
	if o.block != nil {
		select {
		case <-o.block:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if o.delay > 0 {
		time.Sleep(o.delay)
	}
	return o.ok, o.err
}

func (p *fakePrimitive) TryAcquire(ctx context.Context, s store.IStore) (bool, error) {
	p.mu.Lock()
	p.acquireCalls[s.Name()]++
	o := p.acquire[s.Name()]
	p.mu.Unlock()
	return o.run(ctx)
}

func (p *fakePrimitive) TryExtend(ctx context.Context, s store.IStore) (bool, error) {
	p.mu.Lock()
	p.extendCalls[s.Name()]++
	o := p.extend[s.Name()]
	p.mu.Unlock()
	return o.run(ctx)
}

func (p *fakePrimitive) Release(ctx context.Context, s store.IStore, fireAndForget bool) error {
	p.mu.Lock()
	p.releases = append(p.releases, releaseCall{store: s.Name(), fireAndForget: fireAndForget})
	gate := p.releaseGate[s.Name()]
	err := p.releaseErr[s.Name()]
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fireAndForget {
		return nil
	}
	return err
}

func (p *fakePrimitive) IsConnected(s store.IStore) bool {
	return s.IsConnected()
}

func (p *fakePrimitive) AcquireTimeout() time.Duration {
	return p.timeout
}

// releasedOn returns how often the primitive was released on the named store
func (p *fakePrimitive) releasedOn(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.releases {
		if r.store == name {
			n++
		}
	}
	return n
}

func (p *fakePrimitive) releaseCalls() []releaseCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]releaseCall(nil), p.releases...)
}

func (p *fakePrimitive) extendCallsOn(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.extendCalls[name]
}

var _ Primitive = (*fakePrimitive)(nil)
