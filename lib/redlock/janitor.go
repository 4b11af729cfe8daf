package redlock

import (
	"context"
	"github.com/ValentinKolb/dLock/lib/common"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/util"
	"github.com/lni/dragonboat/v4/logger"
	"sync"
	"time"
)

var Logger = logger.GetLogger("redlock")

const (
	// DefaultJanitorConcurrency bounds the number of background releases in flight
	DefaultJanitorConcurrency = 64
	// DefaultJanitorReleaseTimeout bounds a single background release
	DefaultJanitorReleaseTimeout = 5 * time.Second
)

// releaseRequest asks the janitor to release primitive on store once task resolved.
// Without a primitive the task is a release already in flight that is only awaited.
type releaseRequest struct {
	primitive Releasable
	store     store.IStore
	task      *Task
}

// Janitor performs fire-and-forget releases for operations that were still
// pending when a quorum decision was made. Requests are queued without
// blocking the caller and drained by a single consumer; every request then
// waits for its task and releases unless the task cleanly returned false.
// Errors are logged and dropped, the lock ttl is the final backstop.
type Janitor struct {
	queue          *util.MPSC[releaseRequest]
	slots          chan struct{}
	releaseTimeout time.Duration
	inflight       sync.WaitGroup
	done           chan struct{}
}

// NewJanitor creates a janitor and starts its consumer.
// Non positive arguments select the defaults.
func NewJanitor(concurrency int, releaseTimeout time.Duration) *Janitor {
	if concurrency <= 0 {
		concurrency = DefaultJanitorConcurrency
	}
	if releaseTimeout <= 0 {
		releaseTimeout = DefaultJanitorReleaseTimeout
	}
	j := &Janitor{
		queue:          util.NewMPSC[releaseRequest](),
		slots:          make(chan struct{}, concurrency),
		releaseTimeout: releaseTimeout,
		done:           make(chan struct{}),
	}
	go j.consume()
	return j
}

// ReleaseUponCompletion releases primitive on s once task completed, unless
// task cleanly returned false. It never blocks.
func (j *Janitor) ReleaseUponCompletion(primitive Releasable, s store.IStore, task *Task) {
	if task.ReturnedFalse() {
		// nothing was acquired, no need to queue anything
		common.RecordJanitorRelease(true)
		return
	}
	if !j.queue.Push(releaseRequest{primitive: primitive, store: s, task: task}) {
		Logger.Warningf("janitor closed, leaving release on store %s to the lock ttl", s.Name())
	}
}

// AwaitCompletion takes over a release of s that is already in flight, so
// Close waits for it. A failure is only logged. It never blocks.
func (j *Janitor) AwaitCompletion(s store.IStore, release *Task) {
	if release.IsCompleted() {
		j.logFailed(s, release)
		return
	}
	if !j.queue.Push(releaseRequest{store: s, task: release}) {
		Logger.Warningf("janitor closed, not waiting for the release on store %s", s.Name())
	}
}

// Pending returns the number of queued requests not yet picked up by the consumer
func (j *Janitor) Pending() int {
	return j.queue.Len()
}

// Close stops accepting requests and waits until all queued releases are done
func (j *Janitor) Close() {
	j.queue.Close()
	<-j.done
	j.inflight.Wait()
}

func (j *Janitor) consume() {
	defer close(j.done)

	for req := range j.queue.Recv() {
		j.slots <- struct{}{}
		j.inflight.Add(1)
		go func() {
			defer func() {
				<-j.slots
				j.inflight.Done()
			}()
			j.release(req)
		}()
	}
}

func (j *Janitor) release(req releaseRequest) {
	<-req.task.Done()
	if req.primitive == nil {
		j.logFailed(req.store, req.task)
		return
	}
	if req.task.ReturnedFalse() {
		common.RecordJanitorRelease(true)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.releaseTimeout)
	defer cancel()

	if err := req.primitive.Release(ctx, req.store, true); err != nil {
		Logger.Debugf("background release on store %s failed: %v", req.store.Name(), err)
	}
	common.RecordJanitorRelease(false)
}

func (j *Janitor) logFailed(s store.IStore, release *Task) {
	if _, err := release.Result(); err != nil {
		Logger.Debugf("background release on store %s failed: %v", s.Name(), err)
	}
}
