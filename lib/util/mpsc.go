// Package util provides a lock-free Multi-Producer Single-Consumer (MPSC) queue.
//
// The queue is used to hand work from latency sensitive callers (lock acquire
// and release paths) to a single background consumer without ever blocking
// the caller.
//
// Features and Guarantees:
//
//   - Lock-Free Push: producers only use atomic operations, Push never blocks
//   - Unbounded Size: the queue can grow to any size as needed, limited only by available memory
//   - Single Consumer: values are delivered to one goroutine through the Recv() channel
//   - Drain on Close: values pushed before Close are still delivered, then Recv() is closed
//   - No Strict FIFO Guarantee across producers: concurrent pushes are ordered by
//     which producer completes its CAS first
package util

import (
	"runtime"
	"sync/atomic"
)

// node represents a single element in the queue
type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// MPSC is a lock-free multi-producer single-consumer queue.
// It is a linked list with a sentinel head; producers CAS onto the tail.
type MPSC[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	out    chan T
	notify chan struct{} // capacity 1, coalesces wake ups of the consumer
	closed atomic.Bool
	length atomic.Int64
}

// NewMPSC creates a new queue and starts its delivery goroutine
func NewMPSC[T any]() *MPSC[T] {
	sentinel := &node[T]{}

	q := &MPSC[T]{
		out:    make(chan T),
		notify: make(chan struct{}, 1),
	}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	go q.deliver()

	return q
}

// Push adds a value to the queue.
// Returns false if the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *MPSC[T]) Push(value T) bool {
	if q.closed.Load() {
		return false
	}

	newNode := &node[T]{value: value}

	var spins uint8
	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// another producer may already have moved the tail, that is fine
				q.tail.CompareAndSwap(tailNode, newNode)
				q.length.Add(1)
				q.wake()
				return true
			}
		} else {
			// help a producer that appended but did not move the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// back off under contention
		if spins < 8 {
			spins++
			for i := 0; i < 1<<spins; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// wake signals the consumer without blocking
func (q *MPSC[T]) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// deliver moves values from the linked list to the output channel
func (q *MPSC[T]) deliver() {
	defer close(q.out)

	var zero T
	for {
		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}

			value := next.value
			q.head.Store(next)
			q.out <- value
			q.length.Add(-1)

			// next is the new sentinel, drop the reference to the value for the gc
			next.value = zero
		}

		if q.closed.Load() {
			// a producer may have appended between the last check and Close
			if q.head.Load().next.Load() == nil {
				return
			}
			continue
		}

		<-q.notify
	}
}

// Recv returns the channel the consumer reads from.
// It is closed once the queue is closed and drained.
func (q *MPSC[T]) Recv() <-chan T {
	return q.out
}

// Close prevents further pushes. Values already queued are still delivered.
func (q *MPSC[T]) Close() {
	q.closed.Store(true)
	q.wake()
}

// IsClosed returns true if the queue is closed.
func (q *MPSC[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns the number of values that were pushed but not yet handed to the consumer.
func (q *MPSC[T]) Len() int {
	return int(q.length.Load())
}
