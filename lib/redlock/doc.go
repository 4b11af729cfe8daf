// Package redlock implements the quorum protocol used by all dLock primitives.
//
// A lock is held when a majority of N independent stores granted it. The
// package knows nothing about keys or scripts; it drives any primitive that
// implements Acquirable, Extensible and Releasable against a set of stores.
//
// Protocols:
//
//   - Acquire: TryAcquire is started on every store at once. The call returns
//     as soon as a majority succeeded, a majority became impossible, the
//     acquire timeout (expiry - minValidity) elapsed or the context was
//     cancelled. With a single store the same bounds apply to the one call. Stores still pending at that point keep running; on a failed
//     acquire the janitor releases them once they complete.
//   - Extend: TryExtend is started on every store whose previous operation
//     completed. The result is ternary (renewed, lost, inconclusive).
//   - Release: every store is released in parallel as soon as its latest
//     operation completes. The call returns once a majority confirmed; slow
//     stores are left to the janitor.
//
// Quorum arithmetic:
//
//	majority            = n/2 + 1
//	too many failures   = n/2 + n%2
//
// With an even n, exactly half of the stores failing already makes a
// majority impossible.
//
// Faults (store errors) and failures (clean refusals) are counted apart
// during acquire. When faults alone make a majority impossible a
// *QuorumError wrapping every store error is returned; when failures and
// faults together do, the lock is simply not acquired.
//
// Handle ties the tasks of a successful acquire to a lease.Monitor, which
// keeps the lock alive and signals when it is lost.
//
// Usage Example:
//
//	janitor := redlock.NewJanitor(0, 0)
//	defer janitor.Close()
//
//	tasks, err := redlock.Acquire(ctx, mutex, stores, janitor)
//	if err != nil || tasks == nil {
//	    // not acquired
//	}
//	h := redlock.NewHandle(mutex, tasks, janitor, redlock.HandleOptions{
//	    LeaseDuration:    30 * time.Second,
//	    ExtensionCadence: 10 * time.Second,
//	})
//	defer h.Release(ctx)
package redlock
