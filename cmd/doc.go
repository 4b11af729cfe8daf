// Package cmd implements the command-line interface of dLock. It provides
// commands to acquire and release locks and to run other programs while a
// lock is held.
//
// The package is organized into several subpackages:
//
//   - lock: Commands for exclusive locks (acquire, release, run)
//   - semaphore: Commands for semaphores (run)
//   - rwlock: Commands for reader/writer locks (run)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set as environment variables with the prefix DLOCK_
// (e.g. DLOCK_ENDPOINTS=redis://a:6379,redis://b:6379,redis://c:6379), or in
// a .env / .env.local file.
//
// See dlock -help for a list of all commands.
package cmd
