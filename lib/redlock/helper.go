package redlock

import (
	"fmt"
	"github.com/google/uuid"
	"os"
)

// --------------------------------------------------------------------------
// Quorum arithmetic
// --------------------------------------------------------------------------

// HasSufficientSuccesses reports whether successCount is a majority of databaseCount
func HasSufficientSuccesses(successCount, databaseCount int) bool {
	return successCount >= databaseCount/2+1
}

// HasTooManyFailuresOrFaults reports whether count failures make a majority of successes impossible.
// For an even databaseCount exactly half the stores failing is already enough.
func HasTooManyFailuresOrFaults(count, databaseCount int) bool {
	return count >= databaseCount/2+databaseCount%2
}

// --------------------------------------------------------------------------
// Lock ids
// --------------------------------------------------------------------------

// LockIDGenerator creates lock ids that are unique across processes and attempts.
// The prefix identifies the process, the suffix is random per call.
type LockIDGenerator struct {
	prefix string
}

// NewLockIDGenerator derives the prefix from the host name and process id.
// It should be created once per process and handed to everything that acquires locks.
func NewLockIDGenerator() *LockIDGenerator {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return NewLockIDGeneratorWithPrefix(fmt.Sprintf("%s_%d", host, os.Getpid()))
}

// NewLockIDGeneratorWithPrefix creates a generator with an explicit process prefix
func NewLockIDGeneratorWithPrefix(prefix string) *LockIDGenerator {
	return &LockIDGenerator{prefix: prefix}
}

// Prefix returns the process prefix of all generated ids
func (g *LockIDGenerator) Prefix() string {
	return g.prefix
}

// New returns a fresh lock id
func (g *LockIDGenerator) New() string {
	return g.prefix + "_" + uuid.NewString()
}
