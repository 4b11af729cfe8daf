package primitives

import (
	"context"
	"github.com/ValentinKolb/dLock/lib/redlock"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"time"
)

var Logger = logger.GetLogger("primitives")

// base holds what all primitives share: the lock id of the attempt and its timeouts
type base struct {
	lockID   string
	timeouts redlock.Timeouts
}

// LockID returns the token stored on behalf of this attempt
func (b *base) LockID() string {
	return b.lockID
}

// AcquireTimeout implements redlock.Acquirable and redlock.Extensible
func (b *base) AcquireTimeout() time.Duration {
	return b.timeouts.AcquireTimeout()
}

// IsConnected implements redlock.Releasable
func (b *base) IsConnected(s store.IStore) bool {
	return s.IsConnected()
}

// run executes a script and maps its reply to a bool
func run(ctx context.Context, s store.IStore, script *store.Script, keys []string, args ...interface{}) (bool, error) {
	res, err := s.EvalInt(ctx, script, keys, args...)
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// release executes a release script. With fireAndForget errors are logged and dropped.
func release(ctx context.Context, s store.IStore, fireAndForget bool, script *store.Script, keys []string, args ...interface{}) error {
	_, err := s.EvalInt(ctx, script, keys, args...)
	if err != nil && fireAndForget {
		Logger.Debugf("ignoring failed %s on store %s: %v", script.Name(), s.Name(), err)
		return nil
	}
	return err
}
