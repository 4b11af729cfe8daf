package util

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"os"
	"os/exec"
	"sync/atomic"
	"time"
)

// ErrLockLost is returned when the lock was lost while the command was running
var ErrLockLost = errors.New("lock lost while running command")

// killGrace is the time a command gets to exit after SIGTERM before it is killed
const killGrace = 5 * time.Second

// RunLocked runs argv while h is held. The command is stopped when the lock is
// lost or ctx is cancelled. The lock is released once the command exited.
func RunLocked(ctx context.Context, h *lockmgr.LockHandle, argv []string) error {
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), killGrace)
		defer cancel()
		if err := h.Release(releaseCtx); err != nil {
			Logger.Warningf("failed to release %s: %v", h.Name(), err)
		}
	}()

	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "DLOCK_LOCK_ID="+h.LockID())
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = killGrace

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	var lost atomic.Bool
	go func() {
		select {
		case <-h.Lost():
			Logger.Errorf("lock %s lost, stopping %s", h.Name(), argv[0])
			lost.Store(true)
			cancel()
		case <-cmdCtx.Done():
		}
	}()

	err := cmd.Wait()
	cancel()
	if lost.Load() {
		return ErrLockLost
	}
	return err
}

// AcquireFunc acquires one lock through mgr, waiting at most timeout
type AcquireFunc func(ctx context.Context, mgr *lockmgr.LockManager, timeout time.Duration) (*lockmgr.LockHandle, error)

// AcquireAndRun creates a client from the current configuration, acquires a
// lock with acquire and runs argv while holding it.
func AcquireAndRun(ctx context.Context, name string, argv []string, acquire AcquireFunc) error {
	if len(argv) == 0 {
		return errors.New("no command given, use: -- CMD [ARGS...]")
	}

	client, err := NewClient(GetClientConfig())
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), killGrace)
		defer cancel()
		_ = client.Close(closeCtx)
	}()

	h, err := acquire(ctx, client.Manager, Timeout(client.Config))
	if err != nil {
		return fmt.Errorf("could not acquire %s: %w", name, err)
	}
	Logger.Infof("acquired %s (%s)", name, h.LockID())

	return RunLocked(ctx, h, argv)
}
