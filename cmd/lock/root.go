package lock

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/spf13/cobra"
	"time"
)

var (
	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:               "lock",
		Short:             "Perform lock operations",
		PersistentPreRunE: util.BindCommandFlags,
	}

	// acquireCmd represents the acquire command
	acquireCmd = &cobra.Command{
		Use:   "acquire [name]",
		Short: "Acquire a lock",
		Long:  "Acquire a lock without auto-extension. The lock is held until it is released with the printed lock id or until it expires.",
		Args:  cobra.ExactArgs(1),
		RunE:  runAcquire,
	}

	// releaseCmd represents the release command
	releaseCmd = &cobra.Command{
		Use:   "release [name] [lockID]",
		Short: "Release a previously acquired lock",
		Long:  "Release a lock using its name and lock id. The lock id is the one printed by the acquire command.",
		Args:  cobra.ExactArgs(2),
		RunE:  runRelease,
	}

	// runCmd represents the run command
	runCmd = &cobra.Command{
		Use:   "run [name] -- [command...]",
		Short: "Run a command while holding a lock",
		Long:  "Acquire the lock, run the command while renewing the lock and release it afterwards. The command is stopped if the lock is lost.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runRun,
	}
)

func init() {
	// Add subcommands to lock command
	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)
	LockCommands.AddCommand(runCmd)

	// Add common client flags to the lock command
	util.SetupClientFlags(LockCommands)
}

// runAcquire handles the acquire lock command
func runAcquire(cmd *cobra.Command, args []string) error {
	name := args[0]

	// the process exits right away, renewing makes no sense
	client, err := util.NewClient(util.GetClientConfig(), lockmgr.WithExtensionCadence(0))
	if err != nil {
		return err
	}
	defer client.CloseKeepingLocks(context.Background())

	h, err := client.Manager.NewLock(name).Acquire(cmd.Context(), util.Timeout(client.Config))
	if errors.Is(err, lockmgr.ErrTimeout) {
		fmt.Printf("acquired=false\n")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	fmt.Printf("acquired=true, lockId=%s\n", h.LockID())
	return nil
}

// runRelease handles the release lock command
func runRelease(cmd *cobra.Command, args []string) error {
	name, lockID := args[0], args[1]

	client, err := util.NewClient(util.GetClientConfig())
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	if err := client.Manager.NewLock(name).ReleaseLockID(ctx, lockID); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	fmt.Printf("released=true\n")
	return nil
}

// runRun handles the run command
func runRun(cmd *cobra.Command, args []string) error {
	name := args[0]
	return util.AcquireAndRun(cmd.Context(), name, args[1:], func(ctx context.Context, mgr *lockmgr.LockManager, timeout time.Duration) (*lockmgr.LockHandle, error) {
		return mgr.NewLock(name).Acquire(ctx, timeout)
	})
}
