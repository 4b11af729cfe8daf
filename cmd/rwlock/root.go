package rwlock

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/spf13/cobra"
	"time"
)

var (
	mode string

	// RWLockCommands represents the reader/writer lock command group
	RWLockCommands = &cobra.Command{
		Use:               "rwlock",
		Short:             "Perform reader/writer lock operations",
		PersistentPreRunE: util.BindCommandFlags,
	}

	// runCmd represents the run command
	runCmd = &cobra.Command{
		Use:   "run [name] -- [command...]",
		Short: "Run a command while holding a read or write lock",
		Long:  "Acquire the read or write side of the lock, run the command while renewing the lock and release it afterwards. A waiting writer turns away new readers.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runRun,
	}
)

func init() {
	RWLockCommands.AddCommand(runCmd)
	util.SetupClientFlags(RWLockCommands)

	runCmd.Flags().StringVar(&mode, "mode", "read", util.WrapString("Side of the lock to acquire (read, write)"))
}

// runRun handles the run command
func runRun(cmd *cobra.Command, args []string) error {
	name := args[0]

	var acquire util.AcquireFunc
	switch mode {
	case "read":
		acquire = func(ctx context.Context, mgr *lockmgr.LockManager, timeout time.Duration) (*lockmgr.LockHandle, error) {
			return mgr.NewReaderWriterLock(name).AcquireReadLock(ctx, timeout)
		}
	case "write":
		acquire = func(ctx context.Context, mgr *lockmgr.LockManager, timeout time.Duration) (*lockmgr.LockHandle, error) {
			return mgr.NewReaderWriterLock(name).AcquireWriteLock(ctx, timeout)
		}
	default:
		return fmt.Errorf("invalid mode %q, expected read or write", mode)
	}

	return util.AcquireAndRun(cmd.Context(), name, args[1:], acquire)
}
