package semaphore

import (
	"context"
	"github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/spf13/cobra"
	"time"
)

var (
	maxCount int

	// SemaphoreCommands represents the semaphore command group
	SemaphoreCommands = &cobra.Command{
		Use:               "semaphore",
		Short:             "Perform semaphore operations",
		PersistentPreRunE: util.BindCommandFlags,
	}

	// runCmd represents the run command
	runCmd = &cobra.Command{
		Use:   "run [name] -- [command...]",
		Short: "Run a command while holding a semaphore ticket",
		Long:  "Acquire one of the max-count tickets of the semaphore, run the command while renewing the ticket and release it afterwards. All users of a semaphore must use the same max-count.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runRun,
	}
)

func init() {
	SemaphoreCommands.AddCommand(runCmd)
	util.SetupClientFlags(SemaphoreCommands)

	runCmd.Flags().IntVar(&maxCount, "max-count", 1, util.WrapString("Number of holders the semaphore admits at the same time"))
}

// runRun handles the run command
func runRun(cmd *cobra.Command, args []string) error {
	name := args[0]
	return util.AcquireAndRun(cmd.Context(), name, args[1:], func(ctx context.Context, mgr *lockmgr.LockManager, timeout time.Duration) (*lockmgr.LockHandle, error) {
		sem, err := mgr.NewSemaphore(name, maxCount)
		if err != nil {
			return nil, err
		}
		return sem.Acquire(ctx, timeout)
	})
}
