package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/study-brain/internal/core"
)

var loadCmd = &cobra.Command{
	Use:   "load [plan-id]",
	Short: "Load (and cache locally) a plan's performance record",
	Long: `Load the performance record of a plan and print how many tasks it tracks.

The local store is read first. When it holds nothing for the plan the remote
store (if configured) is consulted and its copy cached locally, so a record
synced from another machine can be pulled with:

  sb load step1

The plan stays active for this invocation only; later commands use plan.id
from .studyconfig. Without an argument the configured plan is reloaded.`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 || StoreMgr == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		plans, err := StoreMgr.ListPlans()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return plans, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession()
		if err != nil {
			return err
		}
		planID := ""
		if len(args) == 1 {
			planID = args[0]
		}

		store, err := s.LoadStore(commandContext(cmd), planID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Loaded plan %s: %d tracked task(s)\n", s.PlanID(), store.Len())
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the performance record to the remote store",
	Long: `Push the in-memory performance record of the active plan to the remote
store configured under remote.database in .studyconfig.

A failed sync leaves the local record untouched and can simply be retried.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession()
		if err != nil {
			return err
		}
		if err := s.SyncStore(commandContext(cmd), ""); err != nil {
			if errors.Is(err, core.ErrNoRemote) {
				return fmt.Errorf("%w (set remote.database in .studyconfig)", err)
			}
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Synced plan %s (%d record(s))\n", s.PlanID(), s.Store().Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(syncCmd)
}
