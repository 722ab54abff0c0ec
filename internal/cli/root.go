package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "sb",
	Short: "Study Brain - adaptive study plan tracking and replanning",
	Long: `Study Brain (sb) tracks how a learner performs on a multi-week study
schedule and adapts the plan when tasks are skipped, left incomplete or not
understood.

It records task statuses, redistributes flagged tasks into later weeks as
review sessions, reports overall progress and syncs the performance record
to a remote store.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "sb %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
