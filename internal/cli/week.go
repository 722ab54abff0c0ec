package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Week tracking commands",
}

var weekInitCmd = &cobra.Command{
	Use:   "init <week-number>",
	Short: "Start tracking the tasks of a week",
	Long: `Create an incomplete performance record for every task of the given week
that is not tracked yet. Tasks already tracked keep their status, so running
the command twice is harmless.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession()
		if err != nil {
			return err
		}
		week, err := parseWeekArg(args[0])
		if err != nil {
			return err
		}

		before := s.Store().Len()
		if err := s.InitializeWeekTracking(commandContext(cmd), week); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Week %d: tracking %d new task(s)\n", week, s.Store().Len()-before)
		if s.NeedsReplanning() {
			_, _ = fmt.Fprintln(out, "Plan has flagged tasks; run 'sb replan' to redistribute them.")
		}
		return nil
	},
}

func parseWeekArg(s string) (int, error) {
	week, err := strconv.Atoi(s)
	if err != nil || week < 1 {
		return 0, fmt.Errorf("invalid week number %q: must be a positive integer", s)
	}
	return week, nil
}

func init() {
	weekCmd.AddCommand(weekInitCmd)
	rootCmd.AddCommand(weekCmd)
}
