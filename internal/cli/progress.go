package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var progressJSON bool

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show completion progress of the active plan",
	Long: `Show the share of completed tasks, completed study days and the estimated
completion date of the active plan, followed by per-week and per-subject
breakdowns.

Figures come from the tracked records when any exist and from the schedule
otherwise.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession()
		if err != nil {
			return err
		}
		p := s.ComputeProgress()
		out := cmd.OutOrStdout()

		if progressJSON {
			data, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting progress as JSON: %w", err)
			}
			_, _ = fmt.Fprintln(out, string(data))
			return nil
		}

		_, _ = fmt.Fprintf(out, "Plan %s: %d%% complete\n\n", s.PlanID(), p.Percent)
		_, _ = fmt.Fprintf(out, "  %-24s %d / %d\n", "Tasks completed:", p.CompletedTasks, p.TotalTasks)
		_, _ = fmt.Fprintf(out, "  %-24s %d / %d\n", "Study days completed:", p.CompletedDays, p.TotalDays)
		_, _ = fmt.Fprintf(out, "  %-24s %s\n", "Estimated completion:", p.EstimateLabel())

		if len(p.Weeks) > 0 {
			_, _ = fmt.Fprintln(out, "\n  By week:")
			for _, w := range p.Weeks {
				_, _ = fmt.Fprintf(out, "    week %-3d %3d/%-3d tasks  %d/%d days\n",
					w.WeekNumber, w.CompletedTasks, w.TotalTasks, w.CompletedDays, w.TotalDays)
			}
		}

		if len(p.Subjects) > 0 {
			_, _ = fmt.Fprintln(out, "\n  By subject:")
			for _, sp := range p.Subjects {
				line := fmt.Sprintf("    %-20s %3d/%-3d", sp.Subject, sp.CompletedTasks, sp.TotalTasks)
				if sp.NotUnderstood > 0 {
					line += fmt.Sprintf("  (%d not understood)", sp.NotUnderstood)
				}
				_, _ = fmt.Fprintln(out, line)
			}
		}
		return nil
	},
}

func init() {
	progressCmd.Flags().BoolVar(&progressJSON, "json", false, "Output progress as JSON")
	rootCmd.AddCommand(progressCmd)
}
