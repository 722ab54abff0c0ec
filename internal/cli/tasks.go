package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/study-brain/internal/core"
)

var tasksJSON bool

type taskRow struct {
	ID       string `json:"id"`
	Week     int    `json:"weekNumber"`
	Day      string `json:"dayOfWeek"`
	Subject  string `json:"subject"`
	Activity string `json:"activity"`
	Duration int    `json:"duration"`
	IsReview bool   `json:"isReview,omitempty"`
	Status   string `json:"status"`
}

var tasksCmd = &cobra.Command{
	Use:   "tasks [week-number]",
	Short: "List scheduled tasks with their ids and status",
	Long: `List the tasks of the schedule, or of a single week, together with the id
used to track them and their current status. Review tasks added by
replanning are marked with [review].`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession()
		if err != nil {
			return err
		}

		var weeks []int
		if len(args) == 1 {
			week, err := parseWeekArg(args[0])
			if err != nil {
				return err
			}
			if s.Schedule().Week(week) == nil {
				return fmt.Errorf("listing week %d: %w", week, core.ErrInvalidWeek)
			}
			weeks = append(weeks, week)
		} else {
			for _, w := range s.Schedule().Weeks {
				weeks = append(weeks, w.WeekNumber)
			}
		}

		var rows []taskRow
		for _, week := range weeks {
			for _, t := range s.Tasks(week) {
				rows = append(rows, taskRow{
					ID:       t.ID,
					Week:     t.Ref.WeekNumber,
					Day:      t.Ref.DayOfWeek,
					Subject:  t.Task.Subject,
					Activity: t.Task.Activity,
					Duration: t.Task.Duration,
					IsReview: t.Task.IsReview,
					Status:   string(t.Status),
				})
			}
		}

		out := cmd.OutOrStdout()
		if tasksJSON {
			if rows == nil {
				rows = []taskRow{}
			}
			data, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting tasks as JSON: %w", err)
			}
			_, _ = fmt.Fprintln(out, string(data))
			return nil
		}

		if len(rows) == 0 {
			_, _ = fmt.Fprintln(out, "No tasks scheduled.")
			return nil
		}

		current := 0
		for _, r := range rows {
			if r.Week != current {
				if current != 0 {
					_, _ = fmt.Fprintln(out)
				}
				current = r.Week
				theme := ""
				if w := s.Schedule().Week(r.Week); w != nil {
					theme = w.Theme
				}
				_, _ = fmt.Fprintf(out, "== Week %d: %s ==\n", r.Week, theme)
			}
			review := ""
			if r.IsReview {
				review = " [review]"
			}
			_, _ = fmt.Fprintf(out, "  %-14s %-10s %-36s %s (%dm)%s\n", r.Status, r.Day, r.ID, r.Activity, r.Duration, review)
		}
		return nil
	},
}

func init() {
	tasksCmd.Flags().BoolVar(&tasksJSON, "json", false, "Output tasks as JSON")
	rootCmd.AddCommand(tasksCmd)
}
