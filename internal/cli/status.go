package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/study-brain/pkg/models"
)

var statusFilter string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display tracked tasks grouped by status",
	Long: `Display the performance records of the active plan grouped by status.

Optionally filter to a single status using --filter (e.g. --filter not-understood).
Output is formatted as a table with columns: ID, Week, Day, Subject.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		store := s.Store()

		_, _ = fmt.Fprintf(out, "Plan %s: %d tracked task(s)", s.PlanID(), store.Len())
		if s.NeedsReplanning() {
			_, _ = fmt.Fprint(out, ", replanning needed")
		}
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out)

		grouped := groupByStatus(store)
		if statusFilter != "" {
			status, err := models.ParseTaskStatus(statusFilter)
			if err != nil {
				return err
			}
			printStatusGroup(out, string(status), grouped[status])
			return nil
		}

		if store.Len() == 0 {
			_, _ = fmt.Fprintln(out, "No tasks tracked yet. Run 'sb week init <n>' to start a week.")
			return nil
		}

		// Flagged statuses first, in the order replanning treats them.
		order := []models.TaskStatus{
			models.StatusNotUnderstood,
			models.StatusSkipped,
			models.StatusIncomplete,
			models.StatusCompleted,
		}
		for _, status := range order {
			if group := grouped[status]; len(group) > 0 {
				printStatusGroup(out, string(status), group)
				_, _ = fmt.Fprintln(out)
			}
		}
		return nil
	},
}

// groupByStatus buckets the records of store by status, each bucket ordered
// by week then task id.
func groupByStatus(store models.PerformanceStore) map[models.TaskStatus][]models.TaskRecord {
	grouped := make(map[models.TaskStatus][]models.TaskRecord)
	for id, rec := range store.Tasks {
		rec.TaskID = id
		grouped[rec.Status] = append(grouped[rec.Status], rec)
	}
	for _, group := range grouped {
		sort.Slice(group, func(i, j int) bool {
			if group[i].WeekNumber != group[j].WeekNumber {
				return group[i].WeekNumber < group[j].WeekNumber
			}
			return group[i].TaskID < group[j].TaskID
		})
	}
	return grouped
}

// printStatusGroup prints a table of records under a status heading.
func printStatusGroup(w io.Writer, status string, records []models.TaskRecord) {
	_, _ = fmt.Fprintf(w, "== %s (%d) ==\n", strings.ToUpper(status), len(records))
	_, _ = fmt.Fprintf(w, "  %-36s %-4s %-10s %s\n", "ID", "WEEK", "DAY", "SUBJECT")
	_, _ = fmt.Fprintf(w, "  %-36s %-4s %-10s %s\n", "--", "----", "---", "-------")
	for _, rec := range records {
		_, _ = fmt.Fprintf(w, "  %-36s %-4d %-10s %s\n", rec.TaskID, rec.WeekNumber, rec.DayOfWeek, rec.Subject)
	}
}

func init() {
	statusCmd.Flags().StringVar(&statusFilter, "filter", "", "Filter by status (incomplete, completed, not-understood, skipped)")
	rootCmd.AddCommand(statusCmd)
}
