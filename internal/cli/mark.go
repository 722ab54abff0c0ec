package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/study-brain/internal/core"
	"github.com/valter-silva-au/study-brain/pkg/models"
)

var (
	markWeek     int
	markDay      string
	markSubject  string
	markActivity string
)

var markCmd = &cobra.Command{
	Use:   "mark [task-id] <status>",
	Short: "Record the status of a task",
	Long: `Record how a study task went. Status is one of incomplete, completed,
not-understood or skipped.

The task is named either by its id (as printed by 'sb tasks'):

  sb mark 1-monday-anatomy-read-chapt completed

or by its attributes, which also works for tasks the schedule does not list:

  sb mark not-understood --week 1 --day Monday --subject Anatomy --activity "Read chapter 1"`,
	Args: cobra.RangeArgs(1, 2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, 0, len(models.AllStatuses))
		for _, s := range models.AllStatuses {
			out = append(out, string(s))
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession()
		if err != nil {
			return err
		}

		status, err := models.ParseTaskStatus(args[len(args)-1])
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		var taskID string
		if len(args) == 2 {
			taskID = args[0]
			err = s.RecordStatus(ctx, taskID, status)
		} else {
			if markWeek < 1 || markDay == "" || markSubject == "" {
				return fmt.Errorf("either a task id or --week, --day and --subject are required")
			}
			ref := models.TaskRef{
				WeekNumber: markWeek,
				DayOfWeek:  markDay,
				Subject:    markSubject,
				Activity:   markActivity,
			}
			taskID = core.ResolveTaskID(ref.WeekNumber, ref.DayOfWeek, ref.Subject, ref.Activity)
			err = s.RecordTaskStatus(ctx, ref, status)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Task %s marked %s\n", taskID, status)
		if s.NeedsReplanning() {
			_, _ = fmt.Fprintln(out, "Plan has flagged tasks; run 'sb replan' to redistribute them.")
		}
		return nil
	},
}

func init() {
	markCmd.Flags().IntVar(&markWeek, "week", 0, "Week number of the task")
	markCmd.Flags().StringVar(&markDay, "day", "", "Day of week of the task (e.g. Monday)")
	markCmd.Flags().StringVar(&markSubject, "subject", "", "Subject of the task")
	markCmd.Flags().StringVar(&markActivity, "activity", "", "Activity of the task")
	rootCmd.AddCommand(markCmd)
}
