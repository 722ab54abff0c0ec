package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/study-brain/internal/core"
)

var (
	replanDryRun bool
	replanJSON   bool
)

type replanReport struct {
	DryRun          bool             `json:"dryRun"`
	Placements      []core.Placement `json:"placements"`
	SynthesizedWeek int              `json:"synthesizedWeek,omitempty"`
}

var replanCmd = &cobra.Command{
	Use:   "replan",
	Short: "Redistribute flagged tasks into future weeks",
	Long: `Move every incomplete, skipped or not-understood task into the weeks after
the learner's current week as a 30 minute review task, round-robin across
those weeks, and mark the original records completed.

When no later week exists a "Review and Reinforcement" week is appended.
Use --dry-run to see where tasks would go without changing anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession()
		if err != nil {
			return err
		}

		var result core.ReplanResult
		if replanDryRun {
			result = s.PreviewReplanning()
		} else {
			result, err = s.ApplyReplanning(commandContext(cmd))
			if err != nil && !result.Changed() {
				return fmt.Errorf("replanning: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		if replanJSON {
			report := replanReport{
				DryRun:          replanDryRun,
				Placements:      result.Placements,
				SynthesizedWeek: result.SynthesizedWeek,
			}
			if report.Placements == nil {
				report.Placements = []core.Placement{}
			}
			data, jerr := json.MarshalIndent(report, "", "  ")
			if jerr != nil {
				return fmt.Errorf("formatting replan result as JSON: %w", jerr)
			}
			_, _ = fmt.Fprintln(out, string(data))
			return err
		}

		printReplanResult(out, result, replanDryRun)
		return err
	},
}

func printReplanResult(w io.Writer, result core.ReplanResult, dryRun bool) {
	if !result.Changed() {
		_, _ = fmt.Fprintln(w, "Nothing to replan: no flagged tasks.")
		return
	}

	verb := "Redistributed"
	if dryRun {
		verb = "Would redistribute"
	}
	_, _ = fmt.Fprintf(w, "%s %d task(s):\n", verb, len(result.Placements))
	for _, p := range result.Placements {
		_, _ = fmt.Fprintf(w, "  week %d -> week %d %-10s %s: %s\n", p.FromWeek, p.ToWeek, p.ToDay, p.Subject, p.Activity)
	}
	if result.SynthesizedWeek > 0 {
		_, _ = fmt.Fprintf(w, "\nAdded review week %d (%s).\n", result.SynthesizedWeek, core.ReviewWeekTheme)
	}
}

func init() {
	replanCmd.Flags().BoolVar(&replanDryRun, "dry-run", false, "Show the redistribution without applying it")
	replanCmd.Flags().BoolVar(&replanJSON, "json", false, "Output the result as JSON")
	rootCmd.AddCommand(replanCmd)
}
