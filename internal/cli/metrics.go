package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	metricsJSON  bool
	metricsSince string
	metricsPlan  string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display study activity metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include recorded statuses, weeks started, replanning runs and the
number of tasks they redistributed, store loads, and sync outcomes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime, metricsPlan)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			_, _ = fmt.Fprintln(out, string(data))
			return nil
		}

		// Table format.
		_, _ = fmt.Fprintf(out, "Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		_, _ = fmt.Fprintf(out, "  %-24s %d\n", "Events recorded:", metrics.EventCount)
		_, _ = fmt.Fprintf(out, "  %-24s %d\n", "Status changes:", metrics.StatusChanges)
		_, _ = fmt.Fprintf(out, "  %-24s %d (%d tasks)\n", "Weeks started:", metrics.WeeksInitialized, metrics.TasksSeeded)
		_, _ = fmt.Fprintf(out, "  %-24s %d (%d tasks moved)\n", "Replans:", metrics.Replans, metrics.TasksRedistributed)
		_, _ = fmt.Fprintf(out, "  %-24s %d\n", "Review weeks added:", metrics.ReviewWeeksAdded)
		_, _ = fmt.Fprintf(out, "  %-24s %d ok, %d failed\n", "Syncs:", metrics.Syncs, metrics.SyncFailures)
		if metrics.PersistFailures > 0 {
			_, _ = fmt.Fprintf(out, "  %-24s %d\n", "Save failures:", metrics.PersistFailures)
		}

		printCountTable(out, "Statuses recorded", metrics.StatusesRecorded)
		printCountTable(out, "Not understood by subject", metrics.NotUnderstoodBySub)

		if metrics.OldestEvent != nil {
			_, _ = fmt.Fprintf(out, "\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			_, _ = fmt.Fprintf(out, "  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

func printCountTable(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	_, _ = fmt.Fprintf(w, "\n  %s:\n", title)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "    %-20s %d\n", k+":", counts[k])
	}
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	metricsCmd.Flags().StringVar(&metricsPlan, "plan", "", "Restrict metrics to one plan id")
	rootCmd.AddCommand(metricsCmd)
}
