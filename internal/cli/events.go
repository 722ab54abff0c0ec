package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/study-brain/internal/observability"
)

var (
	eventsLimit int
	eventsType  string
	eventsPlan  string
	eventsSince string
	eventsJSON  bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent entries of the study event log",
	Long: `Show the most recent entries of the event log (.sb_events.jsonl), oldest
first. Filter by event type (e.g. study.sync_failed), plan id or time window.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized (observability may be disabled)")
		}

		filter := observability.EventFilter{
			Type:   eventsType,
			PlanID: eventsPlan,
			Limit:  eventsLimit,
		}
		if eventsSince != "" {
			since, err := parseSinceDuration(eventsSince)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}

		out := cmd.OutOrStdout()
		if eventsJSON {
			if events == nil {
				events = []observability.Event{}
			}
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting events as JSON: %w", err)
			}
			_, _ = fmt.Fprintln(out, string(data))
			return nil
		}

		if len(events) == 0 {
			_, _ = fmt.Fprintln(out, "No events recorded.")
			return nil
		}
		for _, e := range events {
			_, _ = fmt.Fprintf(out, "%s  %-5s %-24s %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Type, e.PlanID())
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Show at most this many events (0 for all)")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "Only show events of this type")
	eventsCmd.Flags().StringVar(&eventsPlan, "plan", "", "Only show events of this plan id")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "Only show events newer than this (e.g. 7d, 24h)")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output events as JSON")
	rootCmd.AddCommand(eventsCmd)
}
