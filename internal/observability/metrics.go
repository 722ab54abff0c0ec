package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/study-brain/internal/core"
)

// Metrics holds study activity figures derived from the event log.
type Metrics struct {
	StatusChanges      int            `json:"status_changes"`
	StatusesRecorded   map[string]int `json:"statuses_recorded"`
	NotUnderstoodBySub map[string]int `json:"not_understood_by_subject"`
	WeeksInitialized   int            `json:"weeks_initialized"`
	TasksSeeded        int            `json:"tasks_seeded"`
	Replans            int            `json:"replans"`
	TasksRedistributed int            `json:"tasks_redistributed"`
	ReviewWeeksAdded   int            `json:"review_weeks_added"`
	StoreLoads         int            `json:"store_loads"`
	Syncs              int            `json:"syncs"`
	SyncFailures       int            `json:"sync_failures"`
	PersistFailures    int            `json:"persist_failures"`
	EventCount         int            `json:"event_count"`
	OldestEvent        *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent        *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time, planID string) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event since the given time. An empty planID
// covers all plans.
func (mc *metricsCalculator) Calculate(since time.Time, planID string) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since, PlanID: planID})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		StatusesRecorded:   make(map[string]int),
		NotUnderstoodBySub: make(map[string]int),
		EventCount:         len(events),
	}

	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case core.EventStatusRecorded:
			m.StatusChanges++
			status, _ := event.Data["new_status"].(string)
			if status != "" {
				m.StatusesRecorded[status]++
			}
			if subject, _ := event.Data["subject"].(string); subject != "" && status == "not-understood" {
				m.NotUnderstoodBySub[subject]++
			}
		case core.EventWeekInitialized:
			m.WeeksInitialized++
			m.TasksSeeded += intField(event.Data, "seeded")
		case core.EventReplanned:
			m.Replans++
			m.TasksRedistributed += intField(event.Data, "redistributed")
			if intField(event.Data, "synthesized_week") > 0 {
				m.ReviewWeeksAdded++
			}
		case core.EventStoreLoaded:
			m.StoreLoads++
		case core.EventStoreSynced:
			m.Syncs++
		case core.EventSyncFailed:
			m.SyncFailures++
		case core.EventPersistFailed:
			m.PersistFailures++
		}
	}

	return m, nil
}
