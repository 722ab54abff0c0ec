package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/study-brain/internal/core"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// Alert conditions.
const (
	ConditionNotUnderstood = "not_understood_backlog"
	ConditionPlanStale     = "plan_stale"
	ConditionSyncFailing   = "sync_failing"
)

// AlertThresholds configures when alerts fire.
type AlertThresholds struct {
	// FlaggedThreshold is the number of tasks left not understood above
	// which a plan is reported.
	FlaggedThreshold int `yaml:"flagged_threshold" json:"flagged_threshold"`
	StaleDays        int `yaml:"stale_days" json:"stale_days"`
	// SyncFailures is the number of consecutive failed syncs that raises an alert.
	SyncFailures int `yaml:"sync_failures" json:"sync_failures"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		FlaggedThreshold: 10,
		StaleDays:        3,
		SyncFailures:     3,
	}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates a new AlertEngine with the given EventLog and thresholds.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate reads the event log once and checks every condition. Alerts are
// ordered by condition, then id.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("reading events for alerts: %w", err)
	}
	now := ae.now()

	var alerts []Alert
	alerts = append(alerts, ae.checkNotUnderstood(events, now)...)
	alerts = append(alerts, ae.checkStalePlans(events, now)...)
	alerts = append(alerts, ae.checkSyncFailures(events, now)...)

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Condition != alerts[j].Condition {
			return alerts[i].Condition < alerts[j].Condition
		}
		return alerts[i].ID < alerts[j].ID
	})
	return alerts, nil
}

// checkNotUnderstood replays status changes per plan and counts the tasks
// whose latest status is not-understood. A replan resolves every flagged
// task of its plan.
func (ae *alertEngine) checkNotUnderstood(events []Event, now time.Time) []Alert {
	latest := make(map[string]map[string]string)
	for _, event := range events {
		plan := event.PlanID()
		switch event.Type {
		case core.EventStatusRecorded:
			taskID, _ := event.Data["task_id"].(string)
			status, _ := event.Data["new_status"].(string)
			if taskID == "" || status == "" {
				continue
			}
			if latest[plan] == nil {
				latest[plan] = make(map[string]string)
			}
			latest[plan][taskID] = status
		case core.EventReplanned:
			if intField(event.Data, "redistributed") > 0 {
				delete(latest, plan)
			}
		case core.EventStoreLoaded:
			delete(latest, plan)
		}
	}

	var alerts []Alert
	for plan, tasks := range latest {
		count := 0
		for _, status := range tasks {
			if status == "not-understood" {
				count++
			}
		}
		if count > ae.thresholds.FlaggedThreshold {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("not-understood-%s", plan),
				Condition:   ConditionNotUnderstood,
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("plan %s has %d tasks marked not understood, exceeding %d; consider replanning", plan, count, ae.thresholds.FlaggedThreshold),
				TriggeredAt: now,
			})
		}
	}
	return alerts
}

// checkStalePlans reports plans with tracked weeks but no status recorded
// for longer than the stale threshold.
func (ae *alertEngine) checkStalePlans(events []Event, now time.Time) []Alert {
	lastActivity := make(map[string]time.Time)
	for _, event := range events {
		if event.Type != core.EventStatusRecorded && event.Type != core.EventWeekInitialized {
			continue
		}
		plan := event.PlanID()
		if event.Time.After(lastActivity[plan]) {
			lastActivity[plan] = event.Time
		}
	}

	threshold := time.Duration(ae.thresholds.StaleDays) * 24 * time.Hour
	var alerts []Alert
	for plan, last := range lastActivity {
		if now.Sub(last) > threshold {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("stale-%s", plan),
				Condition:   ConditionPlanStale,
				Severity:    SeverityLow,
				Message:     fmt.Sprintf("plan %s has had no study activity for more than %d days", plan, ae.thresholds.StaleDays),
				TriggeredAt: now,
			})
		}
	}
	return alerts
}

// checkSyncFailures counts failed syncs since the last successful one.
func (ae *alertEngine) checkSyncFailures(events []Event, now time.Time) []Alert {
	streak := make(map[string]int)
	for _, event := range events {
		switch event.Type {
		case core.EventSyncFailed:
			streak[event.PlanID()]++
		case core.EventStoreSynced:
			streak[event.PlanID()] = 0
		}
	}

	var alerts []Alert
	for plan, n := range streak {
		if ae.thresholds.SyncFailures > 0 && n >= ae.thresholds.SyncFailures {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("sync-%s", plan),
				Condition:   ConditionSyncFailing,
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("plan %s failed to sync %d times in a row", plan, n),
				TriggeredAt: now,
			})
		}
	}
	return alerts
}
