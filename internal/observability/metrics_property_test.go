package observability

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

var propertyStatuses = []string{"incomplete", "completed", "not-understood", "skipped"}

// Feature: study-brain, Property 14: Status Metrics Match Events
// The number of status changes, and the per-status tallies, equal the
// status events written.
func TestProperty_StatusMetricsMatchEvents(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(t *rapid.T) {
		now := time.Now().UTC().Add(-time.Hour)
		n := rapid.IntRange(0, 30).Draw(t, "n")

		events := make([]Event, 0, n)
		want := make(map[string]int)
		for i := 0; i < n; i++ {
			status := propertyStatuses[rapid.IntRange(0, len(propertyStatuses)-1).Draw(t, "status")]
			want[status]++
			events = append(events, statusEvent(now, "step1", fmt.Sprintf("task-%d", i), "Anatomy", status))
		}
		extra := rapid.IntRange(0, 5).Draw(t, "extra")
		for i := 0; i < extra; i++ {
			events = append(events, Event{Time: now, Type: "study.store_loaded", Data: map[string]any{"plan_id": "step1"}})
		}

		log := openPropertyLog(t, dir, events)
		defer func() { _ = log.Close() }()

		m, err := NewMetricsCalculator(log).Calculate(now.Add(-time.Minute), "")
		if err != nil {
			t.Fatalf("calculate: %v", err)
		}
		if m.EventCount != n+extra {
			t.Fatalf("EventCount = %d, want %d", m.EventCount, n+extra)
		}
		if m.StatusChanges != n {
			t.Fatalf("StatusChanges = %d, want %d", m.StatusChanges, n)
		}
		for status, c := range want {
			if m.StatusesRecorded[status] != c {
				t.Fatalf("StatusesRecorded[%s] = %d, want %d", status, m.StatusesRecorded[status], c)
			}
		}
	})
}
