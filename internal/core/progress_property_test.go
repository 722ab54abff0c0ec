package core

import (
	"testing"

	"github.com/valter-silva-au/study-brain/pkg/models"
	"pgregory.net/rapid"
)

// genRandomStatusStore seeds one record per scheduled task with a random status.
func genRandomStatusStore(t *rapid.T, s models.Schedule) models.PerformanceStore {
	store := models.NewPerformanceStore()
	for _, w := range s.Weeks {
		for _, d := range w.Days {
			for _, task := range d.Tasks {
				id := ResolveTaskID(w.WeekNumber, d.DayOfWeek, task.Subject, task.Activity)
				store.Tasks[id] = models.TaskRecord{
					TaskID:     id,
					Subject:    task.Subject,
					Activity:   task.Activity,
					WeekNumber: w.WeekNumber,
					DayOfWeek:  d.DayOfWeek,
					Status:     genStatus(t, "status"),
				}
			}
		}
	}
	return store
}

// Feature: study-brain, Property 10: Day Completion Rollup
// A study day counts as completed exactly when every record on it is
// completed.
func TestProperty_DayCompletionRollup(t *testing.T) {
	agg := newTestAggregator()

	rapid.Check(t, func(t *rapid.T) {
		schedule := genSchedule(t)
		store := genRandomStatusStore(t, schedule)
		if store.Len() == 0 {
			t.Skip("schedule without tasks")
		}

		open := make(map[dayKey]bool)
		for _, rec := range store.Tasks {
			key := dayKey{week: rec.WeekNumber, day: rec.DayOfWeek}
			if _, seen := open[key]; !seen {
				open[key] = false
			}
			if rec.Status != models.StatusCompleted {
				open[key] = true
			}
		}
		wantDone := 0
		for _, isOpen := range open {
			if !isOpen {
				wantDone++
			}
		}

		p := agg.ComputeProgress(schedule, store, models.Preferences{})
		if p.TotalDays != len(open) {
			t.Fatalf("TotalDays = %d, want %d", p.TotalDays, len(open))
		}
		if p.CompletedDays != wantDone {
			t.Fatalf("CompletedDays = %d, want %d", p.CompletedDays, wantDone)
		}
	})
}

// Feature: study-brain, Property 11: Progress Bounds
// Percent stays within 0..100, completed counts never exceed totals, and an
// empty plan reports zero rather than dividing by zero.
func TestProperty_ProgressBounds(t *testing.T) {
	agg := newTestAggregator()

	rapid.Check(t, func(t *rapid.T) {
		schedule := genSchedule(t)
		store := models.NewPerformanceStore()
		if rapid.Bool().Draw(t, "tracked") {
			store = genRandomStatusStore(t, schedule)
		}

		p := agg.ComputeProgress(schedule, store, models.Preferences{DaysPerWeek: rapid.IntRange(0, 9).Draw(t, "dpw")})
		if p.Percent < 0 || p.Percent > 100 {
			t.Fatalf("Percent = %d out of range", p.Percent)
		}
		if p.CompletedTasks > p.TotalTasks || p.CompletedDays > p.TotalDays {
			t.Fatalf("completed exceeds total: %+v", p)
		}
		if p.TotalTasks == 0 && p.Percent != 0 {
			t.Fatalf("empty plan reports %d%%", p.Percent)
		}
	})
}
