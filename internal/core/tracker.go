package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/study-brain/pkg/models"
)

// PerformanceTracker owns the transitions of a PerformanceStore. Every
// method takes a store value and returns a new one; the input is never
// modified.
type PerformanceTracker interface {
	InitializeWeekTracking(schedule models.Schedule, weekNumber int, store models.PerformanceStore) models.PerformanceStore
	RecordStatus(store models.PerformanceStore, taskID string, ref models.TaskRef, status models.TaskStatus) (models.PerformanceStore, error)
	GetStatus(store models.PerformanceStore, weekNumber int, dayOfWeek, subject, activity string) models.TaskStatus
	FlaggedRecords(store models.PerformanceStore) []models.TaskRecord
	StatusCounts(store models.PerformanceStore) map[models.TaskStatus]int
}

type performanceTracker struct {
	now func() time.Time
}

// NewPerformanceTracker creates a PerformanceTracker. now supplies record
// timestamps; nil means time.Now.
func NewPerformanceTracker(now func() time.Time) PerformanceTracker {
	if now == nil {
		now = time.Now
	}
	return &performanceTracker{now: now}
}

// InitializeWeekTracking creates an incomplete record for every task of the
// given week that is not tracked yet. Existing records keep their status, so
// calling it twice is harmless.
func (t *performanceTracker) InitializeWeekTracking(schedule models.Schedule, weekNumber int, store models.PerformanceStore) models.PerformanceStore {
	out := store.Clone()
	week := schedule.Week(weekNumber)
	if week == nil {
		return out
	}

	stamp := t.now().UnixMilli()
	added := false
	for _, day := range week.Days {
		for _, task := range day.Tasks {
			id := ResolveTaskID(week.WeekNumber, day.DayOfWeek, task.Subject, task.Activity)
			if _, exists := out.Tasks[id]; exists {
				continue
			}
			out.Tasks[id] = models.TaskRecord{
				TaskID:     id,
				Subject:    task.Subject,
				Activity:   task.Activity,
				WeekNumber: week.WeekNumber,
				DayOfWeek:  day.DayOfWeek,
				Status:     models.StatusIncomplete,
				Timestamp:  stamp,
			}
			added = true
		}
	}
	if added {
		out.LastUpdated = stamp
	}
	return out
}

// RecordStatus upserts the record for taskID. ref is only consulted when the
// record does not exist yet; any status may follow any other.
func (t *performanceTracker) RecordStatus(store models.PerformanceStore, taskID string, ref models.TaskRef, status models.TaskStatus) (models.PerformanceStore, error) {
	if !status.Valid() {
		return store, fmt.Errorf("recording status for %s: %w: %q", taskID, ErrInvalidStatus, status)
	}

	out := store.Clone()
	stamp := t.now().UnixMilli()

	rec, exists := out.Tasks[taskID]
	if !exists {
		rec = models.TaskRecord{
			TaskID:     taskID,
			Subject:    ref.Subject,
			Activity:   ref.Activity,
			WeekNumber: ref.WeekNumber,
			DayOfWeek:  ref.DayOfWeek,
		}
	}
	rec.TaskID = taskID
	rec.Status = status
	rec.Timestamp = stamp

	out.Tasks[taskID] = rec
	out.LastUpdated = stamp
	return out, nil
}

// GetStatus looks up a task by its attributes and returns incomplete when it
// has never been tracked.
func (t *performanceTracker) GetStatus(store models.PerformanceStore, weekNumber int, dayOfWeek, subject, activity string) models.TaskStatus {
	rec, ok := store.Tasks[ResolveTaskID(weekNumber, dayOfWeek, subject, activity)]
	if !ok || !rec.Status.Valid() {
		return models.StatusIncomplete
	}
	return rec.Status
}

// FlaggedRecords returns every record whose status makes it a replanning
// candidate, ordered by week number then task id.
func (t *performanceTracker) FlaggedRecords(store models.PerformanceStore) []models.TaskRecord {
	return flaggedRecords(store)
}

// StatusCounts tallies records per status. All four statuses are present in
// the result, even when zero.
func (t *performanceTracker) StatusCounts(store models.PerformanceStore) map[models.TaskStatus]int {
	return statusCounts(store)
}

func flaggedRecords(store models.PerformanceStore) []models.TaskRecord {
	var out []models.TaskRecord
	for id, rec := range store.Tasks {
		if rec.Status.IsFlagged() {
			rec.TaskID = id
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WeekNumber != out[j].WeekNumber {
			return out[i].WeekNumber < out[j].WeekNumber
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out
}

func statusCounts(store models.PerformanceStore) map[models.TaskStatus]int {
	counts := make(map[models.TaskStatus]int, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = 0
	}
	for _, rec := range store.Tasks {
		counts[rec.Status]++
	}
	return counts
}
