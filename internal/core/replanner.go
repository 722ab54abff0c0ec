package core

import (
	"sort"
	"time"

	"github.com/valter-silva-au/study-brain/pkg/models"
)

const (
	// ReviewTaskDuration is the length in minutes of every generated review task.
	ReviewTaskDuration = 30
	// ReviewWeekTheme is the theme of a week synthesised by replanning.
	ReviewWeekTheme = "Review and Reinforcement"

	reviewActivityPrefix = "Review: "
)

// dayRotation names the days of a synthesised week, starting on Monday.
var dayRotation = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Placement records where one flagged task was redistributed to.
type Placement struct {
	TaskID   string `json:"taskId"`
	Subject  string `json:"subject"`
	Activity string `json:"activity"`
	FromWeek int    `json:"fromWeek"`
	ToWeek   int    `json:"toWeek"`
	ToDay    string `json:"toDay"`
}

// ReplanResult is the outcome of ApplyReplanning.
type ReplanResult struct {
	Schedule   models.Schedule
	Store      models.PerformanceStore
	Placements []Placement

	// SynthesizedWeek is the number of the review week appended to the
	// schedule, or 0 when existing future weeks were used.
	SynthesizedWeek int
}

// Changed reports whether replanning redistributed anything.
func (r ReplanResult) Changed() bool {
	return len(r.Placements) > 0
}

// Replanner decides when a schedule needs adjusting and redistributes
// flagged tasks into future weeks as review tasks.
type Replanner interface {
	NeedsReplanning(store models.PerformanceStore) bool
	ApplyReplanning(schedule models.Schedule, store models.PerformanceStore, prefs models.Preferences) ReplanResult
}

type replanner struct {
	now func() time.Time
}

// NewReplanner creates a Replanner. now supplies the timestamp written to
// resolved records; nil means time.Now.
func NewReplanner(now func() time.Time) Replanner {
	if now == nil {
		now = time.Now
	}
	return &replanner{now: now}
}

// NeedsReplanning reports whether any record is incomplete, not understood
// or skipped.
func (r *replanner) NeedsReplanning(store models.PerformanceStore) bool {
	for _, rec := range store.Tasks {
		if rec.Status.IsFlagged() {
			return true
		}
	}
	return false
}

// ApplyReplanning appends one review task per flagged record to the future
// weeks of the schedule, round-robin, and marks every flagged record
// completed. Neither input is modified: weeks and days that receive no task
// are shared with the input schedule, everything touched is copied first.
func (r *replanner) ApplyReplanning(schedule models.Schedule, store models.PerformanceStore, prefs models.Preferences) ReplanResult {
	flagged := flaggedRecords(store)
	if len(flagged) == 0 {
		return ReplanResult{Schedule: schedule, Store: store}
	}
	sortForRemediation(flagged, IndexSchedule(schedule))

	current := currentWeekNumber(store, flagged)

	out := models.Schedule{Weeks: append([]models.Week(nil), schedule.Weeks...)}
	var future []int
	for i, w := range out.Weeks {
		if w.WeekNumber > current {
			future = append(future, i)
		}
	}
	sort.SliceStable(future, func(i, j int) bool {
		return out.Weeks[future[i]].WeekNumber < out.Weeks[future[j]].WeekNumber
	})

	result := ReplanResult{}
	if len(future) == 0 {
		week := synthesizeReviewWeek(out.LastWeekNumber()+1, flagged, prefs)
		out.Weeks = append(out.Weeks, week)
		future = append(future, len(out.Weeks)-1)
		result.SynthesizedWeek = week.WeekNumber
	}

	copiedWeeks := make(map[int]bool)
	copiedDays := make(map[[2]int]bool)
	for i, rec := range flagged {
		wi := future[i%len(future)]
		w := &out.Weeks[wi]
		if !copiedWeeks[wi] {
			w.Days = append([]models.Day(nil), w.Days...)
			w.FocusAreas = append([]string(nil), w.FocusAreas...)
			copiedWeeks[wi] = true
		}
		if len(w.Days) == 0 {
			w.Days = append(w.Days, models.Day{DayOfWeek: dayRotation[0], Tasks: []models.Task{}})
		}

		di := lightestDay(w.Days)
		if key := [2]int{wi, di}; !copiedDays[key] {
			w.Days[di].Tasks = append([]models.Task(nil), w.Days[di].Tasks...)
			copiedDays[key] = true
		}
		w.Days[di].Tasks = append(w.Days[di].Tasks, models.Task{
			Subject:  rec.Subject,
			Duration: ReviewTaskDuration,
			Activity: reviewActivityPrefix + rec.Activity,
			IsReview: true,
		})
		if !containsString(w.FocusAreas, rec.Subject) {
			w.FocusAreas = append(w.FocusAreas, rec.Subject)
		}

		result.Placements = append(result.Placements, Placement{
			TaskID:   rec.TaskID,
			Subject:  rec.Subject,
			Activity: rec.Activity,
			FromWeek: rec.WeekNumber,
			ToWeek:   w.WeekNumber,
			ToDay:    w.Days[di].DayOfWeek,
		})
	}

	resolved := store.Clone()
	stamp := r.now().UnixMilli()
	for _, rec := range flagged {
		updated := resolved.Tasks[rec.TaskID]
		updated.TaskID = rec.TaskID
		updated.Status = models.StatusCompleted
		updated.Timestamp = stamp
		resolved.Tasks[rec.TaskID] = updated
	}
	resolved.LastUpdated = stamp

	result.Schedule = out
	result.Store = resolved
	return result
}

// sortForRemediation orders flagged records by week number. Records of the
// same week keep schedule order; records no longer in the schedule go last,
// by id.
func sortForRemediation(flagged []models.TaskRecord, index map[string]ScheduledTask) {
	sort.SliceStable(flagged, func(i, j int) bool {
		a, b := flagged[i], flagged[j]
		if a.WeekNumber != b.WeekNumber {
			return a.WeekNumber < b.WeekNumber
		}
		pa, okA := index[a.TaskID]
		pb, okB := index[b.TaskID]
		switch {
		case okA && okB && pa.Position != pb.Position:
			return pa.Position < pb.Position
		case okA != okB:
			return okA
		}
		return a.TaskID < b.TaskID
	})
}

// currentWeekNumber approximates where the learner is: the lowest week that
// still has a record not completed.
func currentWeekNumber(store models.PerformanceStore, flagged []models.TaskRecord) int {
	current, found := 0, false
	for _, rec := range store.Tasks {
		if rec.Status == models.StatusCompleted {
			continue
		}
		if !found || rec.WeekNumber < current {
			current, found = rec.WeekNumber, true
		}
	}
	if !found && len(flagged) > 0 {
		current = flagged[0].WeekNumber
	}
	return current
}

func synthesizeReviewWeek(weekNumber int, flagged []models.TaskRecord, prefs models.Preferences) models.Week {
	focus := []string{}
	for _, rec := range flagged {
		if !containsString(focus, rec.Subject) {
			focus = append(focus, rec.Subject)
		}
	}

	n := prefs.StudyDays()
	days := make([]models.Day, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, models.Day{
			DayOfWeek: dayRotation[i%len(dayRotation)],
			Tasks:     []models.Task{},
		})
	}

	return models.Week{
		WeekNumber:  weekNumber,
		Theme:       ReviewWeekTheme,
		FocusAreas:  focus,
		WeeklyGoals: []models.WeeklyGoal{},
		Days:        days,
	}
}

// lightestDay returns the index of the day with the fewest tasks, the first
// one on ties. days must not be empty.
func lightestDay(days []models.Day) int {
	best := 0
	for i := 1; i < len(days); i++ {
		if len(days[i].Tasks) < len(days[best].Tasks) {
			best = i
		}
	}
	return best
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
