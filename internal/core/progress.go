package core

import (
	"math"
	"sort"
	"time"

	"github.com/valter-silva-au/study-brain/pkg/models"
)

// ProgressAggregator derives completion figures from a schedule and the
// store tracking it. It has no side effects.
type ProgressAggregator interface {
	ComputeProgress(schedule models.Schedule, store models.PerformanceStore, prefs models.Preferences) models.ProgressSummary
}

type progressAggregator struct {
	today func() time.Time
}

// NewProgressAggregator creates a ProgressAggregator. today anchors the
// completion estimate; nil means time.Now.
func NewProgressAggregator(today func() time.Time) ProgressAggregator {
	if today == nil {
		today = time.Now
	}
	return &progressAggregator{today: today}
}

type dayKey struct {
	week int
	day  string
}

type tally struct {
	completed int
	total     int
}

// ComputeProgress counts from the store when it has records and falls back
// to the raw schedule otherwise, where nothing can be completed yet.
func (a *progressAggregator) ComputeProgress(schedule models.Schedule, store models.PerformanceStore, prefs models.Preferences) models.ProgressSummary {
	summary := models.ProgressSummary{StatusCounts: statusCounts(store)}

	days := make(map[dayKey]*tally)
	weeks := make(map[int]*tally)
	subjects := make(map[string]*models.SubjectProgress)

	subject := func(name string) *models.SubjectProgress {
		sp, ok := subjects[name]
		if !ok {
			sp = &models.SubjectProgress{Subject: name}
			subjects[name] = sp
		}
		return sp
	}
	bump := func(m map[int]*tally, week int, done bool) {
		t, ok := m[week]
		if !ok {
			t = &tally{}
			m[week] = t
		}
		t.total++
		if done {
			t.completed++
		}
	}

	if store.Len() > 0 {
		for _, rec := range store.Tasks {
			done := rec.Status == models.StatusCompleted
			summary.TotalTasks++
			if done {
				summary.CompletedTasks++
			}

			key := dayKey{week: rec.WeekNumber, day: rec.DayOfWeek}
			d, ok := days[key]
			if !ok {
				d = &tally{}
				days[key] = d
			}
			d.total++
			if done {
				d.completed++
			}

			bump(weeks, rec.WeekNumber, done)

			sp := subject(rec.Subject)
			sp.TotalTasks++
			if done {
				sp.CompletedTasks++
			}
			if rec.Status == models.StatusNotUnderstood {
				sp.NotUnderstood++
			}
		}
	} else {
		for _, w := range schedule.Weeks {
			if _, ok := weeks[w.WeekNumber]; !ok {
				weeks[w.WeekNumber] = &tally{}
			}
			for _, d := range w.Days {
				key := dayKey{week: w.WeekNumber, day: d.DayOfWeek}
				if _, ok := days[key]; !ok {
					days[key] = &tally{}
				}
				for _, t := range d.Tasks {
					summary.TotalTasks++
					days[key].total++
					bump(weeks, w.WeekNumber, false)
					subject(t.Subject).TotalTasks++
				}
			}
		}
	}

	weekDays := make(map[int]*tally)
	for key, d := range days {
		summary.TotalDays++
		wd, ok := weekDays[key.week]
		if !ok {
			wd = &tally{}
			weekDays[key.week] = wd
		}
		wd.total++
		// Only tracked days can be complete; an untracked schedule has none.
		if store.Len() > 0 && d.completed == d.total {
			summary.CompletedDays++
			wd.completed++
		}
	}

	if summary.TotalTasks > 0 {
		summary.Percent = int(math.Round(float64(summary.CompletedTasks) / float64(summary.TotalTasks) * 100))
	}

	summary.EstimatedCompletion = estimateCompletion(a.today(), summary.TotalDays, summary.CompletedDays, prefs.StudyDays())

	for num, t := range weeks {
		wp := models.WeekProgress{
			WeekNumber:     num,
			CompletedTasks: t.completed,
			TotalTasks:     t.total,
		}
		if wd, ok := weekDays[num]; ok {
			wp.CompletedDays = wd.completed
			wp.TotalDays = wd.total
		}
		summary.Weeks = append(summary.Weeks, wp)
	}
	sort.Slice(summary.Weeks, func(i, j int) bool {
		return summary.Weeks[i].WeekNumber < summary.Weeks[j].WeekNumber
	})

	for _, sp := range subjects {
		summary.Subjects = append(summary.Subjects, *sp)
	}
	sort.Slice(summary.Subjects, func(i, j int) bool {
		return summary.Subjects[i].Subject < summary.Subjects[j].Subject
	})

	return summary
}

// estimateCompletion projects the finish date from the remaining study days
// at the learner's weekly pace. It returns nil until at least one day is done.
func estimateCompletion(today time.Time, totalDays, completedDays, daysPerWeek int) *time.Time {
	if totalDays == 0 || completedDays == 0 || daysPerWeek <= 0 {
		return nil
	}
	daysLeft := totalDays - completedDays
	weeksNeeded := float64(daysLeft) / float64(daysPerWeek)
	est := today.AddDate(0, 0, int(weeksNeeded*7))
	return &est
}
