package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valter-silva-au/study-brain/pkg/models"
)

// defaultSubject replaces blank task subjects so that ids stay well formed.
const defaultSubject = "General"

// scheduleEnvelope covers the document shapes produced by the plan generator:
// {"weeks": [...]}, {"weeklySchedule": [...]} and
// {"studyPlan": {"weeklySchedule": [...]}}.
type scheduleEnvelope struct {
	Weeks          []models.Week `json:"weeks"`
	WeeklySchedule []models.Week `json:"weeklySchedule"`
	StudyPlan      *struct {
		WeeklySchedule []models.Week `json:"weeklySchedule"`
	} `json:"studyPlan"`
}

// ParseSchedule decodes a JSON schedule document and normalises it. Missing
// arrays are treated as empty; only input that is not JSON at all is an error.
func ParseSchedule(data []byte) (models.Schedule, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return NormalizeSchedule(models.Schedule{}), nil
	}

	var weeks []models.Week
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &weeks); err != nil {
			return models.Schedule{}, fmt.Errorf("parsing schedule: %w", err)
		}
	} else {
		var env scheduleEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return models.Schedule{}, fmt.Errorf("parsing schedule: %w", err)
		}
		switch {
		case env.Weeks != nil:
			weeks = env.Weeks
		case env.WeeklySchedule != nil:
			weeks = env.WeeklySchedule
		case env.StudyPlan != nil:
			weeks = env.StudyPlan.WeeklySchedule
		}
	}

	return NormalizeSchedule(models.Schedule{Weeks: weeks}), nil
}

// NormalizeSchedule validates a schedule once at the load boundary so the
// rest of the core can rely on its shape:
//   - nil slices become empty slices
//   - week numbers that are missing or not increasing become previous+1
//   - blank day labels become "Day N"
//   - blank subjects become "General" and negative durations become 0
func NormalizeSchedule(s models.Schedule) models.Schedule {
	out := models.Schedule{Weeks: make([]models.Week, 0, len(s.Weeks))}
	prev := 0
	for _, w := range s.Weeks {
		if w.WeekNumber <= prev {
			w.WeekNumber = prev + 1
		}
		prev = w.WeekNumber

		w.FocusAreas = nonNil(w.FocusAreas)
		if w.WeeklyGoals == nil {
			w.WeeklyGoals = []models.WeeklyGoal{}
		}

		days := make([]models.Day, 0, len(w.Days))
		for i, d := range w.Days {
			if strings.TrimSpace(d.DayOfWeek) == "" {
				d.DayOfWeek = fmt.Sprintf("Day %d", i+1)
			}
			tasks := make([]models.Task, 0, len(d.Tasks))
			for _, t := range d.Tasks {
				if strings.TrimSpace(t.Subject) == "" {
					t.Subject = defaultSubject
				}
				if t.Duration < 0 {
					t.Duration = 0
				}
				tasks = append(tasks, t)
			}
			d.Tasks = tasks
			days = append(days, d)
		}
		w.Days = days
		out.Weeks = append(out.Weeks, w)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ScheduledTask is a task located within its schedule, with its resolved id.
type ScheduledTask struct {
	ID       string
	Ref      models.TaskRef
	Task     models.Task
	Position int // order of appearance across the whole schedule
}

// IndexSchedule lists every task of the schedule in order, keyed by id.
// When two tasks collide on the same id the first occurrence wins.
func IndexSchedule(s models.Schedule) map[string]ScheduledTask {
	index := make(map[string]ScheduledTask)
	pos := 0
	for _, w := range s.Weeks {
		for _, d := range w.Days {
			for _, t := range d.Tasks {
				id := ResolveTaskID(w.WeekNumber, d.DayOfWeek, t.Subject, t.Activity)
				if _, exists := index[id]; !exists {
					index[id] = ScheduledTask{
						ID: id,
						Ref: models.TaskRef{
							WeekNumber: w.WeekNumber,
							DayOfWeek:  d.DayOfWeek,
							Subject:    t.Subject,
							Activity:   t.Activity,
						},
						Task:     t,
						Position: pos,
					}
				}
				pos++
			}
		}
	}
	return index
}

// WeekTasks lists the tasks of one week in schedule order.
func WeekTasks(s models.Schedule, weekNumber int) []ScheduledTask {
	week := s.Week(weekNumber)
	if week == nil {
		return nil
	}
	var out []ScheduledTask
	pos := 0
	for _, d := range week.Days {
		for _, t := range d.Tasks {
			out = append(out, ScheduledTask{
				ID: ResolveTaskID(week.WeekNumber, d.DayOfWeek, t.Subject, t.Activity),
				Ref: models.TaskRef{
					WeekNumber: week.WeekNumber,
					DayOfWeek:  d.DayOfWeek,
					Subject:    t.Subject,
					Activity:   t.Activity,
				},
				Task:     t,
				Position: pos,
			})
			pos++
		}
	}
	return out
}
