package models

// Task is a single unit of study work inside a Day. Tasks are immutable once
// produced by the plan generator; replanning appends new review tasks instead
// of editing existing ones.
type Task struct {
	Subject  string `json:"subject" yaml:"subject"`
	Duration int    `json:"duration" yaml:"duration"` // minutes
	Activity string `json:"activity" yaml:"activity"`
	IsReview bool   `json:"isReview,omitempty" yaml:"is_review,omitempty"`
}

// Day is one study day of a Week.
type Day struct {
	DayOfWeek  string   `json:"dayOfWeek" yaml:"day_of_week"`
	Tasks      []Task   `json:"tasks" yaml:"tasks"`
	FocusAreas []string `json:"focusAreas,omitempty" yaml:"focus_areas,omitempty"`
}

// WeeklyGoal is a subject-scoped objective attached to a Week.
type WeeklyGoal struct {
	Subject     string `json:"subject" yaml:"subject"`
	Description string `json:"description" yaml:"description"`
}

// Week groups the days of one schedule week. WeekNumber values are unique
// and increase with schedule position.
type Week struct {
	WeekNumber  int          `json:"weekNumber" yaml:"week_number"`
	Theme       string       `json:"theme" yaml:"theme"`
	FocusAreas  []string     `json:"focusAreas" yaml:"focus_areas"`
	WeeklyGoals []WeeklyGoal `json:"weeklyGoals" yaml:"weekly_goals"`
	Days        []Day        `json:"days" yaml:"days"`
}

// Schedule is the full multi-week study plan. It is treated as a value:
// transformations return a new Schedule rather than editing the receiver.
type Schedule struct {
	Weeks []Week `json:"weeks" yaml:"weeks"`
}

// Week returns a pointer into s.Weeks for the given week number, or nil.
// The pointer aliases the schedule and must not be used to mutate a
// Schedule that may be shared.
func (s Schedule) Week(weekNumber int) *Week {
	for i := range s.Weeks {
		if s.Weeks[i].WeekNumber == weekNumber {
			return &s.Weeks[i]
		}
	}
	return nil
}

// LastWeekNumber returns the week number of the final week, or 0 for an
// empty schedule.
func (s Schedule) LastWeekNumber() int {
	last := 0
	for _, w := range s.Weeks {
		if w.WeekNumber > last {
			last = w.WeekNumber
		}
	}
	return last
}

// TaskCount returns the number of Task entries across all weeks and days.
func (s Schedule) TaskCount() int {
	n := 0
	for _, w := range s.Weeks {
		for _, d := range w.Days {
			n += len(d.Tasks)
		}
	}
	return n
}
