package models

import "time"

// Preferences holds learner settings supplied by the host.
type Preferences struct {
	DaysPerWeek int `json:"daysPerWeek" yaml:"days_per_week" mapstructure:"days_per_week"`
}

// DefaultDaysPerWeek is used when Preferences.DaysPerWeek is unset.
const DefaultDaysPerWeek = 5

// StudyDays returns DaysPerWeek clamped to 1..7, substituting the default
// for a zero value.
func (p Preferences) StudyDays() int {
	switch {
	case p.DaysPerWeek <= 0:
		return DefaultDaysPerWeek
	case p.DaysPerWeek > 7:
		return 7
	default:
		return p.DaysPerWeek
	}
}

// ProgressSummary is the derived completion view of a plan.
type ProgressSummary struct {
	Percent        int `json:"percent"`
	CompletedTasks int `json:"completedTasks"`
	TotalTasks     int `json:"totalTasks"`
	CompletedDays  int `json:"completedDays"`
	TotalDays      int `json:"totalDays"`

	// EstimatedCompletion is nil when no estimate is available.
	EstimatedCompletion *time.Time `json:"estimatedCompletionDate,omitempty"`

	StatusCounts map[TaskStatus]int `json:"statusCounts"`
	Weeks        []WeekProgress     `json:"weeks"`
	Subjects     []SubjectProgress  `json:"subjects"`
}

// EstimateLabel renders the estimated completion date for display.
func (p ProgressSummary) EstimateLabel() string {
	if p.EstimatedCompletion == nil {
		return "not available"
	}
	return p.EstimatedCompletion.Format("2006-01-02")
}

// WeekProgress is the per-week rollup of a ProgressSummary.
type WeekProgress struct {
	WeekNumber     int `json:"weekNumber"`
	CompletedTasks int `json:"completedTasks"`
	TotalTasks     int `json:"totalTasks"`
	CompletedDays  int `json:"completedDays"`
	TotalDays      int `json:"totalDays"`
}

// SubjectProgress is the per-subject rollup of a ProgressSummary.
type SubjectProgress struct {
	Subject        string `json:"subject"`
	CompletedTasks int    `json:"completedTasks"`
	TotalTasks     int    `json:"totalTasks"`
	NotUnderstood  int    `json:"notUnderstood"`
}
