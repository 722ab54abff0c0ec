package models

import (
	"fmt"
	"time"
)

// TaskStatus represents how far the learner got with a task.
type TaskStatus string

const (
	StatusIncomplete    TaskStatus = "incomplete"
	StatusCompleted     TaskStatus = "completed"
	StatusNotUnderstood TaskStatus = "not-understood"
	StatusSkipped       TaskStatus = "skipped"
)

// AllStatuses lists every valid TaskStatus in display order.
var AllStatuses = []TaskStatus{
	StatusIncomplete,
	StatusCompleted,
	StatusNotUnderstood,
	StatusSkipped,
}

// Valid reports whether s is one of the four known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusIncomplete, StatusCompleted, StatusNotUnderstood, StatusSkipped:
		return true
	}
	return false
}

// IsFlagged reports whether a task in this status is a candidate for
// redistribution during replanning.
func (s TaskStatus) IsFlagged() bool {
	return s == StatusIncomplete || s == StatusNotUnderstood || s == StatusSkipped
}

// ParseTaskStatus converts a user-supplied string into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("invalid status %q: must be one of incomplete, completed, not-understood, skipped", s)
	}
	return status, nil
}

// TaskRef carries the identifying attributes of a scheduled task. It is the
// context used when a TaskRecord is created for the first time.
type TaskRef struct {
	WeekNumber int    `json:"weekNumber" yaml:"week_number"`
	DayOfWeek  string `json:"dayOfWeek" yaml:"day_of_week"`
	Subject    string `json:"subject" yaml:"subject"`
	Activity   string `json:"activity" yaml:"activity"`
}

// TaskRecord is the mutable tracking entry for one scheduled task.
// TaskID is not serialised: the persisted document keys records by id.
type TaskRecord struct {
	TaskID     string     `json:"-" yaml:"-"`
	Subject    string     `json:"subject" yaml:"subject"`
	Activity   string     `json:"activity" yaml:"activity"`
	WeekNumber int        `json:"weekNumber" yaml:"weekNumber"`
	DayOfWeek  string     `json:"dayOfWeek" yaml:"dayOfWeek"`
	Status     TaskStatus `json:"status" yaml:"status"`
	Timestamp  int64      `json:"timestamp" yaml:"timestamp"` // epoch millis
}

// UpdatedAt returns the record timestamp as a time.Time.
func (r TaskRecord) UpdatedAt() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}

// PerformanceStore maps task ids to their tracking records for one plan.
type PerformanceStore struct {
	Tasks       map[string]TaskRecord `json:"tasks" yaml:"tasks"`
	LastUpdated int64                 `json:"lastUpdated" yaml:"lastUpdated"` // epoch millis

	// ReplanPending carries a raised replanning signal across processes.
	ReplanPending bool `json:"replanPending,omitempty" yaml:"replanPending,omitempty"`
}

// NewPerformanceStore returns an empty store with an initialised map.
func NewPerformanceStore() PerformanceStore {
	return PerformanceStore{Tasks: make(map[string]TaskRecord)}
}

// Len returns the number of tracked records.
func (s PerformanceStore) Len() int {
	return len(s.Tasks)
}

// Clone returns a copy of s whose map can be modified without affecting s.
func (s PerformanceStore) Clone() PerformanceStore {
	out := PerformanceStore{
		Tasks:         make(map[string]TaskRecord, len(s.Tasks)),
		LastUpdated:   s.LastUpdated,
		ReplanPending: s.ReplanPending,
	}
	for id, rec := range s.Tasks {
		out.Tasks[id] = rec
	}
	return out
}

// Normalize repairs a store decoded from an external document: it allocates
// a nil map, copies map keys into TaskID and resets any unknown status to
// incomplete.
func (s PerformanceStore) Normalize() PerformanceStore {
	out := s.Clone()
	for id, rec := range out.Tasks {
		rec.TaskID = id
		if !rec.Status.Valid() {
			rec.Status = StatusIncomplete
		}
		out.Tasks[id] = rec
	}
	return out
}
