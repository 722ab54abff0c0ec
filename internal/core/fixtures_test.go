package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/valter-silva-au/study-brain/pkg/models"
)

// fixedNow is the clock used by tests: 2023-11-14T22:13:20Z.
var fixedNow = time.UnixMilli(1_700_000_000_000).UTC()

func fixedClock() time.Time { return fixedNow }

// Task ids of sampleSchedule.
const (
	idAnatomyW1    = "1-monday-anatomy-read-chapt"
	idPharmaW1     = "1-monday-pharmacology-review-bet"
	idPhysioW1     = "1-tuesday-physiology-cardiac-cy"
	idAnatomyW2    = "2-monday-anatomy-read-chapt"
	idPharmaW2     = "2-wednesday-pharmacology-flashcards"
	idPhysioW3     = "3-monday-physiology-renal-phys"
	sampleTasksCnt = 6
)

// sampleSchedule is a three-week plan with six tasks over five study days.
func sampleSchedule() models.Schedule {
	return models.Schedule{Weeks: []models.Week{
		{
			WeekNumber:  1,
			Theme:       "Foundations",
			FocusAreas:  []string{"Anatomy", "Pharmacology"},
			WeeklyGoals: []models.WeeklyGoal{{Subject: "Anatomy", Description: "Finish chapter 1"}},
			Days: []models.Day{
				{DayOfWeek: "Monday", Tasks: []models.Task{
					{Subject: "Anatomy", Duration: 60, Activity: "Read chapter 1"},
					{Subject: "Pharmacology", Duration: 45, Activity: "Review beta blockers"},
				}},
				{DayOfWeek: "Tuesday", Tasks: []models.Task{
					{Subject: "Physiology", Duration: 30, Activity: "Cardiac cycle notes"},
				}},
			},
		},
		{
			WeekNumber:  2,
			Theme:       "Systems",
			FocusAreas:  []string{"Anatomy", "Pharmacology"},
			WeeklyGoals: []models.WeeklyGoal{},
			Days: []models.Day{
				{DayOfWeek: "Monday", Tasks: []models.Task{
					{Subject: "Anatomy", Duration: 60, Activity: "Read chapter 2"},
				}},
				{DayOfWeek: "Wednesday", Tasks: []models.Task{
					{Subject: "Pharmacology", Duration: 40, Activity: "Flashcards on diuretics"},
				}},
			},
		},
		{
			WeekNumber:  3,
			Theme:       "Integration",
			FocusAreas:  []string{"Renal"},
			WeeklyGoals: []models.WeeklyGoal{},
			Days: []models.Day{
				{DayOfWeek: "Monday", Tasks: []models.Task{
					{Subject: "Physiology", Duration: 50, Activity: "Renal physiology"},
				}},
			},
		},
	}}
}

func record(id string, week int, day, subject, activity string, status models.TaskStatus) models.TaskRecord {
	return models.TaskRecord{
		TaskID:     id,
		Subject:    subject,
		Activity:   activity,
		WeekNumber: week,
		DayOfWeek:  day,
		Status:     status,
		Timestamp:  1,
	}
}

// weekOneStore tracks week 1 of sampleSchedule: anatomy done, pharmacology
// not understood, physiology skipped.
func weekOneStore() models.PerformanceStore {
	return models.PerformanceStore{
		Tasks: map[string]models.TaskRecord{
			idAnatomyW1: record(idAnatomyW1, 1, "Monday", "Anatomy", "Read chapter 1", models.StatusCompleted),
			idPharmaW1:  record(idPharmaW1, 1, "Monday", "Pharmacology", "Review beta blockers", models.StatusNotUnderstood),
			idPhysioW1:  record(idPhysioW1, 1, "Tuesday", "Physiology", "Cardiac cycle notes", models.StatusSkipped),
		},
		LastUpdated: 1,
	}
}

// --- fakes for the session ports ---

type fakeStoreRepo struct {
	mu      sync.Mutex
	stores  map[string]models.PerformanceStore
	saves   int
	loadErr error
	saveErr error
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{stores: make(map[string]models.PerformanceStore)}
}

func (f *fakeStoreRepo) Load(_ context.Context, planID string) (models.PerformanceStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return models.PerformanceStore{}, f.loadErr
	}
	st, ok := f.stores[planID]
	if !ok {
		return models.NewPerformanceStore(), nil
	}
	return st.Clone(), nil
}

func (f *fakeStoreRepo) Save(_ context.Context, planID string, store models.PerformanceStore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.stores[planID] = store.Clone()
	return nil
}

type fakeScheduleRepo struct {
	saved   *models.Schedule
	saveErr error
}

func (f *fakeScheduleRepo) LoadSchedule(context.Context) (models.Schedule, error) {
	if f.saved == nil {
		return models.Schedule{}, nil
	}
	return *f.saved, nil
}

func (f *fakeScheduleRepo) SaveSchedule(_ context.Context, s models.Schedule) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &s
	return nil
}

type loggedEvent struct {
	Type string
	Data map[string]any
}

type fakeEventLogger struct {
	events []loggedEvent
}

func (f *fakeEventLogger) LogEvent(eventType string, data map[string]any) error {
	f.events = append(f.events, loggedEvent{Type: eventType, Data: data})
	return nil
}

func (f *fakeEventLogger) types() []string {
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

func (f *fakeEventLogger) last(eventType string) (loggedEvent, bool) {
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].Type == eventType {
			return f.events[i], true
		}
	}
	return loggedEvent{}, false
}

var errDiskFull = errors.New("disk full")
