package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/study-brain/pkg/models"
)

// TrackedTask is a scheduled task together with its current status.
type TrackedTask struct {
	ScheduledTask
	Status models.TaskStatus
}

// StudySession is the host-facing surface of the core. It holds exactly one
// in-memory PerformanceStore for the active plan and the schedule it tracks.
// Mutating calls are not safe for concurrent use; the host serialises them.
type StudySession interface {
	PlanID() string
	Schedule() models.Schedule
	Store() models.PerformanceStore
	Preferences() models.Preferences
	Tasks(weekNumber int) []TrackedTask

	InitializeWeekTracking(ctx context.Context, weekNumber int) error
	RecordStatus(ctx context.Context, taskID string, status models.TaskStatus) error
	RecordTaskStatus(ctx context.Context, ref models.TaskRef, status models.TaskStatus) error
	GetStatus(weekNumber int, dayOfWeek, subject, activity string) models.TaskStatus

	NeedsReplanning() bool
	PreviewReplanning() ReplanResult
	ApplyReplanning(ctx context.Context) (ReplanResult, error)

	ComputeProgress() models.ProgressSummary

	LoadStore(ctx context.Context, planID string) (models.PerformanceStore, error)
	SyncStore(ctx context.Context, planID string) error

	Subscribe(l ChangeListener) (unsubscribe func())
}

// SessionConfig carries the collaborators of a StudySession. Every
// repository and the event logger are optional.
type SessionConfig struct {
	PlanID      string
	Schedule    models.Schedule
	Store       models.PerformanceStore
	Preferences models.Preferences
	FlagPolicy  models.FlagPolicy

	Local     StoreRepository
	Remote    StoreRepository
	Schedules ScheduleRepository
	Events    EventLogger

	// Now supplies timestamps; nil means time.Now.
	Now func() time.Time
}

type studySession struct {
	planID   string
	schedule models.Schedule
	index    map[string]ScheduledTask
	store    models.PerformanceStore
	prefs    models.Preferences
	policy   models.FlagPolicy

	// flagRaised backs NeedsReplanning under the sticky policy.
	flagRaised bool

	tracker    PerformanceTracker
	replanner  Replanner
	aggregator ProgressAggregator

	local     StoreRepository
	remote    StoreRepository
	schedules ScheduleRepository
	events    EventLogger

	feed changeFeed
	now  func() time.Time
}

// NewStudySession creates a StudySession over cfg.Schedule and cfg.Store.
// The schedule is normalised once here; an empty PlanID becomes "default".
func NewStudySession(cfg SessionConfig) StudySession {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	planID := cfg.PlanID
	if planID == "" {
		planID = "default"
	}
	policy := cfg.FlagPolicy
	if policy == "" {
		policy = models.FlagPolicySticky
	}

	schedule := NormalizeSchedule(cfg.Schedule)
	s := &studySession{
		planID:     planID,
		schedule:   schedule,
		index:      IndexSchedule(schedule),
		store:      cfg.Store.Normalize(),
		prefs:      cfg.Preferences,
		policy:     policy,
		tracker:    NewPerformanceTracker(now),
		replanner:  NewReplanner(now),
		aggregator: NewProgressAggregator(now),
		local:      cfg.Local,
		remote:     cfg.Remote,
		schedules:  cfg.Schedules,
		events:     cfg.Events,
		now:        now,
	}
	s.flagRaised = s.restoredFlag()
	return s
}

func (s *studySession) PlanID() string                  { return s.planID }
func (s *studySession) Schedule() models.Schedule       { return s.schedule }
func (s *studySession) Store() models.PerformanceStore  { return s.store.Clone() }
func (s *studySession) Preferences() models.Preferences { return s.prefs }

// Tasks lists the tasks of a week with their tracked status.
func (s *studySession) Tasks(weekNumber int) []TrackedTask {
	scheduled := WeekTasks(s.schedule, weekNumber)
	out := make([]TrackedTask, 0, len(scheduled))
	for _, st := range scheduled {
		status := models.StatusIncomplete
		if rec, ok := s.store.Tasks[st.ID]; ok {
			status = rec.Status
		}
		out = append(out, TrackedTask{ScheduledTask: st, Status: status})
	}
	return out
}

// InitializeWeekTracking seeds incomplete records for the tasks of a week.
func (s *studySession) InitializeWeekTracking(ctx context.Context, weekNumber int) error {
	if s.schedule.Week(weekNumber) == nil {
		return fmt.Errorf("initializing week %d: %w", weekNumber, ErrInvalidWeek)
	}
	before := s.store.Len()
	s.store = s.tracker.InitializeWeekTracking(s.schedule, weekNumber, s.store)
	return s.afterMutation(ctx, ChangeWeekInitialized, EventWeekInitialized, map[string]any{
		"plan_id":     s.planID,
		"week_number": weekNumber,
		"seeded":      s.store.Len() - before,
	})
}

// RecordStatus sets the status of a task by id. The task must either be
// tracked already or appear in the schedule, which supplies its context.
func (s *studySession) RecordStatus(ctx context.Context, taskID string, status models.TaskStatus) error {
	var ref models.TaskRef
	if rec, ok := s.store.Tasks[taskID]; ok {
		ref = models.TaskRef{
			WeekNumber: rec.WeekNumber,
			DayOfWeek:  rec.DayOfWeek,
			Subject:    rec.Subject,
			Activity:   rec.Activity,
		}
	} else if st, ok := s.index[taskID]; ok {
		ref = st.Ref
	} else {
		return fmt.Errorf("recording status for %s: %w", taskID, ErrUnknownTask)
	}
	return s.record(ctx, taskID, ref, status)
}

// RecordTaskStatus sets the status of the task identified by ref.
func (s *studySession) RecordTaskStatus(ctx context.Context, ref models.TaskRef, status models.TaskStatus) error {
	id := ResolveTaskID(ref.WeekNumber, ref.DayOfWeek, ref.Subject, ref.Activity)
	return s.record(ctx, id, ref, status)
}

func (s *studySession) record(ctx context.Context, taskID string, ref models.TaskRef, status models.TaskStatus) error {
	previous := models.StatusIncomplete
	if rec, ok := s.store.Tasks[taskID]; ok {
		previous = rec.Status
	}
	updated, err := s.tracker.RecordStatus(s.store, taskID, ref, status)
	if err != nil {
		return err
	}
	s.store = updated
	return s.afterMutation(ctx, ChangeStatusRecorded, EventStatusRecorded, map[string]any{
		"plan_id":    s.planID,
		"task_id":    taskID,
		"subject":    ref.Subject,
		"old_status": string(previous),
		"new_status": string(status),
	})
}

func (s *studySession) GetStatus(weekNumber int, dayOfWeek, subject, activity string) models.TaskStatus {
	return s.tracker.GetStatus(s.store, weekNumber, dayOfWeek, subject, activity)
}

// NeedsReplanning reports the replanning signal. Under the sticky policy the
// signal stays raised once any mutation left a flagged record behind, until
// ApplyReplanning runs. The raised signal is persisted with the store so it
// survives a restart. Under the derived policy it mirrors the store.
func (s *studySession) NeedsReplanning() bool {
	if s.policy == models.FlagPolicyDerived {
		return s.replanner.NeedsReplanning(s.store)
	}
	return s.flagRaised
}

// PreviewReplanning computes what ApplyReplanning would do without
// committing anything.
func (s *studySession) PreviewReplanning() ReplanResult {
	return s.replanner.ApplyReplanning(s.schedule, s.store, s.prefs)
}

// ApplyReplanning redistributes flagged tasks and commits the rewritten
// schedule and store. The schedule is saved before anything is committed so
// that a failed save leaves the session unchanged.
func (s *studySession) ApplyReplanning(ctx context.Context) (ReplanResult, error) {
	result := s.replanner.ApplyReplanning(s.schedule, s.store, s.prefs)
	if !result.Changed() {
		s.flagRaised = false
		if !s.store.ReplanPending {
			s.publish(ChangeReplanned)
			return result, nil
		}
		s.store.ReplanPending = false
		result.Store = s.store.Clone()
		return result, s.afterMutation(ctx, ChangeReplanned, EventReplanned, map[string]any{
			"plan_id":       s.planID,
			"redistributed": 0,
		})
	}

	if s.schedules != nil {
		if err := s.schedules.SaveSchedule(ctx, result.Schedule); err != nil {
			return ReplanResult{Schedule: s.schedule, Store: s.store.Clone()}, fmt.Errorf("saving replanned schedule: %w", err)
		}
	}

	s.schedule = result.Schedule
	s.index = IndexSchedule(result.Schedule)
	s.store = result.Store
	s.flagRaised = false

	err := s.afterMutation(ctx, ChangeReplanned, EventReplanned, map[string]any{
		"plan_id":          s.planID,
		"redistributed":    len(result.Placements),
		"synthesized_week": result.SynthesizedWeek,
	})
	result.Store = s.store.Clone()
	return result, err
}

func (s *studySession) ComputeProgress() models.ProgressSummary {
	return s.aggregator.ComputeProgress(s.schedule, s.store, s.prefs)
}

// LoadStore replaces the in-memory store with the persisted one for planID.
// The local repository is consulted first and the remote one only when the
// local copy is empty. On error the in-memory store is left untouched.
func (s *studySession) LoadStore(ctx context.Context, planID string) (models.PerformanceStore, error) {
	if planID == "" {
		planID = s.planID
	}

	loaded := models.NewPerformanceStore()
	source := "none"
	if s.local != nil {
		st, err := s.local.Load(ctx, planID)
		if err != nil {
			return s.store.Clone(), fmt.Errorf("loading store for plan %s: %w", planID, err)
		}
		loaded, source = st, "local"
	}
	if loaded.Len() == 0 && s.remote != nil {
		st, err := s.remote.Load(ctx, planID)
		if err != nil {
			return s.store.Clone(), fmt.Errorf("loading store for plan %s from remote: %w: %w", planID, ErrSync, err)
		}
		if st.Len() > 0 {
			loaded, source = st, "remote"
			if s.local != nil {
				if err := s.local.Save(ctx, planID, st); err != nil {
					s.logEvent(EventPersistFailed, map[string]any{"plan_id": planID, "error": err.Error()})
				}
			}
		}
	}

	s.planID = planID
	s.store = loaded.Normalize()
	s.flagRaised = s.restoredFlag()
	s.logEvent(EventStoreLoaded, map[string]any{
		"plan_id": planID,
		"source":  source,
		"records": s.store.Len(),
	})
	s.publish(ChangeStoreLoaded)
	return s.store.Clone(), nil
}

// SyncStore pushes the in-memory store to the remote repository. A failure
// is returned wrapped in ErrSync and never rolls back local state.
func (s *studySession) SyncStore(ctx context.Context, planID string) error {
	if planID == "" {
		planID = s.planID
	}
	if s.remote == nil {
		return fmt.Errorf("%w: %w", ErrSync, ErrNoRemote)
	}
	if err := s.remote.Save(ctx, planID, s.store); err != nil {
		s.logEvent(EventSyncFailed, map[string]any{"plan_id": planID, "error": err.Error()})
		return fmt.Errorf("%w for plan %s: %w", ErrSync, planID, err)
	}
	s.logEvent(EventStoreSynced, map[string]any{"plan_id": planID, "records": s.store.Len()})
	return nil
}

func (s *studySession) Subscribe(l ChangeListener) func() {
	return s.feed.subscribe(l)
}

// afterMutation updates the sticky flag, persists the store, logs the event
// and notifies listeners. A persistence failure is reported but the
// in-memory change stands.
func (s *studySession) afterMutation(ctx context.Context, kind ChangeKind, eventType string, data map[string]any) error {
	if s.replanner.NeedsReplanning(s.store) {
		s.flagRaised = true
	}
	s.store.ReplanPending = s.flagRaised && s.policy == models.FlagPolicySticky

	var persistErr error
	if s.local != nil {
		if err := s.local.Save(ctx, s.planID, s.store); err != nil {
			persistErr = fmt.Errorf("%w for plan %s: %w", ErrPersist, s.planID, err)
			s.logEvent(EventPersistFailed, map[string]any{"plan_id": s.planID, "error": err.Error()})
		}
	}

	s.logEvent(eventType, data)
	s.publish(kind)
	return persistErr
}

// restoredFlag derives the sticky flag of a freshly built or loaded store.
func (s *studySession) restoredFlag() bool {
	return s.store.ReplanPending || s.replanner.NeedsReplanning(s.store)
}

func (s *studySession) publish(kind ChangeKind) {
	s.feed.publish(ChangeEvent{
		ID:     uuid.NewString(),
		Kind:   kind,
		PlanID: s.planID,
		Time:   s.now().UTC(),
	})
}

func (s *studySession) logEvent(eventType string, data map[string]any) {
	if s.events == nil {
		return
	}
	_ = s.events.LogEvent(eventType, data) // Non-fatal: observability must not break study flow.
}
