package core

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// Event types emitted by the study session.
const (
	EventWeekInitialized = "study.week_initialized"
	EventStatusRecorded  = "study.status_recorded"
	EventReplanned       = "study.replanned"
	EventStoreLoaded     = "study.store_loaded"
	EventStoreSynced     = "study.store_synced"
	EventSyncFailed      = "study.sync_failed"
	EventPersistFailed   = "study.persist_failed"
)
