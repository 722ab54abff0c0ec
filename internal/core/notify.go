package core

import (
	"sort"
	"sync"
	"time"
)

// ChangeKind names the mutation that produced a ChangeEvent.
type ChangeKind string

const (
	ChangeWeekInitialized ChangeKind = "week_initialized"
	ChangeStatusRecorded  ChangeKind = "status_recorded"
	ChangeReplanned       ChangeKind = "replanned"
	ChangeStoreLoaded     ChangeKind = "store_loaded"
)

// ChangeEvent is published after every mutating session call so display
// collaborators can recompute derived views.
type ChangeEvent struct {
	ID     string
	Kind   ChangeKind
	PlanID string
	Time   time.Time
}

// ChangeListener receives change events. It is called synchronously on the
// goroutine that performed the mutation and must not call back into the
// session's mutating methods.
type ChangeListener func(ChangeEvent)

// changeFeed is a small observer registry. Registration is guarded so that
// listeners can subscribe from other goroutines (e.g. a TUI program).
type changeFeed struct {
	mu        sync.Mutex
	next      int
	listeners map[int]ChangeListener
}

func (f *changeFeed) subscribe(l ChangeListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listeners == nil {
		f.listeners = make(map[int]ChangeListener)
	}
	id := f.next
	f.next++
	f.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.listeners, id)
		})
	}
}

func (f *changeFeed) publish(ev ChangeEvent) {
	f.mu.Lock()
	ids := make([]int, 0, len(f.listeners))
	for id := range f.listeners {
		ids = append(ids, id)
	}
	listeners := make([]ChangeListener, 0, len(ids))
	// Deliver in subscription order.
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, f.listeners[id])
	}
	f.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}
