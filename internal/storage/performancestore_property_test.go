package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/valter-silva-au/study-brain/pkg/models"
	"pgregory.net/rapid"
)

func genAlphaString(t *rapid.T, label string, minLen, maxLen int) string {
	letters := "abcdefghijklmnopqrstuvwxyz"
	n := rapid.IntRange(minLen, maxLen).Draw(t, label+"Len")
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rapid.IntRange(0, len(letters)-1).Draw(t, label+"Char")]
	}
	return string(b)
}

func genTaskStatus(t *rapid.T) models.TaskStatus {
	return models.AllStatuses[rapid.IntRange(0, len(models.AllStatuses)-1).Draw(t, "statusIdx")]
}

func genPerformanceStore(t *rapid.T) models.PerformanceStore {
	store := models.NewPerformanceStore()
	n := rapid.IntRange(0, 12).Draw(t, "nRecords")
	for i := 0; i < n; i++ {
		week := rapid.IntRange(1, 12).Draw(t, "week")
		subject := genAlphaString(t, "subject", 1, 12)
		id := fmt.Sprintf("%d-monday-%s-%d", week, subject, i)
		store.Tasks[id] = models.TaskRecord{
			Subject:    subject,
			Activity:   genAlphaString(t, "activity", 0, 30),
			WeekNumber: week,
			DayOfWeek:  "Monday",
			Status:     genTaskStatus(t),
			Timestamp:  rapid.Int64Range(0, 1<<42).Draw(t, "ts"),
		}
	}
	store.LastUpdated = rapid.Int64Range(0, 1<<42).Draw(t, "lastUpdated")
	return store
}

// Feature: study-brain, Property 9: Persisted Store Reload
// A store saved for a plan and loaded back keeps every record's status and
// attributes, and each record's id matches its key.
func TestProperty_PersistedStoreReload(t *testing.T) {
	dir := t.TempDir()
	mgr := NewPerformanceStoreManager(dir)
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		want := genPerformanceStore(t)
		planID := "plan-" + genAlphaString(t, "plan", 1, 8)

		if err := mgr.Save(ctx, planID, want); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := mgr.Load(ctx, planID)
		if err != nil {
			t.Fatalf("load: %v", err)
		}

		if got.Len() != want.Len() {
			t.Fatalf("record count: got %d, want %d", got.Len(), want.Len())
		}
		if got.LastUpdated != want.LastUpdated {
			t.Fatalf("LastUpdated: got %d, want %d", got.LastUpdated, want.LastUpdated)
		}
		for id, w := range want.Tasks {
			g, ok := got.Tasks[id]
			if !ok {
				t.Fatalf("record %s missing after reload", id)
			}
			if g.TaskID != id {
				t.Fatalf("TaskID %q does not match key %q", g.TaskID, id)
			}
			w.TaskID = id
			if g != w {
				t.Fatalf("record %s: got %+v, want %+v", id, g, w)
			}
		}
	})
}
