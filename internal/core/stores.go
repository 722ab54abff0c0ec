package core

import (
	"context"

	"github.com/valter-silva-au/study-brain/pkg/models"
)

// StoreRepository persists the performance store of a plan. Both the local
// store and the remote sync target implement it; the core never depends on
// a concrete storage package.
type StoreRepository interface {
	Load(ctx context.Context, planID string) (models.PerformanceStore, error)
	Save(ctx context.Context, planID string, store models.PerformanceStore) error
}

// ScheduleRepository persists the schedule rewritten by replanning.
type ScheduleRepository interface {
	LoadSchedule(ctx context.Context) (models.Schedule, error)
	SaveSchedule(ctx context.Context, schedule models.Schedule) error
}
