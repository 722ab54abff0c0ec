package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valter-silva-au/study-brain/internal/core"
	"github.com/valter-silva-au/study-brain/pkg/models"
	"gopkg.in/yaml.v3"
)

// ScheduleFile reads and writes the study schedule document. Files ending in
// .yaml or .yml are YAML; anything else is the generator's JSON format. It
// satisfies core.ScheduleRepository.
type ScheduleFile struct {
	path string
}

// NewScheduleFile creates a ScheduleFile for path.
func NewScheduleFile(path string) *ScheduleFile {
	return &ScheduleFile{path: path}
}

func (f *ScheduleFile) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(f.path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadSchedule reads the schedule. A missing file yields an empty schedule.
func (f *ScheduleFile) LoadSchedule(ctx context.Context) (models.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return models.Schedule{}, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.NormalizeSchedule(models.Schedule{}), nil
		}
		return models.Schedule{}, fmt.Errorf("loading schedule: %w", err)
	}

	if !f.isYAML() {
		s, err := core.ParseSchedule(data)
		if err != nil {
			return models.Schedule{}, fmt.Errorf("loading schedule %s: %w", f.path, err)
		}
		return s, nil
	}

	var s models.Schedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return models.Schedule{}, fmt.Errorf("loading schedule %s: parsing YAML: %w", f.path, err)
	}
	return core.NormalizeSchedule(s), nil
}

// SaveSchedule writes the schedule atomically in the format implied by the
// file extension.
func (f *ScheduleFile) SaveSchedule(ctx context.Context, schedule models.Schedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if f.isYAML() {
		data, err = yaml.Marshal(&schedule)
	} else {
		data, err = json.MarshalIndent(&schedule, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("saving schedule: marshaling: %w", err)
	}

	if err := writeFileAtomic(f.path, data); err != nil {
		return fmt.Errorf("saving schedule: %w", err)
	}
	return nil
}
