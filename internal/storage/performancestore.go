package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/valter-silva-au/study-brain/pkg/models"
	"gopkg.in/yaml.v3"
)

const performanceFileName = "performance.yaml"

// planIDPattern restricts plan ids to names that are safe as a single path
// segment.
var planIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// performanceFile is the on-disk layout of performance.yaml. Version allows
// the layout to evolve without guessing.
type performanceFile struct {
	Version       string                       `yaml:"version"`
	PlanID        string                       `yaml:"plan_id"`
	LastUpdated   int64                        `yaml:"last_updated"`
	ReplanPending bool                         `yaml:"replan_pending,omitempty"`
	Tasks         map[string]models.TaskRecord `yaml:"tasks"`
}

// PerformanceStoreManager persists performance stores as YAML files under
// <basePath>/plans/<planID>/performance.yaml. It satisfies
// core.StoreRepository.
type PerformanceStoreManager interface {
	Load(ctx context.Context, planID string) (models.PerformanceStore, error)
	Save(ctx context.Context, planID string, store models.PerformanceStore) error
	ListPlans() ([]string, error)
}

type filePerformanceStore struct {
	basePath string
}

// NewPerformanceStoreManager creates a PerformanceStoreManager rooted at
// basePath.
func NewPerformanceStoreManager(basePath string) PerformanceStoreManager {
	return &filePerformanceStore{basePath: basePath}
}

func (m *filePerformanceStore) plansDir() string {
	return filepath.Join(m.basePath, "plans")
}

func (m *filePerformanceStore) filePath(planID string) string {
	return filepath.Join(m.plansDir(), planID, performanceFileName)
}

// lockPath sits beside the plan directory so the directory itself only ever
// holds performance.yaml.
func (m *filePerformanceStore) lockPath(planID string) string {
	return filepath.Join(m.plansDir(), "."+planID+".lock")
}

// Load reads the store of planID. A plan that was never saved yields an
// empty store.
func (m *filePerformanceStore) Load(ctx context.Context, planID string) (models.PerformanceStore, error) {
	if err := ctx.Err(); err != nil {
		return models.PerformanceStore{}, err
	}
	if !planIDPattern.MatchString(planID) {
		return models.PerformanceStore{}, fmt.Errorf("loading performance store: invalid plan id %q", planID)
	}

	data, err := os.ReadFile(m.filePath(planID))
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewPerformanceStore(), nil
		}
		return models.PerformanceStore{}, fmt.Errorf("loading performance store: %w", err)
	}

	var pf performanceFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return models.PerformanceStore{}, fmt.Errorf("loading performance store: parsing YAML: %w", err)
	}

	store := models.PerformanceStore{Tasks: pf.Tasks, LastUpdated: pf.LastUpdated, ReplanPending: pf.ReplanPending}
	return store.Normalize(), nil
}

// Save writes the store of planID. The file is replaced atomically so a
// crash never leaves a truncated document behind, and writers of the same
// plan (the CLI and a running MCP server) are serialized by a lock file.
func (m *filePerformanceStore) Save(ctx context.Context, planID string, store models.PerformanceStore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !planIDPattern.MatchString(planID) {
		return fmt.Errorf("saving performance store: invalid plan id %q", planID)
	}

	tasks := store.Tasks
	if tasks == nil {
		tasks = map[string]models.TaskRecord{}
	}
	data, err := yaml.Marshal(&performanceFile{
		Version:       "1.0",
		PlanID:        planID,
		LastUpdated:   store.LastUpdated,
		ReplanPending: store.ReplanPending,
		Tasks:         tasks,
	})
	if err != nil {
		return fmt.Errorf("saving performance store: marshaling YAML: %w", err)
	}

	unlock, err := lockFile(m.lockPath(planID))
	if err != nil {
		return fmt.Errorf("saving performance store: %w", err)
	}
	defer func() { _ = unlock() }()

	if err := writeFileAtomic(m.filePath(planID), data); err != nil {
		return fmt.Errorf("saving performance store: %w", err)
	}
	return nil
}

// ListPlans returns the ids of every plan with a saved store, sorted.
func (m *filePerformanceStore) ListPlans() ([]string, error) {
	entries, err := os.ReadDir(m.plansDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing plans: %w", err)
	}

	plans := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(m.filePath(e.Name())); err == nil {
			plans = append(plans, e.Name())
		}
	}
	sort.Strings(plans)
	return plans, nil
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
