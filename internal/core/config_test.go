package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/study-brain/pkg/models"
)

// --- Helper ---

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// --- LoadGlobalConfig tests ---

func TestLoadGlobalConfig_Defaults_WhenNoFile(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())

	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.PlanID != "default" {
		t.Errorf("PlanID = %q, want %q", cfg.PlanID, "default")
	}
	if cfg.ScheduleFile != "schedule.json" {
		t.Errorf("ScheduleFile = %q, want %q", cfg.ScheduleFile, "schedule.json")
	}
	if cfg.Preferences.DaysPerWeek != 5 {
		t.Errorf("DaysPerWeek = %d, want 5", cfg.Preferences.DaysPerWeek)
	}
	if cfg.FlagPolicy != models.FlagPolicySticky {
		t.Errorf("FlagPolicy = %q, want sticky", cfg.FlagPolicy)
	}
	if cfg.RemoteDatabase != "" {
		t.Errorf("RemoteDatabase = %q, want empty", cfg.RemoteDatabase)
	}
	if cfg.Notifications.Alerts.FlaggedThreshold != 10 {
		t.Errorf("FlaggedThreshold = %d, want 10", cfg.Notifications.Alerts.FlaggedThreshold)
	}
}

func TestLoadGlobalConfig_ReadsStudyconfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, ".studyconfig.yaml", `
plan:
  id: step1
  schedule_file: plans/step1.yaml
preferences:
  days_per_week: 3
replanning:
  flag_policy: derived
remote:
  database: /srv/study/remote.db
notifications:
  enabled: true
  slack:
    webhook_url: https://hooks.slack.com/services/T/B/X
  alerts:
    stale_days: 7
`)

	cfg, err := NewConfigurationManager(dir).LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.PlanID != "step1" {
		t.Errorf("PlanID = %q, want step1", cfg.PlanID)
	}
	if cfg.ScheduleFile != "plans/step1.yaml" {
		t.Errorf("ScheduleFile = %q", cfg.ScheduleFile)
	}
	if cfg.Preferences.DaysPerWeek != 3 {
		t.Errorf("DaysPerWeek = %d, want 3", cfg.Preferences.DaysPerWeek)
	}
	if cfg.FlagPolicy != models.FlagPolicyDerived {
		t.Errorf("FlagPolicy = %q, want derived", cfg.FlagPolicy)
	}
	if cfg.RemoteDatabase != "/srv/study/remote.db" {
		t.Errorf("RemoteDatabase = %q", cfg.RemoteDatabase)
	}
	if !cfg.Notifications.Enabled || cfg.Notifications.Slack.WebhookURL == "" {
		t.Errorf("notifications not read: %+v", cfg.Notifications)
	}
	if cfg.Notifications.Alerts.StaleDays != 7 {
		t.Errorf("StaleDays = %d, want 7", cfg.Notifications.Alerts.StaleDays)
	}
	// Unset keys keep their defaults.
	if cfg.Notifications.Alerts.SyncFailures != 3 {
		t.Errorf("SyncFailures = %d, want default 3", cfg.Notifications.Alerts.SyncFailures)
	}
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, ".studyconfig.yaml", "plan: [unclosed\n")

	if _, err := NewConfigurationManager(dir).LoadGlobalConfig(); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

// --- ValidateConfig tests ---

func TestValidateConfig_Defaults(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	if err := cm.ValidateConfig(DefaultGlobalConfig()); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestValidateConfig_Nil(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	if err := cm.ValidateConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestValidateConfig_ReportsEveryProblem(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg := DefaultGlobalConfig()
	cfg.PlanID = "../escape"
	cfg.ScheduleFile = "  "
	cfg.Preferences.DaysPerWeek = 9
	cfg.FlagPolicy = "lazy"
	cfg.Notifications.Enabled = true
	cfg.Notifications.Alerts.StaleDays = -1

	err := cm.ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"plan.id",
		"plan.schedule_file",
		"preferences.days_per_week",
		"replanning.flag_policy",
		"webhook_url",
		"non-negative",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got:\n%v", want, err)
		}
	}
}

func TestValidateConfig_PlanIDs(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	tests := []struct {
		id    string
		valid bool
	}{
		{"default", true},
		{"step1-2026.v2", true},
		{"", false},
		{"-leading", false},
		{"has space", false},
		{strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		cfg := DefaultGlobalConfig()
		cfg.PlanID = tt.id
		err := cm.ValidateConfig(cfg)
		if (err == nil) != tt.valid {
			t.Errorf("ValidateConfig(plan %q) error = %v, want valid=%v", tt.id, err, tt.valid)
		}
	}
}
