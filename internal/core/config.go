// Package core contains the business logic of study-brain: task identity,
// performance tracking, adaptive replanning, progress aggregation, the
// host-facing study session and configuration loading.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/study-brain/pkg/models"
)

// validPlanIDPattern matches plan ids usable as directory names and SQL keys.
var validPlanIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ConfigurationManager defines the interface for loading and validating the
// .studyconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the root directory where .studyconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		PlanID:       "default",
		ScheduleFile: "schedule.json",
		Preferences:  models.Preferences{DaysPerWeek: models.DefaultDaysPerWeek},
		FlagPolicy:   models.FlagPolicySticky,
		Notifications: models.NotificationConfig{
			Alerts: models.AlertConfig{
				FlaggedThreshold: 10,
				StaleDays:        3,
				SyncFailures:     3,
			},
		},
	}
}

// LoadGlobalConfig reads the .studyconfig file from the base path using Viper.
// If the file does not exist, sensible defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(".studyconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("plan.id", cfg.PlanID)
	v.SetDefault("plan.schedule_file", cfg.ScheduleFile)
	v.SetDefault("preferences.days_per_week", cfg.Preferences.DaysPerWeek)
	v.SetDefault("replanning.flag_policy", string(cfg.FlagPolicy))
	v.SetDefault("remote.database", cfg.RemoteDatabase)
	v.SetDefault("notifications.enabled", cfg.Notifications.Enabled)
	v.SetDefault("notifications.alerts.flagged_threshold", cfg.Notifications.Alerts.FlaggedThreshold)
	v.SetDefault("notifications.alerts.stale_days", cfg.Notifications.Alerts.StaleDays)
	v.SetDefault("notifications.alerts.sync_failures", cfg.Notifications.Alerts.SyncFailures)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found: return defaults.
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .studyconfig: %w", err)
	}

	// Map nested YAML keys to GlobalConfig fields.
	cfg.PlanID = v.GetString("plan.id")
	cfg.ScheduleFile = v.GetString("plan.schedule_file")
	cfg.Preferences.DaysPerWeek = v.GetInt("preferences.days_per_week")
	cfg.FlagPolicy = models.FlagPolicy(v.GetString("replanning.flag_policy"))
	cfg.RemoteDatabase = v.GetString("remote.database")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")
	cfg.Notifications.Alerts.FlaggedThreshold = v.GetInt("notifications.alerts.flagged_threshold")
	cfg.Notifications.Alerts.StaleDays = v.GetInt("notifications.alerts.stale_days")
	cfg.Notifications.Alerts.SyncFailures = v.GetInt("notifications.alerts.sync_failures")

	return cfg, nil
}

// validFlagPolicies is the set of allowed FlagPolicy values.
var validFlagPolicies = map[models.FlagPolicy]bool{
	models.FlagPolicySticky:  true,
	models.FlagPolicyDerived: true,
}

// ValidateConfig checks the configuration for invalid values and returns a
// single error listing every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !validPlanIDPattern.MatchString(cfg.PlanID) {
		errs = append(errs, fmt.Sprintf(
			"plan.id %q is invalid, must match [A-Za-z0-9][A-Za-z0-9._-]{0,63}",
			cfg.PlanID,
		))
	}

	if strings.TrimSpace(cfg.ScheduleFile) == "" {
		errs = append(errs, "plan.schedule_file must not be empty")
	}

	if d := cfg.Preferences.DaysPerWeek; d < 1 || d > 7 {
		errs = append(errs, fmt.Sprintf("preferences.days_per_week %d is invalid, must be between 1 and 7", d))
	}

	if !validFlagPolicies[cfg.FlagPolicy] {
		errs = append(errs, fmt.Sprintf(
			"replanning.flag_policy %q is invalid, must be one of: sticky, derived",
			cfg.FlagPolicy,
		))
	}

	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.slack.webhook_url is required when notifications are enabled")
	}

	a := cfg.Notifications.Alerts
	if a.FlaggedThreshold < 0 || a.StaleDays < 0 || a.SyncFailures < 0 {
		errs = append(errs, "notifications.alerts thresholds must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
