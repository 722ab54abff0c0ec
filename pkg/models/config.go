package models

// FlagPolicy controls how the "needs replanning" signal reacts when a
// flagged task is later fixed without running replanning.
type FlagPolicy string

const (
	// FlagPolicySticky keeps the signal raised until replanning runs. The raised
	// signal is stored with the performance record.
	FlagPolicySticky FlagPolicy = "sticky"
	// FlagPolicyDerived recomputes the signal from the store after every change.
	FlagPolicyDerived FlagPolicy = "derived"
)

// AlertConfig holds alert threshold overrides from .studyconfig.
type AlertConfig struct {
	FlaggedThreshold int `yaml:"flagged_threshold" mapstructure:"flagged_threshold"`
	StaleDays        int `yaml:"stale_days" mapstructure:"stale_days"`
	SyncFailures     int `yaml:"sync_failures" mapstructure:"sync_failures"`
}

// SlackConfig holds the Slack webhook used for alert notifications.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotificationConfig groups alert notification settings.
type NotificationConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
	Alerts  AlertConfig `yaml:"alerts" mapstructure:"alerts"`
}

// GlobalConfig holds settings read from .studyconfig via Viper.
type GlobalConfig struct {
	PlanID         string             `yaml:"plan_id" mapstructure:"plan_id"`
	ScheduleFile   string             `yaml:"schedule_file" mapstructure:"schedule_file"`
	Preferences    Preferences        `yaml:"preferences" mapstructure:"preferences"`
	FlagPolicy     FlagPolicy         `yaml:"flag_policy" mapstructure:"flag_policy"`
	RemoteDatabase string             `yaml:"remote_database,omitempty" mapstructure:"remote_database"`
	Notifications  NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
}
