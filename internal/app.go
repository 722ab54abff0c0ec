// Package internal provides the App struct that wires all components of the
// Study Brain system together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valter-silva-au/study-brain/internal/cli"
	"github.com/valter-silva-au/study-brain/internal/core"
	"github.com/valter-silva-au/study-brain/internal/observability"
	"github.com/valter-silva-au/study-brain/internal/storage"
	"github.com/valter-silva-au/study-brain/pkg/models"
)

// configFileNames are the names ResolveBasePath looks for while walking up
// from the working directory.
var configFileNames = []string{".studyconfig", ".studyconfig.yaml", ".studyconfig.yml"}

// App holds all service dependencies for the Study Brain system.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Storage layer
	StoreMgr  storage.PerformanceStoreManager
	Schedules *storage.ScheduleFile
	Remote    *storage.RemoteStore

	// Core services
	Session core.StudySession

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of the Study Brain system.
// basePath is the root directory where all data is stored (typically the
// directory containing .studyconfig, or $SB_HOME).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}
	ctx := context.Background()

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".sb_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if log can't be created.
		log.Printf("WARNING: event log disabled: %v", err)
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, alertThresholds(cfg.Notifications.Alerts))
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL)
	}

	// --- Storage layer ---
	app.StoreMgr = storage.NewPerformanceStoreManager(basePath)
	app.Schedules = storage.NewScheduleFile(resolvePath(basePath, cfg.ScheduleFile))
	if cfg.RemoteDatabase != "" {
		app.Remote, err = storage.NewRemoteStore(resolvePath(basePath, cfg.RemoteDatabase))
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("opening remote store: %w", err)
		}
	}

	schedule, err := app.Schedules.LoadSchedule(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	// --- Core services ---
	sessionCfg := core.SessionConfig{
		PlanID:      cfg.PlanID,
		Schedule:    schedule,
		Preferences: cfg.Preferences,
		FlagPolicy:  cfg.FlagPolicy,
		Local:       app.StoreMgr,
		Schedules:   app.Schedules,
	}
	// Interface fields stay nil rather than holding typed nil pointers.
	if app.Remote != nil {
		sessionCfg.Remote = app.Remote
	}
	if app.EventLog != nil {
		sessionCfg.Events = &eventLogAdapter{log: app.EventLog}
	}
	app.Session = core.NewStudySession(sessionCfg)

	// Non-fatal: an unreadable store leaves the session empty and the
	// error resurfaces on the next 'sb load'.
	if _, err := app.Session.LoadStore(ctx, cfg.PlanID); err != nil {
		log.Printf("WARNING: %v", err)
	}

	// --- Wire CLI package-level variables ---
	cli.Session = app.Session
	cli.StoreMgr = app.StoreMgr
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App: the event log file handle and
// the remote database. It is safe to call on a partially wired App.
func (a *App) Close() error {
	var errs []string
	if a.Remote != nil {
		if err := a.Remote.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing app: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ResolveBasePath determines the base path for the Study Brain data directory.
// It checks for the SB_HOME env var, then walks up from the current directory
// looking for a .studyconfig file, and finally falls back to the current
// directory.
func ResolveBasePath() string {
	if home := os.Getenv("SB_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		for _, name := range configFileNames {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// resolvePath anchors a configured relative path at basePath.
func resolvePath(basePath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// alertThresholds overlays configured alert thresholds on the defaults.
func alertThresholds(cfg models.AlertConfig) observability.AlertThresholds {
	thresholds := observability.DefaultAlertThresholds()
	if cfg.FlaggedThreshold > 0 {
		thresholds.FlaggedThreshold = cfg.FlaggedThreshold
	}
	if cfg.StaleDays > 0 {
		thresholds.StaleDays = cfg.StaleDays
	}
	if cfg.SyncFailures > 0 {
		thresholds.SyncFailures = cfg.SyncFailures
	}
	return thresholds
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	level := observability.LevelInfo
	switch {
	case eventType == core.EventPersistFailed:
		level = observability.LevelError
	case strings.HasSuffix(eventType, "_failed"):
		level = observability.LevelWarn
	}
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   level,
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
