package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/study-brain/internal/core"
	"github.com/valter-silva-au/study-brain/internal/observability"
	"github.com/valter-silva-au/study-brain/internal/storage"
)

// Service instances, set during app initialization in app.go.
var (
	Session  core.StudySession
	StoreMgr storage.PerformanceStoreManager

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)

var errSessionNotInitialized = errors.New("study session not initialized")

func requireSession() (core.StudySession, error) {
	if Session == nil {
		return nil, errSessionNotInitialized
	}
	return Session, nil
}

// commandContext returns the command's context, or a background context when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
