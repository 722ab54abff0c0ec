package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/study-brain/internal/core"
	"github.com/valter-silva-au/study-brain/pkg/models"
)

const (
	cliAnatomyID = "1-monday-anatomy-read-chapt"
	cliPharmaID  = "1-tuesday-pharmacology-review-bet"
)

func cliSchedule() models.Schedule {
	return models.Schedule{Weeks: []models.Week{
		{
			WeekNumber: 1,
			Theme:      "Foundations",
			FocusAreas: []string{"Anatomy"},
			Days: []models.Day{
				{DayOfWeek: "Monday", Tasks: []models.Task{{Subject: "Anatomy", Duration: 60, Activity: "Read chapter 1"}}},
				{DayOfWeek: "Tuesday", Tasks: []models.Task{{Subject: "Pharmacology", Duration: 45, Activity: "Review beta blockers"}}},
			},
		},
		{
			WeekNumber: 2,
			Theme:      "Systems",
			FocusAreas: []string{"Anatomy"},
			Days: []models.Day{
				{DayOfWeek: "Monday", Tasks: []models.Task{{Subject: "Anatomy", Duration: 60, Activity: "Read chapter 2"}}},
			},
		},
	}}
}

func cliSessionConfig() core.SessionConfig {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	return core.SessionConfig{
		PlanID:      "step1",
		Schedule:    cliSchedule(),
		Preferences: models.Preferences{DaysPerWeek: 5},
		Now:         func() time.Time { return now },
	}
}

// withSession installs a fresh in-memory session for the duration of the test.
func withSession(t *testing.T) core.StudySession {
	t.Helper()
	return withSessionConfig(t, cliSessionConfig())
}

func withSessionConfig(t *testing.T, cfg core.SessionConfig) core.StudySession {
	t.Helper()
	s := core.NewStudySession(cfg)
	orig := Session
	Session = s
	t.Cleanup(func() { Session = orig })
	return s
}

func withoutSession(t *testing.T) {
	t.Helper()
	orig := Session
	Session = nil
	t.Cleanup(func() { Session = orig })
}

// runCmd invokes cmd's RunE directly and returns what it wrote to stdout.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return out.String(), err
}
