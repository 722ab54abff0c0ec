package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/study-brain/internal/observability"
)

type alertsMock struct {
	evaluateFn func() ([]observability.Alert, error)
}

func (m *alertsMock) Evaluate() ([]observability.Alert, error) {
	return m.evaluateFn()
}

type notifierMock struct {
	notifyFn func(ctx context.Context, alerts []observability.Alert) error
}

func (m *notifierMock) Notify(ctx context.Context, alerts []observability.Alert) error {
	return m.notifyFn(ctx, alerts)
}

func withAlertEngine(t *testing.T, engine observability.AlertEngine) {
	t.Helper()
	orig := AlertEngine
	AlertEngine = engine
	t.Cleanup(func() { AlertEngine = orig })
}

func withNotifier(t *testing.T, n observability.Notifier) {
	t.Helper()
	orig := Notifier
	Notifier = n
	t.Cleanup(func() { Notifier = orig })
}

func staticAlerts(alerts ...observability.Alert) *alertsMock {
	return &alertsMock{evaluateFn: func() ([]observability.Alert, error) { return alerts, nil }}
}

var backlogAlert = observability.Alert{
	ID:          "a1",
	Condition:   observability.ConditionNotUnderstood,
	Severity:    observability.SeverityMedium,
	Message:     "plan step1 has 12 tasks not understood (threshold: 10)",
	TriggeredAt: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
}

func TestAlertsCmd_NilEngine(t *testing.T) {
	withAlertEngine(t, nil)

	_, err := runCmd(t, alertsCmd)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}
}

func TestAlertsCmd_NoAlerts(t *testing.T) {
	withAlertEngine(t, staticAlerts())

	out, err := runCmd(t, alertsCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No active alerts.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestAlertsCmd_WithAlerts(t *testing.T) {
	withAlertEngine(t, staticAlerts(backlogAlert))

	out, err := runCmd(t, alertsCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "1 active alert(s)") || !strings.Contains(out, "[MEDIUM]") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "2026-10-15 09:00 UTC") {
		t.Errorf("missing trigger time:\n%s", out)
	}
}

func TestAlertsCmd_EvaluateError(t *testing.T) {
	withAlertEngine(t, &alertsMock{evaluateFn: func() ([]observability.Alert, error) {
		return nil, fmt.Errorf("event log unreadable")
	}})

	_, err := runCmd(t, alertsCmd)
	if err == nil || !strings.Contains(err.Error(), "evaluating alerts") {
		t.Errorf("expected wrapped evaluate error, got %v", err)
	}
}

func TestAlertsCmd_Notify(t *testing.T) {
	withAlertEngine(t, staticAlerts(backlogAlert))
	t.Cleanup(func() { alertsNotify = false })
	alertsNotify = true

	var sent []observability.Alert
	withNotifier(t, &notifierMock{notifyFn: func(_ context.Context, alerts []observability.Alert) error {
		sent = alerts
		return nil
	}})

	out, err := runCmd(t, alertsCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sent) != 1 || sent[0].ID != "a1" {
		t.Errorf("notifier received %+v", sent)
	}
	if !strings.Contains(out, "Notification sent.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestAlertsCmd_NotifyWithoutNotifier(t *testing.T) {
	withAlertEngine(t, staticAlerts(backlogAlert))
	withNotifier(t, nil)
	t.Cleanup(func() { alertsNotify = false })
	alertsNotify = true

	_, err := runCmd(t, alertsCmd)
	if err == nil || !strings.Contains(err.Error(), "notifier not configured") {
		t.Errorf("expected notifier error, got %v", err)
	}
}

func TestAlertsCmd_NotifyFailure(t *testing.T) {
	withAlertEngine(t, staticAlerts(backlogAlert))
	t.Cleanup(func() { alertsNotify = false })
	alertsNotify = true
	withNotifier(t, &notifierMock{notifyFn: func(context.Context, []observability.Alert) error {
		return fmt.Errorf("webhook returned 500")
	}})

	_, err := runCmd(t, alertsCmd)
	if err == nil || !strings.Contains(err.Error(), "webhook returned 500") {
		t.Errorf("expected notify error, got %v", err)
	}
}
