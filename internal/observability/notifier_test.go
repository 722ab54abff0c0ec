package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSlackNotifier_NoAlerts(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	if err := n.Notify(context.Background(), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := n.Notify(context.Background(), []Alert{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no HTTP request for empty alerts")
	}
}

func TestSlackNotifier_SendsAlerts(t *testing.T) {
	var receivedBody []byte
	var receivedContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		var err error
		receivedBody, err = io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	triggered := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	alerts := []Alert{
		{
			ID:          "sync-step1",
			Condition:   ConditionSyncFailing,
			Severity:    SeverityHigh,
			Message:     "plan step1 failed to sync 3 times in a row",
			TriggeredAt: triggered,
		},
		{
			ID:          "stale-step2",
			Condition:   ConditionPlanStale,
			Severity:    SeverityLow,
			Message:     "plan step2 has had no study activity for more than 3 days",
			TriggeredAt: triggered,
		},
	}

	if err := NewSlackNotifier(srv.URL).Notify(context.Background(), alerts); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}

	var msg slackMessage
	if err := json.Unmarshal(receivedBody, &msg); err != nil {
		t.Fatalf("unmarshaling request body: %v", err)
	}

	// header + section + divider + section
	if len(msg.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != "header" || msg.Blocks[0].Text == nil || msg.Blocks[0].Text.Text != "Study plan alerts (2)" {
		t.Errorf("unexpected header block: %+v", msg.Blocks[0])
	}
	if msg.Blocks[2].Type != "divider" {
		t.Errorf("expected third block type divider, got %s", msg.Blocks[2].Type)
	}

	body := string(receivedBody)
	for _, want := range []string{"plan step1", "plan step2", "2026-03-02 09:15 UTC", "[HIGH]"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL).Notify(context.Background(), []Alert{{
		ID:          "test-alert",
		Condition:   ConditionNotUnderstood,
		Severity:    SeverityMedium,
		Message:     "test alert",
		TriggeredAt: time.Now().UTC(),
	}})
	if err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected error to contain status code 500, got: %s", err.Error())
	}
}

func TestSlackNotifier_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewSlackNotifier(srv.URL).Notify(ctx, []Alert{{ID: "x", Severity: SeverityLow, Message: "m"}})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestSeverityEmoji(t *testing.T) {
	tests := []struct {
		severity AlertSeverity
		emoji    string
	}{
		{SeverityHigh, "\U0001f534"},
		{SeverityMedium, "\U0001f7e1"},
		{SeverityLow, "\U0001f535"},
		{AlertSeverity("other"), "❓"},
	}
	for _, tt := range tests {
		if got := severityEmoji(tt.severity); got != tt.emoji {
			t.Errorf("severityEmoji(%s) = %q, want %q", tt.severity, got, tt.emoji)
		}
	}
}
