// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the study session as MCP tools, so an assistant can record task outcomes
// and drive replanning on the learner's behalf.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/study-brain/internal/core"
	"github.com/valter-silva-au/study-brain/internal/observability"
	"github.com/valter-silva-au/study-brain/pkg/models"
)

// Server wraps the study session and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	session     core.StudySession
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine

	// mu serialises session calls; the session itself is single-threaded.
	mu sync.Mutex
}

// NewServer creates a new MCP server over the given session.
// metricsCalc and alertEngine may be nil if observability is disabled.
func NewServer(session core.StudySession, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		session:     session,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "sb", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

// taskInput names a task either by id or by its attributes.
type taskInput struct {
	TaskID     string `json:"task_id,omitempty" jsonschema:"the task id as returned by list_week_tasks (e.g. 1-monday-anatomy-read-chapt)"`
	WeekNumber int    `json:"week_number,omitempty" jsonschema:"week number of the task, used when task_id is empty"`
	DayOfWeek  string `json:"day_of_week,omitempty" jsonschema:"day of week of the task (e.g. Monday), used when task_id is empty"`
	Subject    string `json:"subject,omitempty" jsonschema:"subject of the task, used when task_id is empty"`
	Activity   string `json:"activity,omitempty" jsonschema:"activity of the task, used when task_id is empty"`
}

func (in taskInput) ref() models.TaskRef {
	return models.TaskRef{
		WeekNumber: in.WeekNumber,
		DayOfWeek:  in.DayOfWeek,
		Subject:    in.Subject,
		Activity:   in.Activity,
	}
}

func (in taskInput) resolve() (string, error) {
	if in.TaskID != "" {
		return in.TaskID, nil
	}
	if in.WeekNumber < 1 || in.DayOfWeek == "" || in.Subject == "" {
		return "", errors.New("task_id or week_number, day_of_week and subject are required")
	}
	return core.ResolveTaskID(in.WeekNumber, in.DayOfWeek, in.Subject, in.Activity), nil
}

type taskStatusOutput struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Tracked bool   `json:"tracked"`
}

type recordTaskStatusInput struct {
	TaskID     string `json:"task_id,omitempty" jsonschema:"the task id as returned by list_week_tasks"`
	WeekNumber int    `json:"week_number,omitempty" jsonschema:"week number of the task, used when task_id is empty"`
	DayOfWeek  string `json:"day_of_week,omitempty" jsonschema:"day of week of the task, used when task_id is empty"`
	Subject    string `json:"subject,omitempty" jsonschema:"subject of the task, used when task_id is empty"`
	Activity   string `json:"activity,omitempty" jsonschema:"activity of the task, used when task_id is empty"`
	Status     string `json:"status" jsonschema:"the new status (incomplete, completed, not-understood, skipped)"`
}

func (in recordTaskStatusInput) task() taskInput {
	return taskInput{
		TaskID:     in.TaskID,
		WeekNumber: in.WeekNumber,
		DayOfWeek:  in.DayOfWeek,
		Subject:    in.Subject,
		Activity:   in.Activity,
	}
}

type recordTaskStatusOutput struct {
	Message         string `json:"message"`
	NeedsReplanning bool   `json:"needs_replanning"`
}

type weekInput struct {
	WeekNumber int `json:"week_number" jsonschema:"the schedule week number"`
}

type weekTaskOutput struct {
	ID       string `json:"id"`
	Day      string `json:"day_of_week"`
	Subject  string `json:"subject"`
	Activity string `json:"activity"`
	Duration int    `json:"duration"`
	IsReview bool   `json:"is_review"`
	Status   string `json:"status"`
}

type listWeekTasksOutput struct {
	WeekNumber int              `json:"week_number"`
	Theme      string           `json:"theme"`
	Tasks      []weekTaskOutput `json:"tasks"`
	Count      int              `json:"count"`
}

type initializeWeekOutput struct {
	Message string `json:"message"`
	Seeded  int    `json:"seeded"`
}

type replanInput struct {
	DryRun bool `json:"dry_run,omitempty" jsonschema:"compute the redistribution without applying it"`
}

type replanOutput struct {
	DryRun          bool             `json:"dry_run"`
	Placements      []core.Placement `json:"placements"`
	SynthesizedWeek int              `json:"synthesized_week,omitempty"`
}

type getProgressInput struct{}

type progressOutput struct {
	PlanID              string         `json:"plan_id"`
	Percent             int            `json:"percent"`
	CompletedTasks      int            `json:"completed_tasks"`
	TotalTasks          int            `json:"total_tasks"`
	CompletedDays       int            `json:"completed_days"`
	TotalDays           int            `json:"total_days"`
	EstimatedCompletion string         `json:"estimated_completion,omitempty"`
	StatusCounts        map[string]int `json:"status_counts"`
	NeedsReplanning     bool           `json:"needs_replanning"`
}

type syncStoreInput struct{}

type syncStoreOutput struct {
	Message string `json:"message"`
}

type getMetricsInput struct {
	Since  string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
	PlanID string `json:"plan_id,omitempty" jsonschema:"restrict metrics to one plan"`
}

type metricsOutput struct {
	EventCount         int            `json:"event_count"`
	StatusChanges      int            `json:"status_changes"`
	StatusesRecorded   map[string]int `json:"statuses_recorded"`
	WeeksInitialized   int            `json:"weeks_initialized"`
	Replans            int            `json:"replans"`
	TasksRedistributed int            `json:"tasks_redistributed"`
	Syncs              int            `json:"syncs"`
	SyncFailures       int            `json:"sync_failures"`
	OldestEvent        string         `json:"oldest_event,omitempty"`
	NewestEvent        string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task_status",
		Description: "Get the status of a study task by id or by week, day, subject and activity. Untracked tasks report incomplete.",
	}, s.handleGetTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "record_task_status",
		Description: "Record how a study task went. Valid statuses: incomplete, completed, not-understood, skipped.",
	}, s.handleRecordTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_week_tasks",
		Description: "List the tasks of a schedule week with their ids and current status.",
	}, s.handleListWeekTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "initialize_week",
		Description: "Start tracking every task of a week as incomplete. Tasks already tracked keep their status.",
	}, s.handleInitializeWeek)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "replan",
		Description: "Redistribute incomplete, skipped and not-understood tasks into later weeks as review tasks.",
	}, s.handleReplan)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_progress",
		Description: "Get completion progress of the active plan: tasks, study days and the estimated completion date.",
	}, s.handleGetProgress)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "sync_store",
		Description: "Push the performance record of the active plan to the remote store.",
	}, s.handleSyncStore)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get study activity metrics from the event log: status changes, replans and sync outcomes.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (not-understood backlog, stale plans, failing syncs).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleGetTaskStatus(_ context.Context, _ *gomcp.CallToolRequest, input taskInput) (*gomcp.CallToolResult, taskStatusOutput, error) {
	id, err := input.resolve()
	if err != nil {
		return errorResult(err.Error()), taskStatusOutput{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := taskStatusOutput{TaskID: id, Status: string(models.StatusIncomplete)}
	if rec, ok := s.session.Store().Tasks[id]; ok {
		out.Status = string(rec.Status)
		out.Tracked = true
	}
	return nil, out, nil
}

func (s *Server) handleRecordTaskStatus(ctx context.Context, _ *gomcp.CallToolRequest, input recordTaskStatusInput) (*gomcp.CallToolResult, recordTaskStatusOutput, error) {
	status, err := models.ParseTaskStatus(input.Status)
	if err != nil {
		return errorResult(err.Error()), recordTaskStatusOutput{}, nil
	}
	task := input.task()
	id, err := task.resolve()
	if err != nil {
		return errorResult(err.Error()), recordTaskStatusOutput{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if input.TaskID != "" {
		err = s.session.RecordStatus(ctx, id, status)
	} else {
		err = s.session.RecordTaskStatus(ctx, task.ref(), status)
	}
	// A persistence failure still leaves the status recorded in memory.
	if err != nil && !errors.Is(err, core.ErrPersist) {
		return errorResult(fmt.Sprintf("recording status for %s: %s", id, err)), recordTaskStatusOutput{}, nil
	}

	out := recordTaskStatusOutput{
		Message:         fmt.Sprintf("task %s marked %s", id, status),
		NeedsReplanning: s.session.NeedsReplanning(),
	}
	if err != nil {
		out.Message += fmt.Sprintf(" (warning: %s)", err)
	}
	return nil, out, nil
}

func (s *Server) handleListWeekTasks(_ context.Context, _ *gomcp.CallToolRequest, input weekInput) (*gomcp.CallToolResult, listWeekTasksOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	week := s.session.Schedule().Week(input.WeekNumber)
	if week == nil {
		return errorResult(fmt.Sprintf("week %d is not in the schedule", input.WeekNumber)), listWeekTasksOutput{}, nil
	}

	tasks := s.session.Tasks(input.WeekNumber)
	out := listWeekTasksOutput{
		WeekNumber: input.WeekNumber,
		Theme:      week.Theme,
		Tasks:      make([]weekTaskOutput, len(tasks)),
		Count:      len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = weekTaskOutput{
			ID:       t.ID,
			Day:      t.Ref.DayOfWeek,
			Subject:  t.Task.Subject,
			Activity: t.Task.Activity,
			Duration: t.Task.Duration,
			IsReview: t.Task.IsReview,
			Status:   string(t.Status),
		}
	}
	return nil, out, nil
}

func (s *Server) handleInitializeWeek(ctx context.Context, _ *gomcp.CallToolRequest, input weekInput) (*gomcp.CallToolResult, initializeWeekOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.session.Store().Len()
	err := s.session.InitializeWeekTracking(ctx, input.WeekNumber)
	if err != nil && !errors.Is(err, core.ErrPersist) {
		return errorResult(err.Error()), initializeWeekOutput{}, nil
	}

	seeded := s.session.Store().Len() - before
	out := initializeWeekOutput{
		Message: fmt.Sprintf("week %d: tracking %d new task(s)", input.WeekNumber, seeded),
		Seeded:  seeded,
	}
	if err != nil {
		out.Message += fmt.Sprintf(" (warning: %s)", err)
	}
	return nil, out, nil
}

func (s *Server) handleReplan(ctx context.Context, _ *gomcp.CallToolRequest, input replanInput) (*gomcp.CallToolResult, replanOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result core.ReplanResult
	if input.DryRun {
		result = s.session.PreviewReplanning()
	} else {
		var err error
		result, err = s.session.ApplyReplanning(ctx)
		if err != nil && !errors.Is(err, core.ErrPersist) {
			return errorResult(fmt.Sprintf("replanning: %s", err)), replanOutput{}, nil
		}
	}

	out := replanOutput{
		DryRun:          input.DryRun,
		Placements:      result.Placements,
		SynthesizedWeek: result.SynthesizedWeek,
	}
	if out.Placements == nil {
		out.Placements = []core.Placement{}
	}
	return nil, out, nil
}

func (s *Server) handleGetProgress(_ context.Context, _ *gomcp.CallToolRequest, _ getProgressInput) (*gomcp.CallToolResult, progressOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.session.ComputeProgress()
	out := progressOutput{
		PlanID:          s.session.PlanID(),
		Percent:         p.Percent,
		CompletedTasks:  p.CompletedTasks,
		TotalTasks:      p.TotalTasks,
		CompletedDays:   p.CompletedDays,
		TotalDays:       p.TotalDays,
		StatusCounts:    make(map[string]int, len(p.StatusCounts)),
		NeedsReplanning: s.session.NeedsReplanning(),
	}
	if p.EstimatedCompletion != nil {
		out.EstimatedCompletion = p.EstimatedCompletion.Format("2006-01-02")
	}
	for status, n := range p.StatusCounts {
		out.StatusCounts[string(status)] = n
	}
	return nil, out, nil
}

func (s *Server) handleSyncStore(ctx context.Context, _ *gomcp.CallToolRequest, _ syncStoreInput) (*gomcp.CallToolResult, syncStoreOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.SyncStore(ctx, ""); err != nil {
		return errorResult(err.Error()), syncStoreOutput{}, nil
	}
	return nil, syncStoreOutput{
		Message: fmt.Sprintf("plan %s synced (%d record(s))", s.session.PlanID(), s.session.Store().Len()),
	}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime, input.PlanID)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		EventCount:         metrics.EventCount,
		StatusChanges:      metrics.StatusChanges,
		StatusesRecorded:   metrics.StatusesRecorded,
		WeeksInitialized:   metrics.WeeksInitialized,
		Replans:            metrics.Replans,
		TasksRedistributed: metrics.TasksRedistributed,
		Syncs:              metrics.Syncs,
		SyncFailures:       metrics.SyncFailures,
	}
	if out.StatusesRecorded == nil {
		out.StatusesRecorded = make(map[string]int)
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{StatusesRecorded: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
