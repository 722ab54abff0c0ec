package cli

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valter-silva-au/study-brain/internal/core"
	"github.com/valter-silva-au/study-brain/internal/observability"
	"github.com/valter-silva-au/study-brain/pkg/models"
)

func runeKey(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func isQuit(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestDashboardModel_Init(t *testing.T) {
	m := newDashboardModel()

	if m.activePanel != panelProgress {
		t.Errorf("expected activePanel = %d, got %d", panelProgress, m.activePanel)
	}
	if !m.loading {
		t.Error("expected loading = true on init")
	}
	if m.Init() == nil {
		t.Error("expected Init to return a non-nil command")
	}
}

func TestDashboardModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{runeKey("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		_, cmd := newDashboardModel().Update(key)
		if !isQuit(t, cmd) {
			t.Errorf("key %q should quit", key.String())
		}
	}
}

func TestDashboardModel_TabCycles(t *testing.T) {
	var model tea.Model = newDashboardModel()
	for i := 0; i < panelCount; i++ {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	if got := model.(dashboardModel).activePanel; got != panelProgress {
		t.Errorf("tab should wrap around, got panel %d", got)
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := model.(dashboardModel).activePanel; got != panelAlerts {
		t.Errorf("shift+tab from first panel should select the last, got %d", got)
	}
}

func TestDashboardModel_RefreshKey(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	updated, cmd := m.Update(runeKey("r"))
	if !updated.(dashboardModel).loading {
		t.Error("r should set loading")
	}
	if cmd == nil {
		t.Error("r should trigger a reload")
	}
}

func TestDashboardModel_ReplanKeyWithoutFlags(t *testing.T) {
	m := newDashboardModel()

	updated, cmd := m.Update(runeKey("p"))
	if cmd != nil {
		t.Error("p should do nothing when no replanning is needed")
	}
	if got := updated.(dashboardModel).notice; got != "Nothing to replan." {
		t.Errorf("notice = %q", got)
	}
}

func TestDashboardModel_ReplanKeyRunsReplan(t *testing.T) {
	s := withSession(t)
	flagPharmacology(t, s)

	m := newDashboardModel()
	m.needsReplan = true
	_, cmd := m.Update(runeKey("p"))
	if cmd == nil {
		t.Fatal("expected replan command")
	}
	msg, ok := cmd().(replanDoneMsg)
	if !ok {
		t.Fatalf("expected replanDoneMsg, got %T", cmd())
	}
	if msg.err != nil || msg.moved != 1 {
		t.Errorf("unexpected replan outcome: %+v", msg)
	}

	updated, _ := m.Update(msg)
	if got := updated.(dashboardModel).notice; got != "Redistributed 1 task(s)." {
		t.Errorf("notice = %q", got)
	}
}

func TestDashboardModel_ReplanKeyIgnoredWhileReplanning(t *testing.T) {
	m := newDashboardModel()
	m.needsReplan = true

	updated, cmd := m.Update(runeKey("p"))
	if cmd == nil {
		t.Fatal("expected replan command")
	}
	if !updated.(dashboardModel).replanning {
		t.Fatal("model should be marked as replanning")
	}
	if _, again := updated.Update(runeKey("p")); again != nil {
		t.Error("second p should be ignored until the replan finishes")
	}

	done, _ := updated.Update(replanDoneMsg{moved: 0})
	if done.(dashboardModel).replanning {
		t.Error("replanDoneMsg should clear the replanning state")
	}
}

func TestDashboard_ConcurrentCommands(t *testing.T) {
	s := withSession(t)
	flagPharmacology(t, s)

	cmds := []tea.Cmd{runReplan, runReplan, loadData, loadData}
	msgs := make([]tea.Msg, len(cmds))
	var wg sync.WaitGroup
	for i, cmd := range cmds {
		wg.Add(1)
		go func(i int, cmd tea.Cmd) {
			defer wg.Done()
			msgs[i] = cmd()
		}(i, cmd)
	}
	wg.Wait()

	moved := 0
	for _, msg := range msgs[:2] {
		done := msg.(replanDoneMsg)
		if done.err != nil {
			t.Fatalf("replan failed: %v", done.err)
		}
		moved += done.moved
	}
	if moved != 1 {
		t.Errorf("flagged task redistributed %d times, want exactly 1", moved)
	}
	if s.NeedsReplanning() {
		t.Error("replanning signal should be cleared")
	}
}

func TestDashboardModel_ReplanFailedNotice(t *testing.T) {
	updated, _ := newDashboardModel().Update(replanDoneMsg{err: errors.New("disk full")})
	if got := updated.(dashboardModel).notice; !strings.Contains(got, "disk full") {
		t.Errorf("notice = %q", got)
	}
}

func TestDashboardModel_SessionChangeReloads(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	updated, cmd := m.Update(sessionChangedMsg{event: core.ChangeEvent{Kind: core.ChangeStatusRecorded}})
	if !updated.(dashboardModel).loading || cmd == nil {
		t.Error("a session change should trigger a reload")
	}
}

func TestDashboardModel_DataLoaded(t *testing.T) {
	p := models.ProgressSummary{Percent: 50, CompletedTasks: 1, TotalTasks: 2}
	msg := dataLoadedMsg{
		planID:      "step1",
		progress:    &p,
		flagged:     []models.TaskRecord{{TaskID: cliPharmaID, Subject: "Pharmacology", WeekNumber: 1, Status: models.StatusNotUnderstood}},
		needsReplan: true,
		replans:     2,
		alerts:      []alertSnapshot{{severity: "high", message: "sync failing"}},
	}

	updated, _ := newDashboardModel().Update(msg)
	m := updated.(dashboardModel)
	if m.loading || m.err != nil {
		t.Fatalf("unexpected state: loading=%v err=%v", m.loading, m.err)
	}
	if m.planID != "step1" || !m.needsReplan || m.replansLast7d != 2 || len(m.flagged) != 1 || len(m.alerts) != 1 {
		t.Errorf("data not applied: %+v", m)
	}
}

func TestDashboardModel_DataLoadedError(t *testing.T) {
	updated, _ := newDashboardModel().Update(dataLoadedMsg{err: errors.New("boom")})
	m := updated.(dashboardModel)
	if m.err == nil || m.loading {
		t.Error("expected error state")
	}

	m.width = 80
	if !strings.Contains(m.View(), "Error: boom") {
		t.Errorf("view should show the error:\n%s", m.View())
	}
}

func TestDashboardModel_View(t *testing.T) {
	if got := newDashboardModel().View(); got != "Loading..." {
		t.Errorf("view before window size = %q", got)
	}

	p := models.ProgressSummary{
		Percent:        50,
		CompletedTasks: 1,
		TotalTasks:     2,
		StatusCounts:   map[models.TaskStatus]int{models.StatusCompleted: 1, models.StatusNotUnderstood: 1},
		Weeks:          []models.WeekProgress{{WeekNumber: 1, CompletedTasks: 1, TotalTasks: 2}},
	}
	updated, _ := newDashboardModel().Update(dataLoadedMsg{
		planID:      "step1",
		progress:    &p,
		flagged:     []models.TaskRecord{{Subject: "Pharmacology", Activity: "Review beta blockers", WeekNumber: 1, Status: models.StatusNotUnderstood}},
		needsReplan: true,
	})
	for _, width := range []int{80, 160} {
		sized, _ := updated.Update(tea.WindowSizeMsg{Width: width, Height: 40})
		view := sized.View()
		for _, want := range []string{"Study Brain: step1", "50%", "Review beta blockers", "Press p to replan.", "No active alerts."} {
			if !strings.Contains(view, want) {
				t.Errorf("width %d: view missing %q", width, want)
			}
		}
	}
}

func TestLoadData(t *testing.T) {
	s := withSession(t)
	flagPharmacology(t, s)

	withMetricsCalc(t, &metricsMock{calculateFn: func(_ time.Time, planID string) (*observability.Metrics, error) {
		if planID != "step1" {
			t.Errorf("metrics queried for plan %q", planID)
		}
		return &observability.Metrics{Replans: 3}, nil
	}})
	withAlertEngine(t, staticAlerts(
		observability.Alert{Severity: observability.SeverityLow, Message: "low"},
		observability.Alert{Severity: observability.SeverityHigh, Message: "high"},
	))

	msg := loadData().(dataLoadedMsg)
	if msg.err != nil {
		t.Fatalf("unexpected error: %v", msg.err)
	}
	if msg.planID != "step1" || !msg.needsReplan || msg.replans != 3 {
		t.Errorf("unexpected message: %+v", msg)
	}
	if len(msg.flagged) != 1 || msg.flagged[0].TaskID != cliPharmaID {
		t.Errorf("flagged = %+v", msg.flagged)
	}
	if len(msg.alerts) != 2 || msg.alerts[0].severity != "high" {
		t.Errorf("alerts should be ordered by severity: %+v", msg.alerts)
	}
}

func TestLoadData_MetricsError(t *testing.T) {
	withSession(t)
	withMetricsCalc(t, &metricsMock{calculateFn: func(time.Time, string) (*observability.Metrics, error) {
		return nil, errors.New("unreadable")
	}})

	msg := loadData().(dataLoadedMsg)
	if msg.err == nil || !strings.Contains(msg.err.Error(), "loading metrics") {
		t.Errorf("expected metrics error, got %v", msg.err)
	}
}

func TestRunReplan_NoSession(t *testing.T) {
	withoutSession(t)

	msg := runReplan().(replanDoneMsg)
	if !errors.Is(msg.err, errSessionNotInitialized) {
		t.Errorf("expected errSessionNotInitialized, got %v", msg.err)
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(1, 2, 10); got != "█████░░░░░" {
		t.Errorf("progressBar(1,2,10) = %q", got)
	}
	if got := progressBar(0, 0, 4); got != "░░░░" {
		t.Errorf("progressBar(0,0,4) = %q", got)
	}
}

func TestSeverityRank(t *testing.T) {
	if !(severityRank("high") < severityRank("medium") && severityRank("medium") < severityRank("low") && severityRank("low") < severityRank("other")) {
		t.Error("severity ranks out of order")
	}
}
