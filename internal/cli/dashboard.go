package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/study-brain/internal/core"
	"github.com/valter-silva-au/study-brain/pkg/models"
)

// Dashboard panel indices.
const (
	panelProgress = iota
	panelFlagged
	panelAlerts
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	planID        string
	progress      *models.ProgressSummary
	flagged       []models.TaskRecord
	needsReplan   bool
	replansLast7d int
	alerts        []alertSnapshot

	// State.
	loading    bool
	replanning bool
	notice     string
	err        error
}

type alertSnapshot struct {
	severity string
	message  string
	time     string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	planID      string
	progress    *models.ProgressSummary
	flagged     []models.TaskRecord
	needsReplan bool
	replans     int
	alerts      []alertSnapshot
	err         error
}

// sessionChangedMsg is sent when the study session publishes a change.
type sessionChangedMsg struct {
	event core.ChangeEvent
}

// replanDoneMsg reports the outcome of a replan started from the dashboard.
type replanDoneMsg struct {
	moved int
	err   error
}

// sessionMu serialises the dashboard's session calls. Commands run on their
// own goroutines and the session is single-writer.
var sessionMu sync.Mutex

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	statusCompleted     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusNotUnderstood = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusSkipped       = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusIncomplete    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelProgress,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		case "p":
			if m.replanning {
				return m, nil
			}
			if !m.needsReplan {
				m.notice = "Nothing to replan."
				return m, nil
			}
			m.replanning = true
			m.notice = "Replanning..."
			return m, runReplan
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sessionChangedMsg:
		m.loading = true
		return m, loadData

	case replanDoneMsg:
		m.replanning = false
		if msg.err != nil {
			m.notice = fmt.Sprintf("Replan failed: %s", msg.err)
		} else {
			m.notice = fmt.Sprintf("Redistributed %d task(s).", msg.moved)
		}
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.planID = msg.planID
		m.progress = msg.progress
		m.flagged = msg.flagged
		m.needsReplan = msg.needsReplan
		m.replansLast7d = msg.replans
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Study Brain ")
	if m.planID != "" {
		title = titleStyle.Render(fmt.Sprintf(" Study Brain: %s ", m.planID))
	}
	help := helpStyle.Render("tab: switch panel | r: refresh | p: replan | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	progressPanel := m.renderProgressPanel()
	flaggedPanel := m.renderFlaggedPanel()
	alertsPanel := m.renderAlertsPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		progressPanel = m.applyPanelStyle(panelProgress, progressPanel, colWidth-4)
		flaggedPanel = m.applyPanelStyle(panelFlagged, flaggedPanel, colWidth-4)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, progressPanel, flaggedPanel, alertsPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		progressPanel = m.applyPanelStyle(panelProgress, progressPanel, panelWidth)
		flaggedPanel = m.applyPanelStyle(panelFlagged, flaggedPanel, panelWidth)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, progressPanel, flaggedPanel, alertsPanel)
	}

	footer := help
	if m.notice != "" {
		footer = m.notice + "\n" + help
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, footer)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderProgressPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Progress"))
	b.WriteString("\n")

	p := m.progress
	if p == nil || p.TotalTasks == 0 {
		b.WriteString("  No tasks scheduled.")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %-14s %d%%\n", "Complete", p.Percent))
	b.WriteString(fmt.Sprintf("  %-14s %d/%d\n", "Tasks", p.CompletedTasks, p.TotalTasks))
	b.WriteString(fmt.Sprintf("  %-14s %d/%d\n", "Days", p.CompletedDays, p.TotalDays))
	b.WriteString(fmt.Sprintf("  %-14s %s\n", "Finish by", p.EstimateLabel()))

	if len(p.StatusCounts) > 0 {
		b.WriteString("\n")
		for _, status := range models.AllStatuses {
			count := p.StatusCounts[status]
			if count == 0 {
				continue
			}
			label := fmt.Sprintf("  %-14s %d", status, count)
			b.WriteString(styleForStatus(status).Render(label))
			b.WriteString("\n")
		}
	}

	if len(p.Weeks) > 0 {
		b.WriteString("\n")
		for _, w := range p.Weeks {
			b.WriteString(fmt.Sprintf("  week %-3d %s %d/%d\n", w.WeekNumber, progressBar(w.CompletedTasks, w.TotalTasks, 10), w.CompletedTasks, w.TotalTasks))
		}
	}

	return b.String()
}

func (m dashboardModel) renderFlaggedPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Needs review"))
	b.WriteString("\n")

	if len(m.flagged) == 0 {
		b.WriteString("  Nothing flagged.")
		return b.String()
	}

	for _, rec := range m.flagged {
		label := fmt.Sprintf("  w%-2d %-10s %s", rec.WeekNumber, rec.Subject, rec.Activity)
		b.WriteString(styleForStatus(rec.Status).Render(label))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d task(s)", len(m.flagged)))
	if m.needsReplan {
		b.WriteString("\n  Press p to replan.")
	}
	if m.replansLast7d > 0 {
		b.WriteString(fmt.Sprintf("\n  Replans (7d): %d", m.replansLast7d))
	}

	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))

	return b.String()
}

func progressBar(done, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := done * width / total
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func styleForStatus(status models.TaskStatus) lipgloss.Style {
	switch status {
	case models.StatusCompleted:
		return statusCompleted
	case models.StatusNotUnderstood:
		return statusNotUnderstood
	case models.StatusSkipped:
		return statusSkipped
	case models.StatusIncomplete:
		return statusIncomplete
	default:
		return lipgloss.NewStyle()
	}
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	var result dataLoadedMsg

	if Session != nil {
		sessionMu.Lock()
		p := Session.ComputeProgress()
		result.planID = Session.PlanID()
		result.progress = &p
		result.flagged = core.NewPerformanceTracker(nil).FlaggedRecords(Session.Store())
		result.needsReplan = Session.NeedsReplanning()
		sessionMu.Unlock()
	}

	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since, result.planID)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.replans = metrics.Replans
	}

	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}
		result.alerts = make([]alertSnapshot, 0, len(alerts))

		// Sort alerts by severity: high first, then medium, then low.
		sort.SliceStable(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})

		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
				time:     a.TriggeredAt.Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	return result
}

func runReplan() tea.Msg {
	if Session == nil {
		return replanDoneMsg{err: errSessionNotInitialized}
	}
	sessionMu.Lock()
	defer sessionMu.Unlock()
	result, err := Session.ApplyReplanning(context.Background())
	return replanDoneMsg{moved: len(result.Placements), err: err}
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for study progress and alerts",
	Long: `Launch an interactive terminal dashboard showing plan progress, tasks that
need review, and alerts. The view refreshes whenever the study session changes.

Navigate between panels with Tab, refresh with r, replan with p, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Session == nil {
			return errSessionNotInitialized
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())

		unsubscribe := Session.Subscribe(func(ev core.ChangeEvent) {
			p.Send(sessionChangedMsg{event: ev})
		})
		defer unsubscribe()

		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
