// Package tui provides the terminal user interface for Loom runs.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/loom/internal/orchestrator"
	"github.com/ShayCichocki/loom/pkg/models"
)

// EventMsg wraps an orchestrator event for the TUI.
type EventMsg struct {
	Event orchestrator.Event
}

// DoneMsg signals that the run has completed.
type DoneMsg struct {
	Outcome *orchestrator.Outcome
	Err     error
}

// taskRow is one task line in the progress panel.
type taskRow struct {
	ID       string
	Prompt   string
	Status   models.TaskStatus
	Duration time.Duration
	ErrKind  models.ErrorKind
}

// LogEntry is one line in the activity log.
type LogEntry struct {
	Timestamp time.Time
	Message   string
}

// App is the main bubbletea model for a Loom run.
type App struct {
	request string
	spin    spinner.Model

	phase   orchestrator.Phase
	intent  *models.Intent
	tasks   []taskRow
	order   map[string]int
	logs    []LogEntry
	outcome *orchestrator.Outcome
	runErr  error

	width    int
	done     bool
	quitting bool

	titleStyle   lipgloss.Style
	phaseStyle   lipgloss.Style
	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	dimStyle     lipgloss.Style
}

// NewApp creates an App for the given request.
func NewApp(request string) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &App{
		request: request,
		spin:    sp,
		order:   make(map[string]int),
		width:   80,

		titleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true),
		phaseStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")).
			Bold(true),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.spin.Tick
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case EventMsg:
		a.handleEvent(msg.Event)

	case DoneMsg:
		a.done = true
		a.outcome = msg.Outcome
		a.runErr = msg.Err
	}

	return a, nil
}

// handleEvent folds one orchestrator event into the model.
func (a *App) handleEvent(e orchestrator.Event) {
	switch e.Type {
	case orchestrator.EventPhase:
		a.phase = e.Phase
		if e.Message != "" {
			a.log(e.Message)
		}

	case orchestrator.EventClassified:
		a.intent = e.Intent
		if e.Intent != nil {
			note := ""
			if e.Err != nil {
				note = " [defaulted]"
			}
			a.log(fmt.Sprintf("classified as %s/%s (%.0f%%)%s",
				e.Intent.Mode, e.Intent.TaskType, e.Intent.Confidence*100, note))
		}

	case orchestrator.EventDecomposed:
		a.log(fmt.Sprintf("decomposed into %d tasks", e.TaskCount))

	case orchestrator.EventTaskStarted:
		a.upsertTask(taskRow{ID: e.TaskID, Prompt: e.Prompt, Status: models.TaskStatusRunning})

	case orchestrator.EventTaskCompleted:
		a.upsertTask(taskRow{ID: e.TaskID, Status: models.TaskStatusSucceeded, Duration: e.Duration})

	case orchestrator.EventTaskFailed:
		row := taskRow{ID: e.TaskID, Status: models.TaskStatusFailed, Duration: e.Duration}
		if e.Err != nil {
			row.ErrKind = e.Err.Kind
		}
		a.upsertTask(row)

	case orchestrator.EventLevelDone:
		a.log("level complete")
	}
}

// upsertTask adds or updates a task row, preserving first-seen order and
// any fields the update leaves zero.
func (a *App) upsertTask(row taskRow) {
	if i, ok := a.order[row.ID]; ok {
		existing := &a.tasks[i]
		existing.Status = row.Status
		if row.Prompt != "" {
			existing.Prompt = row.Prompt
		}
		if row.Duration > 0 {
			existing.Duration = row.Duration
		}
		if row.ErrKind != "" {
			existing.ErrKind = row.ErrKind
		}
		return
	}
	a.order[row.ID] = len(a.tasks)
	a.tasks = append(a.tasks, row)
}

func (a *App) log(message string) {
	a.logs = append(a.logs, LogEntry{Timestamp: time.Now(), Message: message})
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(a.titleStyle.Render("loom"))
	b.WriteString(" ")
	b.WriteString(a.dimStyle.Render(truncate(a.request, a.width-8)))
	b.WriteString("\n\n")

	b.WriteString(a.viewPhase())
	b.WriteString("\n")

	if len(a.tasks) > 0 {
		b.WriteString("\n")
		b.WriteString(a.viewTasks())
	}
	if len(a.logs) > 0 {
		b.WriteString("\n")
		b.WriteString(a.viewLogs())
	}

	b.WriteString("\n")
	b.WriteString(a.viewFooter())
	b.WriteString("\n")
	return b.String()
}

func (a *App) viewPhase() string {
	if a.done {
		if a.runErr != nil {
			return a.errorStyle.Render("✗ " + a.runErr.Error())
		}
		return a.successStyle.Render("✓ " + a.summary())
	}
	label := string(a.phase)
	if label == "" {
		label = "starting"
	}
	return fmt.Sprintf("%s %s", a.spin.View(), a.phaseStyle.Render(label))
}

func (a *App) viewTasks() string {
	var b strings.Builder
	for _, row := range a.tasks {
		glyph := a.statusGlyph(row)
		line := fmt.Sprintf("  %s %s %s", glyph, row.ID, truncate(row.Prompt, a.width-24))
		if row.Duration > 0 {
			line += a.dimStyle.Render(fmt.Sprintf(" (%s)", row.Duration.Round(time.Millisecond)))
		}
		if row.ErrKind != "" {
			line += a.errorStyle.Render(fmt.Sprintf(" %s", row.ErrKind))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) statusGlyph(row taskRow) string {
	switch row.Status {
	case models.TaskStatusSucceeded:
		return a.successStyle.Render("✓")
	case models.TaskStatusFailed:
		return a.errorStyle.Render("✗")
	case models.TaskStatusRunning:
		return a.spin.View()
	default:
		return a.dimStyle.Render("·")
	}
}

func (a *App) viewLogs() string {
	// Show the most recent entries only.
	start := 0
	if len(a.logs) > 8 {
		start = len(a.logs) - 8
	}
	var b strings.Builder
	for _, entry := range a.logs[start:] {
		ts := entry.Timestamp.Format("15:04:05")
		b.WriteString(a.dimStyle.Render(fmt.Sprintf("  %s %s", ts, entry.Message)))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) viewFooter() string {
	if a.done {
		return a.dimStyle.Render("press q to exit")
	}
	return a.dimStyle.Render("q to cancel")
}

// summary describes the finished run in one line.
func (a *App) summary() string {
	o := a.outcome
	switch {
	case o == nil:
		return "done"
	case o.Batch != nil:
		if o.Batch.Failed > 0 {
			return fmt.Sprintf("%d/%d tasks succeeded in %s",
				o.Batch.Succeeded, o.Batch.Total, o.Batch.Duration.Round(time.Millisecond))
		}
		return fmt.Sprintf("%d tasks succeeded in %s",
			o.Batch.Total, o.Batch.Duration.Round(time.Millisecond))
	case o.Single != nil:
		if !o.Single.Success {
			return "failed"
		}
		return fmt.Sprintf("done in %s", o.Single.Duration.Round(time.Millisecond))
	default:
		return "done"
	}
}

// Output returns the text to print after the program exits: the single
// result's output, or each batch result labeled by task.
func (a *App) Output() string {
	o := a.outcome
	if o == nil {
		return ""
	}
	if o.Single != nil {
		return o.Single.Output
	}
	if o.Batch == nil {
		return ""
	}
	var b strings.Builder
	for _, task := range o.Tasks {
		r := o.Batch.ResultFor(task.ID)
		if r == nil {
			continue
		}
		fmt.Fprintf(&b, "── %s ──\n", task.ID)
		if r.Success {
			b.WriteString(r.Output)
		} else if r.Error != nil {
			fmt.Fprintf(&b, "error: %s", r.Error.Message)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
