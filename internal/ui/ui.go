// Package ui implements a terminal monitor for a running scout job using
// bubbletea's Elm architecture.
//
// The [Model] follows a scout job from submission to its terminal status: a
// spinner and per-genre progress while the worker runs, a scrolling tail of
// the job's log stream, and a final summary once the job finishes. The log
// stream is consumed through the engine's event channel, one message per
// Update cycle, so the UI never blocks the worker.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/scoutfm/scoutfm/internal/tasks"
)

// logTail is the number of log lines kept on screen.
const logTail = 12

// ViewState represents the current view in the monitor.
type ViewState int

const (
	RunningView ViewState = iota
	ResultView
)

type eventMsg tasks.Event

type streamClosedMsg struct{}

// Model represents the scout monitor state.
type Model struct {
	ctx    context.Context
	view   ViewState
	engine *tasks.ScoutEngine
	job    *tasks.Job
	events <-chan tasks.Event

	spin   spinner.Model
	logs   []string
	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a monitor for the identified job. The job must already be
// submitted to the engine.
func NewModel(ctx context.Context, engine *tasks.ScoutEngine, jobID string) (*Model, error) {
	job, err := engine.Job(jobID)
	if err != nil {
		return nil, err
	}
	events, err := engine.Events(ctx, jobID)
	if err != nil {
		return nil, err
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.title

	return &Model{
		ctx:    ctx,
		view:   RunningView,
		engine: engine,
		job:    job,
		events: events,
		spin:   spin,
		help:   help.New(),
		keys:   newKeyMap(),
	}, nil
}

// Init starts the spinner and the event pump.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			if m.view == RunningView {
				if err := m.engine.Cancel(m.job.ID); err != nil {
					m.err = err
				}
			}
			return m, nil
		}

	case eventMsg:
		switch msg.Type {
		case "log":
			m.logs = append(m.logs, msg.Msg)
			if len(m.logs) > logTail {
				m.logs = m.logs[len(m.logs)-logTail:]
			}
		case "done":
			m.status = msg.Status
			m.view = ResultView
		}
		return m, m.waitForEvent()

	case streamClosedMsg:
		if m.view != ResultView {
			m.status = m.job.Status().String()
			m.view = ResultView
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunningView:
		return m.renderRunning()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(event)
	}
}

func (m *Model) renderRunning() string {
	title := styles.title.Render("Scouting Playlists")
	done, total := m.job.Progress()
	header := fmt.Sprintf("%s genre %d/%d • %d playlists collected", m.spin.View(), done, total, len(m.job.Results()))

	var body strings.Builder
	for _, line := range m.logs {
		body.WriteString("  ")
		body.WriteString(line)
		body.WriteString("\n")
	}

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(fmt.Sprintf("Error: %v\n", m.err))
	}

	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s\n\n%s%s\n%s", title, header, body.String(), errLine, helpView)
}

func (m *Model) renderResult() string {
	var title string
	switch m.status {
	case "done":
		title = styles.ok.Render("✓ Scout Complete")
	case "cancelled":
		title = styles.warn.Render("Scout Cancelled")
	default:
		title = styles.err.Render("Scout Failed")
	}

	results := m.job.Results()
	var contacts int
	for _, r := range results {
		contacts += len(r.Contacts)
	}

	info := fmt.Sprintf(
		"\nJob: %s\nPlaylists: %d\nContact records: %d\n",
		m.job.ID, len(results), contacts,
	)
	hint := styles.help.Render(fmt.Sprintf("export with: scoutfm jobs export %s", m.job.ID))

	quitHelp := m.help.ShortHelpView(m.keys.FullHelp()[0][1:])
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, info, hint, quitHelp)
}
