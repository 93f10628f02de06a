package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/pepe/internal/engine"
	"github.com/studiowebux/pepe/internal/outcome"
	"github.com/studiowebux/pepe/internal/request"
	"github.com/studiowebux/pepe/internal/stats"
	"github.com/studiowebux/pepe/internal/version"
)

// pollInterval is the render tick: statistics are re-sampled at this rate
// while the run is active.
const pollInterval = 100 * time.Millisecond

// Message types
type tickMsg time.Time
type outcomeMsg outcome.Outcome
type runDoneMsg struct{}
type clearStatusMsg struct{}
type updateAvailableMsg string

// Model is the dashboard state for one or more runs against a single
// request template.
type Model struct {
	tpl  *request.Template
	opts engine.Options

	program *tea.Program

	eng     *engine.Engine
	agg     *stats.Aggregator
	aggDone chan struct{}

	ring *RecentLogRing

	running     bool
	interrupted bool
	report      *stats.Report
	startErr    error

	width    int
	height   int
	logView  viewport.Model
	logReady bool

	statusMsg     string
	updateVersion string
}

// NewModel creates the dashboard model for a template and run options.
func NewModel(tpl *request.Template, opts engine.Options) *Model {
	return &Model{
		tpl:  tpl,
		opts: opts,
		ring: NewRecentLogRing(RecentLogCapacity),
	}
}

// Start runs the dashboard until the user quits and returns the final
// report. A quit during an active run cancels it; the report then covers
// what completed.
func Start(tpl *request.Template, opts engine.Options) (stats.Report, error) {
	m := NewModel(tpl, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.program = p

	if _, err := p.Run(); err != nil {
		return stats.Report{}, fmt.Errorf("failed to run dashboard: %w", err)
	}
	if m.startErr != nil {
		return stats.Report{}, m.startErr
	}

	// Quit mid-run: cancel, drain, and freeze a partial report.
	if m.report == nil && m.agg != nil {
		m.eng.Stop()
		<-m.aggDone
		report := m.agg.Finalize(true)
		m.report = &report
	}
	if m.report == nil {
		return stats.Report{}, fmt.Errorf("no run was executed")
	}
	return *m.report, nil
}

// Init starts the first run, the render tick, and a background release
// check.
func (m *Model) Init() tea.Cmd {
	m.startRun()
	return tea.Batch(tick(), checkForUpdate)
}

// checkForUpdate is best-effort: failures stay silent.
func checkForUpdate() tea.Msg {
	available, latest, _, err := version.CheckForUpdate()
	if err != nil || !available {
		return nil
	}
	return updateAvailableMsg(latest)
}

// startRun builds a fresh engine and aggregator. Used on startup and on
// restart; previous run state is discarded.
func (m *Model) startRun() {
	eng, err := engine.New(context.Background(), m.tpl, m.opts)
	if err != nil {
		m.startErr = err
		return
	}

	m.eng = eng
	m.agg = stats.NewAggregator(m.opts.Total)
	m.aggDone = make(chan struct{})
	m.ring.Reset()
	m.report = nil
	m.running = true
	m.interrupted = false
	m.statusMsg = ""

	done := m.aggDone
	go func() {
		m.agg.Run(eng.Outcomes(), eng.Sent(), func(o outcome.Outcome) {
			m.program.Send(outcomeMsg(o))
		})
		close(done)
		m.program.Send(runDoneMsg{})
	}()

	eng.Run()
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sizeLogView()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if m.running {
			return m, tick()
		}
		return m, nil

	case outcomeMsg:
		m.ring.Push(outcome.Outcome(msg))
		m.refreshLogView()
		return m, nil

	case runDoneMsg:
		m.running = false
		report := m.agg.Finalize(m.eng.Cancelled())
		m.report = &report
		return m, nil

	case clearStatusMsg:
		m.statusMsg = ""
		return m, nil

	case updateAvailableMsg:
		m.updateVersion = string(msg)
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "enter", "ctrl+c":
		if m.running {
			m.eng.Stop()
		}
		return m, tea.Quit

	case "i":
		// Interrupt: stop dispatching but stay in the dashboard with the
		// partial results on screen.
		if m.running {
			m.interrupted = true
			m.eng.Stop()
		}
		return m, nil

	case "r":
		if !m.running {
			m.startRun()
			return m, tick()
		}
		return m, nil

	case "y":
		if m.report != nil {
			if err := clipboard.WriteAll(m.report.Text()); err != nil {
				m.statusMsg = fmt.Sprintf("copy failed: %v", err)
			} else {
				m.statusMsg = "report copied to clipboard"
			}
			return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
				return clearStatusMsg{}
			})
		}
		return m, nil

	case "up", "k":
		m.logView.LineUp(1)
		return m, nil

	case "down", "j":
		m.logView.LineDown(1)
		return m, nil
	}

	return m, nil
}

// snapshot returns the statistics to render: the frozen report after the
// run ends, the live aggregate while it is in flight.
func (m *Model) snapshot() stats.Snapshot {
	if m.report != nil {
		return m.report.Snapshot
	}
	if m.agg != nil {
		return m.agg.Snapshot()
	}
	return stats.Snapshot{}
}
