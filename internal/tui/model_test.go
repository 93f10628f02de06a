package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/pepe/internal/engine"
	"github.com/studiowebux/pepe/internal/outcome"
	"github.com/studiowebux/pepe/internal/request"
	"github.com/studiowebux/pepe/internal/stats"
)

func testModel(t *testing.T) *Model {
	t.Helper()
	tpl := &request.Template{Method: "GET", URL: "http://localhost:1", UserAgent: "pepe/test"}
	opts := engine.Options{Total: 10, Concurrency: 2, Timeout: time.Second}

	m := NewModel(tpl, opts)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func TestOutcomeMsgFeedsRing(t *testing.T) {
	m := testModel(t)

	m.Update(outcomeMsg(outcome.Outcome{Seq: 0, StatusCode: 200}))
	m.Update(outcomeMsg(outcome.Outcome{Seq: 1, StatusCode: 404}))

	if m.ring.Len() != 2 {
		t.Fatalf("ring len = %d, want 2", m.ring.Len())
	}
	if items := m.ring.Items(); items[0].Seq != 1 {
		t.Errorf("newest item seq = %d, want 1", items[0].Seq)
	}
}

func TestRunDoneFreezesReport(t *testing.T) {
	m := testModel(t)

	eng, err := engine.New(context.Background(), m.tpl, m.opts)
	if err != nil {
		t.Fatal(err)
	}
	m.eng = eng
	m.agg = stats.NewAggregator(m.opts.Total)
	m.running = true

	m.agg.Record(outcome.Outcome{StatusCode: 200, Timing: outcome.Timing{Total: 10 * time.Millisecond}})
	m.Update(runDoneMsg{})

	if m.running {
		t.Error("model still running after run completed")
	}
	if m.report == nil {
		t.Fatal("no report after run completed")
	}
	if !m.report.Partial {
		t.Error("1/10 completed run not marked partial")
	}
	if m.report.Completed != 1 {
		t.Errorf("completed = %d, want 1", m.report.Completed)
	}
}

func TestQuitKeyStopsEngine(t *testing.T) {
	m := testModel(t)

	eng, err := engine.New(context.Background(), m.tpl, m.opts)
	if err != nil {
		t.Fatal(err)
	}
	m.eng = eng
	m.running = true

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("quit key returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key did not return tea.Quit")
	}
	if !eng.Cancelled() {
		t.Error("engine not stopped on quit")
	}
}

func TestInterruptKeyKeepsDashboard(t *testing.T) {
	m := testModel(t)

	eng, err := engine.New(context.Background(), m.tpl, m.opts)
	if err != nil {
		t.Fatal(err)
	}
	m.eng = eng
	m.running = true

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'i'}})
	if cmd != nil {
		t.Error("interrupt should not quit the program")
	}
	if !eng.Cancelled() {
		t.Error("engine not stopped on interrupt")
	}
	if !m.interrupted {
		t.Error("interrupt flag not set")
	}
}

func TestViewRendersWithoutRun(t *testing.T) {
	m := testModel(t)

	view := m.View()
	if view == "" {
		t.Fatal("empty view")
	}
	for _, want := range []string{"PEPE", "Statistics", "Distribution", "Status codes"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
