package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/studiowebux/pepe/internal/outcome"
	"github.com/studiowebux/pepe/internal/stats"
	"github.com/studiowebux/pepe/internal/version"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"} // Dark green / Bright green
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"} // Dark red / Bright red
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"} // Dark goldenrod / Yellow
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"} // Dark gray / Light gray
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"} // Dark cyan / Cyan
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)
)

// seededStatusCodes always appear in the distribution, even at zero, so
// the pane does not jump around as codes show up.
var seededStatusCodes = []int{200, 400, 404, 500, 503}

const progressBarWidth = 40

// View renders the dashboard
func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}
	if m.startErr != nil {
		return styleError.Render(fmt.Sprintf("failed to start: %v", m.startErr)) + "\n\nPress q to quit.\n"
	}

	s := m.snapshot()

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderProgress(s))
	b.WriteString("\n")
	b.WriteString(m.renderCounters(s))
	b.WriteString("\n")

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatistics(s),
		"",
		m.renderPercentiles(s),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatusCodes(s),
		"",
		m.renderCache(s),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(44).Render(left),
		right,
	))
	b.WriteString("\n\n")
	b.WriteString(m.renderLog())

	if m.statusMsg != "" {
		b.WriteString("\n" + styleSuccess.Render(m.statusMsg))
	}

	return b.String()
}

// renderHeader shows the target, the run parameters, and the key bindings.
func (m *Model) renderHeader() string {
	var b strings.Builder

	logo := styleTitle.Render("PEPE") + styleSubtle.Render("  http load generator v"+version.Version)
	if m.updateVersion != "" {
		logo += styleWarning.Render(fmt.Sprintf("  (v%s available)", m.updateVersion))
	}
	b.WriteString(logo + "\n")
	b.WriteString(fmt.Sprintf("%s %s\n", styleTitle.Render(m.tpl.Method), m.tpl.URL))
	b.WriteString(styleSubtle.Render(fmt.Sprintf("requests: %d  concurrency: %d  timeout: %s",
		m.opts.Total, m.opts.Concurrency, m.opts.Timeout)) + "\n")

	keys := "q/esc/enter: quit  i: interrupt  r: restart  y: copy report"
	if m.running {
		keys = "q/esc/enter: quit  i: interrupt"
	}
	b.WriteString(styleSubtle.Render(keys) + "\n")
	return b.String()
}

// renderProgress shows elapsed time and the completion bar.
func (m *Model) renderProgress(s stats.Snapshot) string {
	var b strings.Builder

	filled := int(s.Progress() * float64(progressBarWidth))
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)

	state := ""
	switch {
	case m.running && m.interrupted:
		state = styleWarning.Render("  interrupting...")
	case m.report != nil && m.report.Partial:
		state = styleWarning.Render("  partial run")
	case m.report != nil:
		state = styleSuccess.Render("  done")
	}

	b.WriteString(fmt.Sprintf("%s %3.0f%%  elapsed %s%s\n",
		bar, s.Progress()*100, formatDuration(s.Elapsed), state))
	return b.String()
}

// renderCounters is the one-line request ledger.
func (m *Model) renderCounters(s stats.Snapshot) string {
	parts := []string{
		fmt.Sprintf("total %d", s.Total),
		fmt.Sprintf("sent %d", s.Sent),
		fmt.Sprintf("remaining %d", s.Remaining()),
		styleSuccess.Render(fmt.Sprintf("success %d", s.Success)),
		styleWarning.Render(fmt.Sprintf("failed %d", s.Failed)),
		styleError.Render(fmt.Sprintf("errors %d", s.Errors)),
		styleError.Render(fmt.Sprintf("timeouts %d", s.Timeouts)),
	}
	return strings.Join(parts, "  ") + "\n"
}

// renderStatistics is the latency and throughput grid.
func (m *Model) renderStatistics(s stats.Snapshot) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Statistics") + "\n")

	rows := []struct {
		label string
		value string
	}{
		{"Min", formatMs(s.Min)},
		{"Max", formatMs(s.Max)},
		{"Avg", formatMs(s.Mean)},
		{"StdDev", formatMs(s.StdDev)},
		{"Median", formatMs(s.Median)},
		{"Req/sec", fmt.Sprintf("%.2f", s.RPS)},
		{"Avg DNS", formatMs(s.AvgDNSLookup)},
		{"Data", fmt.Sprintf("%s (%s/s)", formatBytes(s.Bytes), formatBytes(int64(s.BytesPerSec)))},
		{"Error rate", formatRate(s.ErrorRate, s.Completed)},
		{"Cache hits", formatRate(s.CacheHitRate, s.Completed)},
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %-11s %s\n", r.label, r.value))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderPercentiles is the latency distribution ladder.
func (m *Model) renderPercentiles(s stats.Snapshot) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Distribution") + "\n")
	if len(s.Percentiles) == 0 {
		b.WriteString(styleSubtle.Render("  waiting for samples"))
		return b.String()
	}
	for _, p := range s.Percentiles {
		b.WriteString(fmt.Sprintf("  P%-3d %s\n", p.P, formatMs(p.Value)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderStatusCodes shows the response code histogram, seeded with the
// common codes.
func (m *Model) renderStatusCodes(s stats.Snapshot) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Status codes") + "\n")

	codes := make([]int, 0, len(s.StatusCodes)+len(seededStatusCodes))
	seen := make(map[int]bool)
	for _, c := range seededStatusCodes {
		codes = append(codes, c)
		seen[c] = true
	}
	for c := range s.StatusCodes {
		if !seen[c] {
			codes = append(codes, c)
		}
	}
	sort.Ints(codes)

	for _, c := range codes {
		line := fmt.Sprintf("  [%d] %d", c, s.StatusCodes[c])
		switch {
		case s.StatusCodes[c] == 0:
			line = styleSubtle.Render(line)
		case c >= 200 && c < 300:
			line = styleSuccess.Render(line)
		case c >= 500:
			line = styleError.Render(line)
		default:
			line = styleWarning.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderCache shows the cache verdict buckets.
func (m *Model) renderCache(s stats.Snapshot) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Cache") + "\n")
	b.WriteString(fmt.Sprintf("  hits    %d\n", s.CacheHits))
	b.WriteString(fmt.Sprintf("  misses  %d\n", s.CacheMisses))
	b.WriteString(fmt.Sprintf("  unknown %d", s.CacheUnknown))
	return b.String()
}

// renderLog is the recent-request pane with response previews.
func (m *Model) renderLog() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Recent requests") + "\n")
	if !m.logReady || m.ring.Len() == 0 {
		b.WriteString(styleSubtle.Render("  no requests completed yet"))
		return b.String()
	}
	b.WriteString(m.logView.View())
	return b.String()
}

// sizeLogView fits the log viewport under the fixed panes.
func (m *Model) sizeLogView() {
	height := m.height - 26
	if height < 3 {
		height = 3
	}
	if !m.logReady {
		m.logView = viewport.New(m.width, height)
		m.logReady = true
	} else {
		m.logView.Width = m.width
		m.logView.Height = height
	}
	m.refreshLogView()
}

// refreshLogView re-renders the ring into the viewport, newest first.
func (m *Model) refreshLogView() {
	if !m.logReady {
		return
	}
	lines := make([]string, 0, m.ring.Len())
	for _, o := range m.ring.Items() {
		lines = append(lines, formatLogLine(o))
	}
	m.logView.SetContent(strings.Join(lines, "\n"))
}

// formatLogLine renders one outcome for the log pane.
func formatLogLine(o outcome.Outcome) string {
	if !o.OK() {
		detail := o.ErrDetail
		if len(detail) > 60 {
			detail = detail[:60]
		}
		return styleError.Render(fmt.Sprintf("#%-5d %-9s %8s  %s",
			o.Seq, o.Err, formatMs(o.Timing.Total), detail))
	}

	cache := ""
	if o.HasCache {
		cache = "  " + strings.ToUpper(o.Cache.String())
	}
	line := fmt.Sprintf("#%-5d %-9d %8s  %s%s",
		o.Seq, o.StatusCode, formatMs(o.Timing.Total), formatBytes(o.Bytes), cache)
	if o.BodyPreview != "" {
		line += "  " + o.BodyPreview
	}
	if o.Success() {
		return styleSuccess.Render(line)
	}
	return styleWarning.Render(line)
}

// formatDuration formats elapsed run time for display.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

func formatMs(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2fmb", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2fkb", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%db", n)
	}
}

func formatRate(v float64, completed int) string {
	if completed == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}
