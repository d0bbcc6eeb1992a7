package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/adapter"
	"github.com/wippyai/hostbridge/config"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	tableBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#666666"))
)

const maxRows = 500

type requestRow struct {
	at          time.Time
	id          string
	method      string
	url         string
	disposition string
	err         string
	duration    time.Duration
	bytes       int
	misses      int
}

func (r requestRow) cells() table.Row {
	result := r.disposition
	if r.err != "" {
		result = r.err
	}
	return table.Row{
		r.at.Format("15:04:05"),
		r.method,
		r.url,
		result,
		strconv.Itoa(r.bytes),
		strconv.Itoa(r.misses),
		r.duration.Round(time.Microsecond).String(),
	}
}

// requestFeed folds lifecycle events into one row per request.
type requestFeed struct {
	mu      sync.Mutex
	pending map[string]*requestRow
	out     chan requestRow
}

func newRequestFeed() *requestFeed {
	return &requestFeed{
		pending: make(map[string]*requestRow),
		out:     make(chan requestRow, 256),
	}
}

func (f *requestFeed) Observe(e adapter.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e.Type == adapter.EventBound {
		f.pending[e.RequestID] = &requestRow{
			at:     time.Now(),
			id:     e.RequestID,
			method: e.Name,
			url:    e.URL,
		}
		return
	}

	r := f.pending[e.RequestID]
	if r == nil {
		return
	}
	switch e.Type {
	case adapter.EventChunkFlushed:
		r.bytes += e.Bytes
	case adapter.EventResolveMiss:
		r.misses++
	case adapter.EventFailed:
		r.err = e.Err.Error()
	case adapter.EventDisposed:
		delete(f.pending, e.RequestID)
		r.disposition = e.Disposition.String()
		r.duration = e.Duration
		select {
		case f.out <- *r:
		default: // monitor is behind, drop
		}
	}
}

type (
	rowMsg       requestRow
	serverErrMsg struct{ err error }
	startedMsg   struct {
		srv   *server
		errCh <-chan error
	}
)

type monitorModel struct {
	cfg     *config.Config
	feed    *requestFeed
	srv     *server
	errCh   <-chan error
	err     error
	table   table.Model
	rows    []table.Row
	total   int
	failed  int
	stopped bool
}

func newMonitorModel(cfg *config.Config) monitorModel {
	columns := []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Method", Width: 7},
		{Title: "URL", Width: 40},
		{Title: "Result", Width: 24},
		{Title: "Bytes", Width: 8},
		{Title: "Misses", Width: 6},
		{Title: "Duration", Width: 12},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#666666")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Bold(false)
	t.SetStyles(s)

	return monitorModel{cfg: cfg, feed: newRequestFeed(), table: t}
}

func (m monitorModel) Init() tea.Cmd {
	return m.startServer
}

func (m monitorModel) startServer() tea.Msg {
	srv, err := newServer(context.Background(), m.cfg, zap.NewNop(), m.feed)
	if err != nil {
		return serverErrMsg{err}
	}
	return startedMsg{srv: srv, errCh: srv.start()}
}

func (m monitorModel) waitForRow() tea.Msg {
	return rowMsg(<-m.feed.out)
}

func (m monitorModel) waitForServerErr() tea.Msg {
	return serverErrMsg{<-m.errCh}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.shutdown()
			return m, tea.Quit
		case "c":
			m.rows = nil
			m.table.SetRows(nil)
			return m, nil
		}

	case tea.WindowSizeMsg:
		if h := msg.Height - 7; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case startedMsg:
		m.srv = msg.srv
		m.errCh = msg.errCh
		return m, tea.Batch(m.waitForRow, m.waitForServerErr)

	case rowMsg:
		r := requestRow(msg)
		m.total++
		if r.err != "" {
			m.failed++
		}
		m.rows = append([]table.Row{r.cells()}, m.rows...)
		if len(m.rows) > maxRows {
			m.rows = m.rows[:maxRows]
		}
		m.table.SetRows(m.rows)
		return m, m.waitForRow

	case serverErrMsg:
		m.err = msg.err
		m.shutdown()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *monitorModel) shutdown() {
	if m.srv == nil || m.stopped {
		return
	}
	m.stopped = true
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.srv.shutdown(ctx); err != nil && m.err == nil {
		m.err = err
	}
}

func (m monitorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("hostbridge monitor"))
	b.WriteString(" ")
	b.WriteString(addrStyle.Render(m.cfg.Listen))
	if m.cfg.Guest.Path != "" {
		b.WriteString(helpStyle.Render("  guest " + m.cfg.Guest.Path))
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q: quit"))
		return b.String()
	}

	b.WriteString(tableBorder.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(countStyle.Render(fmt.Sprintf("%d requests", m.total)))
	if m.failed > 0 {
		b.WriteString("  ")
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d failed", m.failed)))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓: scroll • c: clear • q: quit"))
	return b.String()
}

func runInteractive(cfg *config.Config) error {
	p := tea.NewProgram(newMonitorModel(cfg), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(monitorModel); ok {
		return m.err
	}
	return nil
}
