// Package tui is the interactive table browser behind "pgkv browse".
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/pgkv/client"
	"github.com/joacominatel/pgkv/internal/params"
	"github.com/joacominatel/pgkv/internal/tui/results"
	"github.com/joacominatel/pgkv/internal/tui/statusbar"
	"github.com/joacominatel/pgkv/internal/tui/theme"
	"github.com/joacominatel/pgkv/statement"
)

// Reader runs SELECTs for the browser. *client.Client satisfies it.
type Reader interface {
	Read(ctx context.Context, table string, q statement.Query, opts ...client.CallOption) []statement.Row
}

// Options selects what the browser shows.
type Options struct {
	Alias   string
	Table   string
	Columns []string
	// Limit applies to filtered reads only.
	Limit int
	// Timeout bounds each read attempt; zero means no deadline.
	Timeout time.Duration
}

type readDoneMsg struct {
	rows    []statement.Row
	where   statement.Pairs
	elapsed time.Duration
	limit   int
}

// Model is the top-level bubbletea model of the browser.
type Model struct {
	reader    Reader
	opts      Options
	filter    textinput.Model
	where     statement.Pairs
	results   results.Model
	statusbar statusbar.Model
	filtering bool
	width     int
	height    int
}

// NewModel creates the browser for opts.Table on opts.Alias.
func NewModel(reader Reader, opts Options) Model {
	if opts.Alias == "" {
		opts.Alias = client.DefaultServer
	}

	ti := textinput.New()
	ti.Prompt = "filter> "
	ti.Placeholder = "column=value,other='some text'"
	ti.CharLimit = 500

	res := results.New()
	res.SetFocused(true)
	res.SetLoading(true)

	return Model{
		reader:    reader,
		opts:      opts,
		filter:    ti,
		results:   res,
		statusbar: statusbar.New(opts.Alias, opts.Table),
	}
}

// Init loads the unfiltered table.
func (m Model) Init() tea.Cmd {
	return m.readCmd(nil)
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case readDoneMsg:
		m.where = msg.where
		m.results.SetRows(msg.rows, m.opts.Columns)
		m.statusbar.SetRows(len(msg.rows))
		status := fmt.Sprintf("%d row(s) in %s", len(msg.rows), msg.elapsed.Round(time.Millisecond))
		if msg.limit > 0 && len(msg.rows) >= msg.limit {
			m.statusbar.SetMessage(statusbar.Warning, fmt.Sprintf("%s, capped at %d; filter to narrow", status, msg.limit))
		} else {
			m.statusbar.SetMessage(statusbar.Info, status)
		}
		return m, nil

	case results.CopiedMsg:
		if msg.Err != nil {
			m.statusbar.SetMessage(statusbar.Failure, "Copy failed: "+msg.Err.Error())
		} else {
			m.statusbar.SetMessage(statusbar.Success, fmt.Sprintf("Copied row %d as JSON", msg.Row+1))
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "/":
			m.setFiltering(true)
			return m, textinput.Blink
		case "r":
			m.results.SetLoading(true)
			return m, m.readCmd(m.where)
		}
	}

	var cmd tea.Cmd
	if m.filtering {
		m.filter, cmd = m.filter.Update(msg)
	} else {
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		where, err := params.ParsePairs(m.filter.Value())
		if err != nil {
			m.statusbar.SetMessage(statusbar.Failure, "Bad filter: "+err.Error())
			return m, nil
		}
		m.setFiltering(false)
		m.results.SetLoading(true)
		m.statusbar.SetMessage(statusbar.Info, "Reading...")
		return m, m.readCmd(where)
	case "esc":
		m.setFiltering(false)
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m *Model) setFiltering(on bool) {
	m.filtering = on
	m.results.SetFocused(!on)
	if on {
		m.filter.Focus()
	} else {
		m.filter.Blur()
	}
}

// Filtering reports whether the filter line has focus.
func (m Model) Filtering() bool {
	return m.filtering
}

// Where returns the filter of the rows on display.
func (m Model) Where() statement.Pairs {
	return m.where
}

// Results returns the results grid.
func (m Model) Results() results.Model {
	return m.results
}

// Status returns the status bar message.
func (m Model) Status() string {
	return m.statusbar.Message()
}

func (m Model) query(where statement.Pairs) statement.Query {
	return statement.Query{
		Columns: m.opts.Columns,
		Where:   where,
		Limit:   m.opts.Limit,
	}
}

func (m Model) readCmd(where statement.Pairs) tea.Cmd {
	reader, table, q := m.reader, m.opts.Table, m.query(where)
	callOpts := []client.CallOption{client.On(m.opts.Alias)}
	if m.opts.Timeout > 0 {
		callOpts = append(callOpts, client.Timeout(m.opts.Timeout))
	}
	return func() tea.Msg {
		start := time.Now()
		rows := reader.Read(context.Background(), table, q, callOpts...)
		return readDoneMsg{rows: rows, where: where, elapsed: time.Since(start), limit: q.EffectiveLimit()}
	}
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// filter line, frame border and status bar
	m.results.SetSize(m.width-2, m.height-4)
	m.filter.Width = m.width - lipgloss.Width(m.filter.Prompt) - 1
	m.statusbar.SetWidth(m.width)
}

// View renders the browser.
func (m Model) View() string {
	frame := theme.StyleFrame
	if !m.filtering {
		frame = theme.StyleFocusedFrame
	}
	if m.width > 2 {
		frame = frame.Width(m.width - 2)
	}
	if m.height > 4 {
		frame = frame.Height(m.height - 4)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.filter.View(),
		frame.Render(m.results.View()),
		m.statusbar.View(),
	)
}

// Run starts the browser and blocks until the user quits.
func Run(reader Reader, opts Options, programOpts ...tea.ProgramOption) error {
	if opts.Table == "" {
		return errors.New("browse: table is required")
	}
	_, err := tea.NewProgram(NewModel(reader, opts), programOpts...).Run()
	return err
}
