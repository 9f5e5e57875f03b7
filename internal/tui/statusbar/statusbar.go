package statusbar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/pgkv/internal/tui/theme"
)

// Level selects how the status message is coloured.
type Level int

const (
	Info Level = iota
	Success
	Failure
	Warning
)

// Model is the bottom line of the browser: server alias, table, row count
// and the last message.
type Model struct {
	width   int
	alias   string
	table   string
	rows    int
	message string
	level   Level
}

// New creates a status bar for table on the server alias.
func New(alias, table string) Model {
	return Model{alias: alias, table: table, rows: -1}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetRows records the number of rows on screen. Negative hides the count.
func (m *Model) SetRows(n int) {
	m.rows = n
}

// SetMessage replaces the status message.
func (m *Model) SetMessage(level Level, msg string) {
	m.level = level
	m.message = msg
}

// Message returns the current status message.
func (m Model) Message() string {
	return m.message
}

// View renders the status bar.
func (m Model) View() string {
	left := lipgloss.NewStyle().Foreground(theme.ColorSuccess).Render("●") +
		" " + m.alias + " " + theme.StyleMuted.Render("/") + " " + m.table
	if m.rows >= 0 {
		left += theme.StyleMuted.Render(fmt.Sprintf("  %d row(s)", m.rows))
	}

	right := theme.StyleMuted.Render("/: filter │ y: copy │ r: reload │ q: quit")
	if m.message != "" {
		switch m.level {
		case Success:
			right = theme.StyleSuccess.Render(m.message)
		case Failure:
			right = theme.StyleError.Render(m.message)
		case Warning:
			right = theme.StyleWarn.Render(m.message)
		default:
			right = m.message
		}
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return theme.StyleStatusBar.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}
