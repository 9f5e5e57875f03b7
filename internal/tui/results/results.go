package results

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/pgkv/internal/tui/theme"
	"github.com/joacominatel/pgkv/statement"
)

// MaxColumnWidth caps the display width of a column.
const MaxColumnWidth = 40

// Model is the scrollable results grid.
type Model struct {
	rows      []statement.Row
	columns   []string
	cells     [][]string
	nulls     [][]bool
	colWidths []int
	width     int
	height    int
	focused   bool
	loading   bool
	cursor    int
	offset    int
}

// New creates an empty results grid.
func New() Model {
	return Model{}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.clamp()
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetRows replaces the rows on display. Column order follows the first row,
// or columns when no row came back.
func (m *Model) SetRows(rows []statement.Row, columns []string) {
	m.rows = rows
	m.loading = false
	m.cursor = 0
	m.offset = 0
	if len(rows) > 0 {
		columns = rows[0].Columns()
	}
	m.columns = columns
	m.cells = make([][]string, len(rows))
	m.nulls = make([][]bool, len(rows))
	for i, row := range rows {
		m.cells[i] = make([]string, len(row))
		m.nulls[i] = make([]bool, len(row))
		for j, p := range row {
			m.cells[i][j] = FormatValue(p.Value)
			m.nulls[i][j] = p.Value == nil
		}
	}
	m.calculateColumnWidths()
}

// Rows returns the rows on display.
func (m Model) Rows() []statement.Row {
	return m.rows
}

// Cursor returns the index of the selected row.
func (m Model) Cursor() int {
	return m.cursor
}

// ColumnWidths returns the display width of every column.
func (m Model) ColumnWidths() []int {
	return m.colWidths
}

func (m *Model) calculateColumnWidths() {
	m.colWidths = make([]int, len(m.columns))
	for i, col := range m.columns {
		m.colWidths[i] = lipgloss.Width(col)
	}
	for _, row := range m.cells {
		for i, cell := range row {
			if w := lipgloss.Width(cell); i < len(m.colWidths) && w > m.colWidths[i] {
				m.colWidths[i] = w
			}
		}
	}
	for i := range m.colWidths {
		m.colWidths[i] = max(1, min(m.colWidths[i], MaxColumnWidth))
	}
}

// visibleRows is the number of data rows that fit below the header.
func (m Model) visibleRows() int {
	return max(1, m.height-3)
}

func (m *Model) clamp() {
	last := len(m.rows) - 1
	m.cursor = max(0, min(m.cursor, last))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.visibleRows() {
		m.offset = m.cursor - m.visibleRows() + 1
	}
	m.offset = max(0, m.offset)
}

// Update handles keys while the grid has focus.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		m.cursor--
	case "down", "j":
		m.cursor++
	case "pgup":
		m.cursor -= m.visibleRows()
	case "pgdown":
		m.cursor += m.visibleRows()
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.rows) - 1
	case "y":
		return m, m.copyRowCmd()
	}
	m.clamp()
	return m, nil
}

// View renders the grid.
func (m Model) View() string {
	title := theme.StyleTitle.Padding(0, 1).Render("Rows")

	if m.loading {
		return title + "\n" + theme.StyleMuted.Render("  Loading...")
	}
	if len(m.columns) == 0 {
		return title + "\n" + theme.StyleMuted.Render("  No rows")
	}

	var b strings.Builder
	b.WriteString(title)
	if len(m.rows) > 0 {
		b.WriteString(theme.StyleMuted.Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(m.rows))))
	}
	b.WriteString("\n")
	b.WriteString(m.renderRow(m.columns, nil, theme.StyleHeader))
	b.WriteString("\n")
	b.WriteString(m.renderSeparator())

	end := min(len(m.cells), m.offset+m.visibleRows())
	for i := m.offset; i < end; i++ {
		b.WriteString("\n")
		style := lipgloss.NewStyle()
		if i == m.cursor && m.focused {
			style = theme.StyleSelectedRow
		}
		b.WriteString(m.renderRow(m.cells[i], m.nulls[i], style))
	}
	return b.String()
}

// renderRow lays out one line of cells. Cells flagged in nulls are drawn
// with the null style on top of the row style.
func (m Model) renderRow(cells []string, nulls []bool, style lipgloss.Style) string {
	nullStyle := theme.StyleNull.Inherit(style)
	parts := make([]string, len(cells))
	for i, cell := range cells {
		width := MaxColumnWidth
		if i < len(m.colWidths) {
			width = m.colWidths[i]
		}
		s := style
		if i < len(nulls) && nulls[i] {
			s = nullStyle
		}
		parts[i] = s.Render(fit(cell, width))
	}
	return style.Render("  ") + strings.Join(parts, style.Render(" │ "))
}

func (m Model) renderSeparator() string {
	parts := make([]string, len(m.colWidths))
	for i, w := range m.colWidths {
		parts[i] = strings.Repeat("─", w)
	}
	return "  " + lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Join(parts, "─┼─"))
}

// fit truncates s with an ellipsis or pads it to exactly width cells.
func fit(s string, width int) string {
	if lipgloss.Width(s) > width {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes)) >= width {
			runes = runes[:len(runes)-1]
		}
		s = string(runes) + "…"
	}
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
