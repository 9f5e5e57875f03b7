package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/pgkv/statement"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

var errNoRow = errors.New("no row selected")

// Selected returns the row under the cursor.
func (m Model) Selected() (statement.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil, false
	}
	return m.rows[m.cursor], true
}

func (m Model) copyRowCmd() tea.Cmd {
	row, ok := m.Selected()
	idx := m.cursor
	return func() tea.Msg {
		if !ok {
			return CopiedMsg{Row: idx, Err: errNoRow}
		}
		text, err := RowJSON(row)
		if err == nil {
			err = writeClipboard(text)
		}
		return CopiedMsg{Row: idx, Err: err}
	}
}

// FormatValue renders a column value for the grid.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// RowJSON encodes row as a JSON object, keeping column order.
func RowJSON(row statement.Row) (string, error) {
	b, err := json.Marshal(row)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
