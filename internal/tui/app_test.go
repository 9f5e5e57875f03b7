package tui

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/pgkv/client"
	"github.com/joacominatel/pgkv/statement"
)

type fakeReader struct {
	mu      sync.Mutex
	tables  []string
	queries []statement.Query
	rows    []statement.Row
}

func (f *fakeReader) Read(_ context.Context, table string, q statement.Query, _ ...client.CallOption) []statement.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = append(f.tables, table)
	f.queries = append(f.queries, q)
	return f.rows
}

func (f *fakeReader) last() statement.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to the model and, if a command comes back, runs it once
// and feeds its message back too.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd != nil {
		if out := cmd(); out != nil {
			next, _ = m.Update(out)
			m = next.(Model)
		}
	}
	return m
}

// press feeds msg to the model without running the returned command.
func press(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func newBrowser(reader *fakeReader) Model {
	m := NewModel(reader, Options{Alias: "main", Table: "fruit", Columns: []string{"id", "name"}, Limit: 10})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return next.(Model)
}

func TestInitReadsUnfiltered(t *testing.T) {
	reader := &fakeReader{rows: []statement.Row{statement.Of("id", 1, "name", "apple")}}
	m := newBrowser(reader)

	m = step(t, m, m.Init()())
	if reader.tables[0] != "fruit" {
		t.Errorf("read table %q", reader.tables[0])
	}
	if q := reader.last(); len(q.Where) != 0 || q.Limit != 10 {
		t.Errorf("initial query %+v", q)
	}
	if got := len(m.Results().Rows()); got != 1 {
		t.Errorf("got %d rows on screen, want 1", got)
	}
	if !strings.Contains(m.View(), "apple") {
		t.Error("row missing from view")
	}
}

func TestFilterRunsRead(t *testing.T) {
	reader := &fakeReader{}
	m := newBrowser(reader)

	m = press(m, runes("/"))
	if !m.Filtering() {
		t.Fatal("filter line not focused")
	}
	m.filter.SetValue("name='Green apple',id=3")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.Filtering() {
		t.Error("filter line kept focus after enter")
	}
	want := statement.Of("name", "Green apple", "id", int64(3))
	if got := reader.last().Where; !reflect.DeepEqual(got, want) {
		t.Errorf("where %#v, want %#v", got, want)
	}
	if !reflect.DeepEqual(m.Where(), want) {
		t.Errorf("model where %#v", m.Where())
	}

	// reload keeps the filter
	m = step(t, m, runes("r"))
	if got := reader.last().Where; !reflect.DeepEqual(got, want) {
		t.Errorf("reload where %#v", got)
	}
}

func TestBadFilter(t *testing.T) {
	reader := &fakeReader{}
	m := newBrowser(reader)

	m = press(m, runes("/"))
	m.filter.SetValue("broken")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if !m.Filtering() {
		t.Error("filter line lost focus on a bad filter")
	}
	if len(reader.queries) != 0 {
		t.Errorf("read ran %d times", len(reader.queries))
	}
	if !strings.HasPrefix(m.Status(), "Bad filter") {
		t.Errorf("status %q", m.Status())
	}
}

func TestReadAtLimitWarns(t *testing.T) {
	tests := []struct {
		name   string
		rows   int
		capped bool
	}{
		{"under the limit", 3, false},
		{"at the limit", 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{}
			for i := 0; i < tt.rows; i++ {
				reader.rows = append(reader.rows, statement.Of("id", i, "name", "x"))
			}
			m := newBrowser(reader)
			m = step(t, m, m.Init()())

			if got := strings.Contains(m.Status(), "capped at 10"); got != tt.capped {
				t.Errorf("status %q, capped = %v, want %v", m.Status(), got, tt.capped)
			}
		})
	}
}

func TestEscLeavesFilter(t *testing.T) {
	m := newBrowser(&fakeReader{})
	m = press(m, runes("/"))
	m = press(m, runes("q"))
	if !m.Filtering() || m.filter.Value() != "q" {
		t.Fatal("q typed into the filter should not quit or blur")
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Filtering() {
		t.Error("esc did not leave the filter line")
	}
}

func TestQuit(t *testing.T) {
	m := newBrowser(&fakeReader{})
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestRunRequiresTable(t *testing.T) {
	if err := Run(&fakeReader{}, Options{}); err == nil {
		t.Error("expected an error without a table")
	}
}
