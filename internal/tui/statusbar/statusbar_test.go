package statusbar

import (
	"strings"
	"testing"
)

func TestView(t *testing.T) {
	m := New("main", "fruit")
	m.SetWidth(80)

	out := m.View()
	if !strings.Contains(out, "main") || !strings.Contains(out, "fruit") {
		t.Errorf("alias or table missing from %q", out)
	}
	if strings.Contains(out, "row(s)") {
		t.Error("row count shown before any read")
	}

	m.SetRows(12)
	m.SetMessage(Failure, "boom")
	out = m.View()
	if !strings.Contains(out, "12 row(s)") || !strings.Contains(out, "boom") {
		t.Errorf("got %q", out)
	}
	if m.Message() != "boom" {
		t.Errorf("message %q", m.Message())
	}

	m.SetMessage(Warning, "capped at 10")
	if out = m.View(); !strings.Contains(out, "capped at 10") {
		t.Errorf("warning missing from %q", out)
	}
}
