package statement

import (
	"testing"
	"time"
)

var interpolateTests = []struct {
	sql    string
	args   []any
	expSQL string
}{
	{"SELECT * FROM x WHERE a = $1 AND b = $2", []any{3, "four"},
		"SELECT * FROM x WHERE a = 3 AND b = 'four'"},
	{"INSERT INTO t (a) VALUES ($1)", []any{"it's"},
		"INSERT INTO t (a) VALUES ('it''s')"},
	{"SELECT $1, $2, $3", []any{nil, true, false},
		"SELECT NULL, TRUE, FALSE"},
	{"SELECT $1", []any{[]byte{0xde, 0xad}}, `SELECT '\xdead'`},
	{"SELECT $1", []any{1.5}, "SELECT 1.5"},
	{"SELECT $1", []any{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		"SELECT '2024-01-02 03:04:05+00:00'"},
	{"SELECT '$1', \"$1\", $1", []any{5}, `SELECT '$1', "$1", 5`},
	{"SELECT $2, $1", []any{"a"}, "SELECT $2, 'a'"},
	{"SELECT price$", nil, "SELECT price$"},
	{"SELECT $1, $10", []any{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		"SELECT 1, 10"},
}

func TestInterpolate(t *testing.T) {
	for _, test := range interpolateTests {
		got := Interpolate(test.sql, test.args)
		if got != test.expSQL {
			t.Errorf("\n got: %v\nwant: %v", got, test.expSQL)
		}
	}
}

func TestStatementInterpolateKeepsStatement(t *testing.T) {
	stmt, err := Update("t", Of("name", "O'Brien"), Of("id", 1), Eq)
	if err != nil {
		t.Fatal(err)
	}
	want := "UPDATE t SET name = 'O''Brien' WHERE id = 1"
	if got := stmt.Interpolate(); got != want {
		t.Errorf("\n got: %v\nwant: %v", got, want)
	}
	if stmt.SQL != "UPDATE t SET name = $1 WHERE id = $2" {
		t.Errorf("interpolation changed the executable statement: %q", stmt.SQL)
	}
}
