// Package params parses command-line and filter-line values such as
// "id=3,name='Green apple'" into typed column/value lists.
package params

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joacominatel/pgkv/statement"
)

// ParsePairs parses a comma separated list of column=value assignments.
// Values may be single-quoted to hold commas or spaces, with a doubled
// quote standing for a literal one. Unquoted values are typed by ParseValue.
func ParsePairs(s string) (statement.Pairs, error) {
	var pairs statement.Pairs
	items, err := split(s)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if strings.TrimSpace(item.text) == "" {
			continue
		}
		col, val, found := strings.Cut(item.text, "=")
		if !found {
			return nil, fmt.Errorf("expected column=value, got %q", item.text)
		}
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, fmt.Errorf("missing column name in %q", item.text)
		}
		if pairs.Has(col) {
			return nil, fmt.Errorf("column %q given twice", col)
		}
		pairs = append(pairs, statement.Pair{Column: col, Value: item.value(val)})
	}
	return pairs, nil
}

// ParseList parses a comma separated list of values.
func ParseList(s string) ([]any, error) {
	items, err := split(s)
	if err != nil {
		return nil, err
	}
	var values []any
	for _, item := range items {
		values = append(values, item.value(item.text))
	}
	return values, nil
}

// ParseColumns splits a comma separated column list, dropping blanks.
func ParseColumns(s string) []string {
	var cols []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// ParseValue types an unquoted value: null, booleans, integers and floats
// are recognised; anything else stays a string.
func ParseValue(s string) any {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

type item struct {
	text   string
	quoted bool
}

// value returns the item's value part. Quoted items keep their text as is.
func (it item) value(raw string) any {
	if it.quoted {
		v := strings.TrimSpace(raw)
		if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
			return strings.ReplaceAll(v[1:len(v)-1], "''", "'")
		}
	}
	return ParseValue(raw)
}

func split(s string) ([]item, error) {
	var (
		items  []item
		cur    strings.Builder
		quoted bool
		inQ    bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' && inQ && i+1 < len(s) && s[i+1] == '\'':
			cur.WriteString("''")
			i++
		case c == '\'':
			inQ = !inQ
			quoted = true
			cur.WriteByte(c)
		case c == ',' && !inQ:
			items = append(items, item{text: cur.String(), quoted: quoted})
			cur.Reset()
			quoted = false
		default:
			cur.WriteByte(c)
		}
	}
	if inQ {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if cur.Len() > 0 || len(items) > 0 {
		items = append(items, item{text: cur.String(), quoted: quoted})
	}
	return items, nil
}
