package statement

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Pair is one column and the value bound to it.
type Pair struct {
	Column string
	Value  any
}

// Pairs is an ordered column/value list. Order is significant: it decides
// column order in the generated SQL and the position of every bind value.
type Pairs []Pair

// Row is a result row paired with the requested column names.
type Row = Pairs

// Of builds Pairs from alternating column names and values.
// It panics if a key is not a string or the argument count is odd.
func Of(kv ...any) Pairs {
	if len(kv)%2 != 0 {
		panic("statement: Of requires an even number of arguments")
	}
	p := make(Pairs, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		col, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("statement: Of key at position %d is %T, not string", i, kv[i]))
		}
		p = append(p, Pair{Column: col, Value: kv[i+1]})
	}
	return p
}

// Add appends a column/value pair, replacing the value in place if the
// column is already present.
func (p Pairs) Add(column string, value any) Pairs {
	for i := range p {
		if p[i].Column == column {
			p[i].Value = value
			return p
		}
	}
	return append(p, Pair{Column: column, Value: value})
}

// Get returns the value stored for column.
func (p Pairs) Get(column string) (any, bool) {
	for _, kv := range p {
		if kv.Column == column {
			return kv.Value, true
		}
	}
	return nil, false
}

// Has reports whether column is present.
func (p Pairs) Has(column string) bool {
	_, ok := p.Get(column)
	return ok
}

// Columns returns the column names in order.
func (p Pairs) Columns() []string {
	cols := make([]string, len(p))
	for i, kv := range p {
		cols[i] = kv.Column
	}
	return cols
}

// Values returns the values in order.
func (p Pairs) Values() []any {
	vals := make([]any, len(p))
	for i, kv := range p {
		vals[i] = kv.Value
	}
	return vals
}

// Map returns an unordered copy.
func (p Pairs) Map() map[string]any {
	m := make(map[string]any, len(p))
	for _, kv := range p {
		m[kv.Column] = kv.Value
	}
	return m
}

// MarshalJSON encodes the pairs as a JSON object in column order.
// []byte values are written as strings.
func (p Pairs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Column)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v := kv.Value
		if raw, ok := v.([]byte); ok {
			v = string(raw)
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", kv.Column, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
