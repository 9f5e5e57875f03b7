package statement

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.999999-07:00"

// Interpolate returns the statement with every placeholder replaced by a
// PostgreSQL literal. The result is for logs only and must never be sent to
// the database.
func (s Statement) Interpolate() string {
	return Interpolate(s.SQL, s.Args)
}

// Interpolate substitutes $n placeholders in sql with literals of args.
// Placeholders inside quoted literals or identifiers are left alone, as are
// placeholders without a matching argument.
func Interpolate(sql string, args []any) string {
	var b strings.Builder
	b.Grow(len(sql))
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		case c == '$':
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(sql[i+1 : j])
			if err != nil || n < 1 || n > len(args) {
				b.WriteByte(c)
				continue
			}
			writeLiteral(&b, args[n-1])
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func writeLiteral(b *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		b.WriteString("NULL")
	case bool:
		if v {
			b.WriteString("TRUE")
		} else {
			b.WriteString("FALSE")
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		fmt.Fprint(b, v)
	case float32:
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	case float64:
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case string:
		writeString(b, v)
	case []byte:
		b.WriteString(`'\x`)
		b.WriteString(hex.EncodeToString(v))
		b.WriteByte('\'')
	case time.Time:
		writeString(b, v.Format(timestampFormat))
	case fmt.Stringer:
		writeString(b, v.String())
	default:
		writeString(b, fmt.Sprint(v))
	}
}

func writeString(b *strings.Builder, s string) {
	b.WriteByte('\'')
	b.WriteString(strings.ReplaceAll(s, "'", "''"))
	b.WriteByte('\'')
}
