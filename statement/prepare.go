package statement

// Prepare pairs every result row with the requested column names by
// position. The result is never nil. A row shorter than columns yields a
// truncated Row; extra row values are dropped.
func Prepare(rows [][]any, columns []string) []Row {
	out := make([]Row, 0, len(rows))
	for _, values := range rows {
		n := min(len(values), len(columns))
		row := make(Row, n)
		for i := 0; i < n; i++ {
			row[i] = Pair{Column: columns[i], Value: values[i]}
		}
		out = append(out, row)
	}
	return out
}
