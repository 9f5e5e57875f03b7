// Package statement turns table names, ordered column/value lists and query
// options into PostgreSQL statements with positional placeholders.
//
// Builders never splice values into SQL text. Every value is bound through a
// $n placeholder and returned in Statement.Args, in placeholder order.
// Identifiers (tables, columns, GROUP BY and ORDER BY names) cannot be bound,
// so they are validated instead and rejected with ErrInvalidIdentifier when
// they are anything but plain, optionally qualified, names.
//
// A SELECT without where conditions is always capped at MaxUnfilteredRows.
// An UPDATE requires where conditions. A DELETE with no conditions removes
// every row; callers must pass an empty list on purpose.
//
//	stmt, err := statement.Select("users", statement.Query{
//		Columns: []string{"id", "name"},
//		Where:   statement.Of("active", true),
//		OrderBy: "id",
//		Limit:   50,
//	})
//	// SELECT id, name FROM users WHERE active = $1 ORDER BY id LIMIT 50
//
// Statement.Interpolate renders a human-readable copy for debug logs.
package statement
