package statement

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxUnfilteredRows caps a SELECT issued without where conditions.
const MaxUnfilteredRows = 1000

// UpdateKey is the key holding the new value in an UpdateMultiple row.
const UpdateKey = "update"

// Statement is SQL text with positional placeholders ($1, $2, ...) and the
// values bound to them, in placeholder order.
type Statement struct {
	SQL  string
	Args []any
}

func (s Statement) String() string {
	return s.SQL
}

// Query holds the options of a SELECT.
type Query struct {
	// Columns to return; empty means *.
	Columns []string
	// Where conditions; empty means no filter.
	Where  Pairs
	Clause Operator
	Join   Join
	// Limit is honoured only when Where is non-empty. Without a filter the
	// row count is capped at MaxUnfilteredRows.
	Limit     int
	OrderBy   string
	OrderType Order
	GroupBy   string
}

type sqlWriter struct {
	sb   strings.Builder
	args []any
}

func (w *sqlWriter) write(s ...string) {
	for _, p := range s {
		w.sb.WriteString(p)
	}
}

func (w *sqlWriter) bind(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *sqlWriter) conditions(where Pairs, op Operator, join Join) {
	for i, kv := range where {
		if i > 0 {
			w.write(" ", string(join), " ")
		}
		w.write(kv.Column, " ", string(op), " ", w.bind(kv.Value))
	}
}

func (w *sqlWriter) statement() Statement {
	return Statement{SQL: w.sb.String(), Args: w.args}
}

// Insert builds a single-row INSERT. Columns keep the order of values.
func Insert(table string, values Pairs) (Statement, error) {
	if err := ValidateIdentifier(table, "table"); err != nil {
		return Statement{}, err
	}
	if len(values) == 0 {
		return Statement{}, ErrNoColumns
	}
	cols := values.Columns()
	if err := validateUnique(cols, "column"); err != nil {
		return Statement{}, err
	}

	var w sqlWriter
	w.write("INSERT INTO ", table, " (", strings.Join(cols, ", "), ") VALUES (")
	for i, kv := range values {
		if i > 0 {
			w.write(", ")
		}
		w.write(w.bind(kv.Value))
	}
	w.write(")")
	return w.statement(), nil
}

// CheckBatch verifies that every row holds exactly the given columns.
func CheckBatch(columns []string, rows []Pairs) error {
	if len(rows) == 0 {
		return ErrEmptyBatch
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return &BatchError{Row: i, Err: ErrDimension}
		}
		for _, col := range columns {
			if !row.Has(col) {
				return &BatchError{Row: i, Column: col, Err: ErrMissingColumn}
			}
		}
	}
	return nil
}

// InsertMultiple builds one INSERT with a placeholder tuple per row. Values
// are flattened row-major in the order of columns.
func InsertMultiple(table string, columns []string, rows []Pairs) (Statement, error) {
	if err := ValidateIdentifier(table, "table"); err != nil {
		return Statement{}, err
	}
	if len(columns) == 0 {
		return Statement{}, ErrNoColumns
	}
	if err := validateUnique(columns, "column"); err != nil {
		return Statement{}, err
	}
	if err := CheckBatch(columns, rows); err != nil {
		return Statement{}, err
	}

	var w sqlWriter
	w.write("INSERT INTO ", table, " (", strings.Join(columns, ", "), ") VALUES ")
	for i, row := range rows {
		if i > 0 {
			w.write(", ")
		}
		w.write("(")
		for j, col := range columns {
			if j > 0 {
				w.write(", ")
			}
			v, _ := row.Get(col)
			w.write(w.bind(v))
		}
		w.write(")")
	}
	return w.statement(), nil
}

// Select builds a SELECT from q.
func Select(table string, q Query) (Statement, error) {
	if err := ValidateIdentifier(table, "table"); err != nil {
		return Statement{}, err
	}
	op, err := ParseOperator(string(q.Clause))
	if err != nil {
		return Statement{}, err
	}
	join, err := ParseJoin(string(q.Join))
	if err != nil {
		return Statement{}, err
	}
	order, err := ParseOrder(string(q.OrderType))
	if err != nil {
		return Statement{}, err
	}

	cols := "*"
	if len(q.Columns) > 0 {
		for _, c := range q.Columns {
			if err := validateSelectColumn(c); err != nil {
				return Statement{}, err
			}
		}
		cols = strings.Join(q.Columns, ", ")
	}
	for _, kv := range q.Where {
		if err := ValidateIdentifier(kv.Column, "column"); err != nil {
			return Statement{}, err
		}
	}

	var w sqlWriter
	w.write("SELECT ", cols, " FROM ", table)
	if len(q.Where) > 0 {
		w.write(" WHERE ")
		w.conditions(q.Where, op, join)
	}
	if q.GroupBy != "" {
		groupBy, err := validateColumnList(q.GroupBy, "group by")
		if err != nil {
			return Statement{}, err
		}
		w.write(" GROUP BY ", groupBy)
	}
	if q.OrderBy != "" {
		orderBy, err := validateColumnList(q.OrderBy, "order by")
		if err != nil {
			return Statement{}, err
		}
		w.write(" ORDER BY ", orderBy)
		if order != NoOrder {
			w.write(" ", string(order))
		}
	}
	if limit := effectiveLimit(q); limit > 0 {
		w.write(" LIMIT ", strconv.Itoa(limit))
	}
	return w.statement(), nil
}

// EffectiveLimit returns the LIMIT Select applies to q, or 0 for none.
func (q Query) EffectiveLimit() int {
	return effectiveLimit(q)
}

func effectiveLimit(q Query) int {
	if len(q.Where) > 0 {
		if q.Limit > 0 {
			return q.Limit
		}
		return 0
	}
	if q.Limit <= 0 || q.Limit > MaxUnfilteredRows {
		return MaxUnfilteredRows
	}
	return q.Limit
}

// Update builds an UPDATE. Set values are bound before where values.
// An empty where list is rejected with ErrUnfilteredUpdate.
func Update(table string, set, where Pairs, clause Operator) (Statement, error) {
	if err := ValidateIdentifier(table, "table"); err != nil {
		return Statement{}, err
	}
	if len(set) == 0 {
		return Statement{}, ErrNoColumns
	}
	if len(where) == 0 {
		return Statement{}, ErrUnfilteredUpdate
	}
	op, err := ParseOperator(string(clause))
	if err != nil {
		return Statement{}, err
	}
	if err := validateUnique(set.Columns(), "column"); err != nil {
		return Statement{}, err
	}
	for _, kv := range where {
		if err := ValidateIdentifier(kv.Column, "column"); err != nil {
			return Statement{}, err
		}
	}

	var w sqlWriter
	w.write("UPDATE ", table, " SET ")
	for i, kv := range set {
		if i > 0 {
			w.write(", ")
		}
		w.write(kv.Column, " = ", w.bind(kv.Value))
	}
	w.write(" WHERE ")
	w.conditions(where, op, And)
	return w.statement(), nil
}

// CheckUpdateBatch verifies that every row holds exactly UpdateKey plus the
// where columns. UpdateKey itself cannot be a where column: the row would
// carry one value for two roles.
func CheckUpdateBatch(whereColumns []string, rows []Pairs) error {
	if slices.Contains(whereColumns, UpdateKey) {
		return fmt.Errorf("%w: %q is reserved for the update value", ErrDuplicateColumn, UpdateKey)
	}
	return CheckBatch(append([]string{UpdateKey}, whereColumns...), rows)
}

// UpdateMultiple builds one UPDATE per row setting target to the row's
// UpdateKey value where every where column equals the row's value. The
// statements are meant to run together in one transaction. Each statement
// binds the update value first, then the where values in declared order.
func UpdateMultiple(table, target string, whereColumns []string, rows []Pairs) ([]Statement, error) {
	if err := ValidateIdentifier(table, "table"); err != nil {
		return nil, err
	}
	if err := ValidateIdentifier(target, "column"); err != nil {
		return nil, err
	}
	if len(whereColumns) == 0 {
		return nil, ErrUnfilteredUpdate
	}
	if err := validateUnique(whereColumns, "column"); err != nil {
		return nil, err
	}
	if err := CheckUpdateBatch(whereColumns, rows); err != nil {
		return nil, err
	}

	stmts := make([]Statement, 0, len(rows))
	for _, row := range rows {
		v, _ := row.Get(UpdateKey)
		where := make(Pairs, len(whereColumns))
		for i, col := range whereColumns {
			wv, _ := row.Get(col)
			where[i] = Pair{Column: col, Value: wv}
		}

		var w sqlWriter
		w.write("UPDATE ", table, " SET ", target, " = ", w.bind(v), " WHERE ")
		w.conditions(where, Eq, And)
		stmts = append(stmts, w.statement())
	}
	return stmts, nil
}

// Delete builds a DELETE whose conditions are all ANDed with "=".
// An empty where list deletes every row of the table.
func Delete(table string, where Pairs) (Statement, error) {
	if err := ValidateIdentifier(table, "table"); err != nil {
		return Statement{}, err
	}
	for _, kv := range where {
		if err := ValidateIdentifier(kv.Column, "column"); err != nil {
			return Statement{}, err
		}
	}

	var w sqlWriter
	w.write("DELETE FROM ", table)
	if len(where) > 0 {
		w.write(" WHERE ")
		w.conditions(where, Eq, And)
	}
	return w.statement(), nil
}

// Flatten returns every bind value of stmts in execution order.
func Flatten(stmts []Statement) []any {
	var args []any
	for _, s := range stmts {
		args = append(args, s.Args...)
	}
	return args
}

// Describe renders stmts for log output.
func Describe(stmts []Statement) string {
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.SQL
	}
	return fmt.Sprintf("%d statement(s): %s", len(stmts), strings.Join(parts, "; "))
}
