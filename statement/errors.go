package statement

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the builders.
// These errors can be checked using errors.Is().
var (
	// ErrInvalidIdentifier is returned when a table or column name contains invalid characters.
	ErrInvalidIdentifier = errors.New("statement: invalid SQL identifier")

	// ErrInvalidOperator is returned when an unsupported clause operator is used.
	ErrInvalidOperator = errors.New("statement: invalid clause operator")

	// ErrInvalidJoin is returned when the join operator is neither AND nor OR.
	ErrInvalidJoin = errors.New("statement: invalid join operator")

	// ErrInvalidOrder is returned when the order type is neither ASC nor DESC.
	ErrInvalidOrder = errors.New("statement: invalid order type")

	// ErrNoColumns is returned when an insert/update has no columns.
	ErrNoColumns = errors.New("statement: no columns specified")

	// ErrUnfilteredUpdate is returned when an update has no where conditions.
	ErrUnfilteredUpdate = errors.New("statement: update without where conditions")

	// ErrEmptyBatch is returned when a multi-row statement receives no rows.
	ErrEmptyBatch = errors.New("statement: empty row batch")

	// ErrDimension is returned when a batch row has the wrong number of columns.
	ErrDimension = errors.New("statement: row doesn't match the dimensions")

	// ErrMissingColumn is returned when a batch row lacks a declared column.
	ErrMissingColumn = errors.New("statement: column isn't present in row")

	// ErrDuplicateColumn is returned when a column appears twice in one list.
	ErrDuplicateColumn = errors.New("statement: duplicate column")
)

// ValidationError represents an identifier validation error.
type ValidationError struct {
	Identifier string
	Context    string
	Reason     string
}

func (e *ValidationError) Error() string {
	return "statement: invalid " + e.Context + " '" + e.Identifier + "': " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// BatchError reports which row of a batch failed validation.
type BatchError struct {
	Row    int
	Column string
	Err    error
}

func (e *BatchError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%v: row %d, column %q", e.Err, e.Row, e.Column)
	}
	return fmt.Sprintf("%v: row %d", e.Err, e.Row)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
