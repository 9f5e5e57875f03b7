package statement

import (
	"fmt"
	"strings"
)

// Operator compares a column against its bound value. One operator applies
// to every condition of a call.
type Operator string

// Supported clause operators.
const (
	Eq       Operator = "="
	NotEq    Operator = "<>"
	Lt       Operator = "<"
	Lte      Operator = "<="
	Gt       Operator = ">"
	Gte      Operator = ">="
	Like     Operator = "LIKE"
	NotLike  Operator = "NOT LIKE"
	ILike    Operator = "ILIKE"
	NotILike Operator = "NOT ILIKE"
)

var operators = map[string]Operator{
	"=":         Eq,
	"<>":        NotEq,
	"!=":        NotEq,
	"<":         Lt,
	"<=":        Lte,
	">":         Gt,
	">=":        Gte,
	"LIKE":      Like,
	"NOT LIKE":  NotLike,
	"ILIKE":     ILike,
	"NOT ILIKE": NotILike,
}

// ParseOperator normalises op. An empty operator means Eq.
func ParseOperator(op string) (Operator, error) {
	normalized := strings.Join(strings.Fields(strings.ToUpper(op)), " ")
	if normalized == "" {
		return Eq, nil
	}
	o, ok := operators[normalized]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, op)
	}
	return o, nil
}

// Join combines successive where conditions.
type Join string

// Supported join operators.
const (
	And Join = "AND"
	Or  Join = "OR"
)

// ParseJoin normalises j. An empty join means And.
func ParseJoin(j string) (Join, error) {
	switch strings.ToUpper(strings.TrimSpace(j)) {
	case "", "AND":
		return And, nil
	case "OR":
		return Or, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidJoin, j)
}

// Order is the direction of an ORDER BY clause.
type Order string

// Supported order types. NoOrder leaves the direction to the database.
const (
	NoOrder Order = ""
	Asc     Order = "ASC"
	Desc    Order = "DESC"
)

// ParseOrder normalises o.
func ParseOrder(o string) (Order, error) {
	switch strings.ToUpper(strings.TrimSpace(o)) {
	case "":
		return NoOrder, nil
	case "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrder, o)
}
