package statement

import (
	"fmt"
	"regexp"
	"strings"
)

const maxIdentifierLength = 128

var (
	identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)
	aggregateRegex  = regexp.MustCompile(`(?i)^(count|sum|avg|min|max)\(\s*(\*|[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?)\s*\)$`)
)

// ValidateIdentifier checks that id is a plain SQL identifier, optionally
// qualified as table.column.
func ValidateIdentifier(id, context string) error {
	if id == "" {
		return &ValidationError{Identifier: id, Context: context, Reason: "identifier cannot be empty"}
	}
	if len(id) > maxIdentifierLength {
		return &ValidationError{
			Identifier: id,
			Context:    context,
			Reason:     fmt.Sprintf("identifier exceeds maximum length of %d characters", maxIdentifierLength),
		}
	}
	if !identifierRegex.MatchString(id) {
		return &ValidationError{
			Identifier: id,
			Context:    context,
			Reason:     "only letters, numbers, underscores, and a single dot are allowed",
		}
	}
	return nil
}

// validateSelectColumn also accepts "*" and simple aggregates such as count(*).
func validateSelectColumn(col string) error {
	if col == "*" || aggregateRegex.MatchString(col) {
		return nil
	}
	return ValidateIdentifier(col, "column")
}

// validateColumnList validates a comma separated identifier list such as a
// GROUP BY expression and returns it normalised.
func validateColumnList(list, context string) (string, error) {
	parts := strings.Split(list, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if err := ValidateIdentifier(p, context); err != nil {
			return "", err
		}
		parts[i] = p
	}
	return strings.Join(parts, ", "), nil
}

func validateUnique(cols []string, context string) error {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if err := ValidateIdentifier(c, context); err != nil {
			return err
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
