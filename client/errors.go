package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownServer is returned when no handle is registered under an alias.
	ErrUnknownServer = errors.New("unknown server alias")

	// ErrAttemptsExhausted is returned when every timed read attempt hit its deadline.
	ErrAttemptsExhausted = errors.New("query timed out on every attempt")
)

// ConnectError represents a failure to open a connection for an alias.
type ConnectError struct {
	Alias string
	Cause error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connection error for server %q: %v", e.Alias, e.Cause)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// ExecError represents a statement execution error.
type ExecError struct {
	Op    string
	Alias string
	Query string
	Cause error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s error on server %q: %v", e.Op, e.Alias, e.Cause)
}

func (e *ExecError) Unwrap() error {
	return e.Cause
}
