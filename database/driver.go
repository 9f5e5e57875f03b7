package database

import (
	"context"

	"github.com/joacominatel/pgkv/statement"
)

// Cursor executes statements on a Connection and buffers their results.
// A Cursor is not safe for concurrent use.
type Cursor interface {
	// Execute runs one statement. Result rows, if any, are buffered until
	// the next Execute.
	Execute(ctx context.Context, sql string, args ...any) error

	// FetchAll returns the rows buffered by the last Execute.
	FetchAll() ([][]any, error)

	// Columns returns the result column names of the last Execute.
	Columns() []string

	// RowCount returns the number of rows affected by the last Execute.
	RowCount() int64

	// Close releases the cursor.
	Close() error
}

// BatchCursor is implemented by cursors that can send several statements
// in one round trip. RowCount then reports the total over the batch.
type BatchCursor interface {
	Cursor
	ExecuteBatch(ctx context.Context, stmts []statement.Statement) error
}

// Connection is one live database connection. Statements run inside an
// implicit transaction that Commit or Rollback ends.
type Connection interface {
	// Cursor returns a cursor bound to this connection.
	Cursor() Cursor

	// Commit makes the work done since the last Commit or Rollback permanent.
	Commit(ctx context.Context) error

	// Rollback discards the work done since the last Commit or Rollback.
	Rollback(ctx context.Context) error

	// Close closes the connection.
	Close(ctx context.Context) error
}

// Connector opens connections from connection parameters.
type Connector interface {
	Connect(ctx context.Context, params Params) (Connection, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, params Params) (Connection, error)

// Connect calls f(ctx, params).
func (f ConnectorFunc) Connect(ctx context.Context, params Params) (Connection, error) {
	return f(ctx, params)
}
