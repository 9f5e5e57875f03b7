package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joacominatel/pgkv/database"
	"github.com/joacominatel/pgkv/statement"
)

const (
	applicationName = "pgkv"
	cleanupTimeout  = 5 * time.Second
)

var errClosed = errors.New("connection closed")

// Connector opens PostgreSQL connections with pgx.
type Connector struct {
	appName string
}

// New creates a new PostgreSQL connector.
func New() *Connector {
	return &Connector{appName: applicationName}
}

// Connect establishes a single connection and checks it is alive.
func (c *Connector) Connect(ctx context.Context, params database.Params) (database.Connection, error) {
	cfg, err := pgx.ParseConfig(params.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if _, ok := cfg.RuntimeParams["application_name"]; !ok {
		cfg.RuntimeParams["application_name"] = c.appName
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Conn{conn: conn}, nil
}

// Conn implements database.Connection on one pgx connection. The first
// statement after a Commit or Rollback opens a transaction.
type Conn struct {
	conn *pgx.Conn
	tx   pgx.Tx
}

// Cursor returns a cursor bound to this connection.
func (c *Conn) Cursor() database.Cursor {
	return &Cursor{conn: c}
}

func (c *Conn) begin(ctx context.Context) (pgx.Tx, error) {
	if c.conn == nil {
		return nil, errClosed
	}
	if c.tx != nil {
		return c.tx, nil
	}
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	c.tx = tx
	return tx, nil
}

// abort rolls back after a failed statement. ctx may already be done, so a
// fresh one is used.
func (c *Conn) abort() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	_ = c.Rollback(ctx)
}

// Commit commits the open transaction, if any.
func (c *Conn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback rolls back the open transaction, if any.
func (c *Conn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Close rolls back any open transaction and closes the connection.
func (c *Conn) Close(ctx context.Context) error {
	if c.conn == nil {
		return nil
	}
	_ = c.Rollback(ctx)
	conn := c.conn
	c.conn = nil
	return conn.Close(ctx)
}

// Cursor implements database.BatchCursor.
type Cursor struct {
	conn     *Conn
	columns  []string
	rows     [][]any
	rowCount int64
}

func (c *Cursor) reset() {
	c.columns = nil
	c.rows = nil
	c.rowCount = -1
}

// Execute runs sql and buffers every result row.
func (c *Cursor) Execute(ctx context.Context, sql string, args ...any) error {
	c.reset()
	tx, err := c.conn.begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	// Without bind values the simple protocol runs the text as is, so one
	// call may hold several statements; rows come from the first.
	if len(args) == 0 {
		args = []any{pgx.QueryExecModeSimpleProtocol}
	}
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		c.conn.abort()
		return fmt.Errorf("execute: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var result [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			rows.Close()
			c.conn.abort()
			return fmt.Errorf("read row: %w", err)
		}
		result = append(result, values)
	}

	rows.Close()
	if err := rows.Err(); err != nil {
		c.conn.abort()
		return fmt.Errorf("rows: %w", err)
	}

	c.columns = columns
	c.rows = result
	c.rowCount = rows.CommandTag().RowsAffected()
	return nil
}

// ExecuteBatch sends stmts as one pgx batch inside the open transaction.
func (c *Cursor) ExecuteBatch(ctx context.Context, stmts []statement.Statement) error {
	c.reset()
	tx, err := c.conn.begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	batch := &pgx.Batch{}
	for _, s := range stmts {
		batch.Queue(s.SQL, s.Args...)
	}

	results := tx.SendBatch(ctx, batch)
	var total int64
	for i := range stmts {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			c.conn.abort()
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
		total += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		c.conn.abort()
		return fmt.Errorf("batch: %w", err)
	}

	c.rowCount = total
	return nil
}

// FetchAll returns the rows buffered by the last Execute.
func (c *Cursor) FetchAll() ([][]any, error) {
	if c.conn.conn == nil {
		return nil, errClosed
	}
	return c.rows, nil
}

// Columns returns the result column names of the last Execute.
func (c *Cursor) Columns() []string {
	return c.columns
}

// RowCount returns the rows affected by the last Execute, or -1.
func (c *Cursor) RowCount() int64 {
	return c.rowCount
}

// Close drops the buffered results. The connection stays open.
func (c *Cursor) Close() error {
	c.reset()
	return nil
}

var (
	_ database.Connector   = (*Connector)(nil)
	_ database.Connection  = (*Conn)(nil)
	_ database.BatchCursor = (*Cursor)(nil)
)
