package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joacominatel/pgkv/database"
	"github.com/joacominatel/pgkv/statement"
)

// DefaultServer is the alias used when a call does not name one.
const DefaultServer = "default"

const (
	defaultAttempts  = 3
	reconnectTimeout = 30 * time.Second
)

// Client builds statements, runs them against the handles of a Registry
// and converts every failure into a Result or an empty read.
//
// Writes are committed on success. On failure the alias is reconnected so
// that later calls get a working handle; the failed write is not retried.
// Reads are never reconnected on ordinary failure. A read with a Timeout is
// retried up to the configured number of attempts when it hits its
// deadline, with a reconnect before each retry.
type Client struct {
	registry *Registry
	logger   *slog.Logger
	debug    bool
	attempts int
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithDebug logs every statement with its values interpolated. The
// interpolated text is for reading only; the placeholder form is what runs.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithMaxAttempts sets how many times a timed read is attempted.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// New creates a Client on top of registry.
func New(registry *Registry, opts ...Option) *Client {
	c := &Client{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		attempts: defaultAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callConfig struct {
	alias   string
	timeout time.Duration
}

// CallOption configures a single call.
type CallOption func(*callConfig)

// On runs the call against the server registered under alias.
func On(alias string) CallOption {
	return func(cc *callConfig) {
		cc.alias = alias
	}
}

// Timeout bounds each attempt of a read. Writes ignore it.
func Timeout(d time.Duration) CallOption {
	return func(cc *callConfig) {
		cc.timeout = d
	}
}

func newCallConfig(opts []CallOption) callConfig {
	cc := callConfig{alias: DefaultServer}
	for _, opt := range opts {
		opt(&cc)
	}
	return cc
}

// Registry returns the registry the client runs against.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Register connects to a server and registers it under alias.
func (c *Client) Register(ctx context.Context, alias string, params database.Params) (*Handle, error) {
	return c.registry.Register(ctx, alias, params)
}

// Close closes the connection registered under alias.
func (c *Client) Close(ctx context.Context, alias string) error {
	return c.registry.Close(ctx, alias)
}

// CloseAll closes every registered connection.
func (c *Client) CloseAll(ctx context.Context) error {
	return c.registry.CloseAll(ctx)
}

// Write inserts one row.
func (c *Client) Write(ctx context.Context, table string, values statement.Pairs, opts ...CallOption) Result {
	cc := newCallConfig(opts)
	stmt, err := statement.Insert(table, values)
	if err != nil {
		return c.reject("write", cc.alias, err)
	}
	return c.exec(ctx, "write", cc.alias, stmt, slog.LevelInfo)
}

// InsertMultiple inserts rows in one statement. Every row must hold exactly
// columns; otherwise nothing runs and the Result is StatusInvalid.
func (c *Client) InsertMultiple(ctx context.Context, table string, columns []string, rows []statement.Pairs, opts ...CallOption) Result {
	cc := newCallConfig(opts)
	stmt, err := statement.InsertMultiple(table, columns, rows)
	if err != nil {
		return c.reject("insert_multiple", cc.alias, err)
	}
	return c.exec(ctx, "insert_multiple", cc.alias, stmt, slog.LevelError)
}

// Update sets the columns of set on rows matching every condition of
// where, compared with clause.
func (c *Client) Update(ctx context.Context, table string, set, where statement.Pairs, clause statement.Operator, opts ...CallOption) Result {
	cc := newCallConfig(opts)
	stmt, err := statement.Update(table, set, where, clause)
	if err != nil {
		return c.reject("update", cc.alias, err)
	}
	return c.exec(ctx, "update", cc.alias, stmt, slog.LevelWarn)
}

// UpdateMultiple sets target on one row per entry of rows. Each row holds
// statement.UpdateKey with the new value plus one value per where column.
// All updates commit together or not at all.
func (c *Client) UpdateMultiple(ctx context.Context, table, target string, whereColumns []string, rows []statement.Pairs, opts ...CallOption) Result {
	cc := newCallConfig(opts)
	stmts, err := statement.UpdateMultiple(table, target, whereColumns, rows)
	if err != nil {
		return c.reject("update_multiple", cc.alias, err)
	}

	for _, s := range stmts {
		c.logStatement("update_multiple", cc.alias, s)
	}
	h, err := c.connectWithin(ctx, cc, c.registry.acquire)
	if err != nil {
		return c.unavailable("update_multiple", cc.alias, err)
	}

	n, err := executeBatch(ctx, h.Cursor(), stmts)
	if err == nil {
		err = h.Connection().Commit(ctx)
	}
	if err != nil {
		return c.fail(ctx, "update_multiple", cc.alias, statement.Describe(stmts), err, slog.LevelWarn)
	}
	return succeeded(n)
}

// Delete removes rows matching every condition of where. An empty where
// removes every row of the table.
func (c *Client) Delete(ctx context.Context, table string, where statement.Pairs, opts ...CallOption) Result {
	cc := newCallConfig(opts)
	stmt, err := statement.Delete(table, where)
	if err != nil {
		return c.reject("delete", cc.alias, err)
	}
	if len(where) == 0 {
		c.logger.Warn("deleting every row", "server", cc.alias, "table", table)
	}
	return c.exec(ctx, "delete", cc.alias, stmt, slog.LevelWarn)
}

// WriteRaw runs sql with args and commits.
func (c *Client) WriteRaw(ctx context.Context, sql string, args []any, opts ...CallOption) Result {
	cc := newCallConfig(opts)
	return c.exec(ctx, "write_raw", cc.alias, statement.Statement{SQL: sql, Args: args}, slog.LevelWarn)
}

// UpdateRaw runs sql with args and commits. RowsAffected holds the number
// of rows changed, or -1 on failure.
func (c *Client) UpdateRaw(ctx context.Context, sql string, args []any, opts ...CallOption) Result {
	cc := newCallConfig(opts)
	return c.exec(ctx, "update_raw", cc.alias, statement.Statement{SQL: sql, Args: args}, slog.LevelWarn)
}

// Read runs a SELECT built from q and pairs each row with its column
// names. Any failure yields an empty, non-nil slice.
func (c *Client) Read(ctx context.Context, table string, q statement.Query, opts ...CallOption) []statement.Row {
	cc := newCallConfig(opts)
	stmt, err := statement.Select(table, q)
	if err != nil {
		c.reject("read", cc.alias, err)
		return []statement.Row{}
	}

	rows, columns, err := c.query(ctx, "read", cc, stmt)
	if err != nil {
		return []statement.Row{}
	}
	if len(q.Columns) > 0 && !slices.Contains(q.Columns, "*") {
		columns = q.Columns
	}
	return statement.Prepare(rows, columns)
}

// ReadRaw runs sql with args and returns the raw rows. Any failure yields
// an empty, non-nil slice.
func (c *Client) ReadRaw(ctx context.Context, sql string, args []any, opts ...CallOption) [][]any {
	cc := newCallConfig(opts)
	rows, _, err := c.query(ctx, "read_raw", cc, statement.Statement{SQL: sql, Args: args})
	if err != nil || rows == nil {
		return [][]any{}
	}
	return rows
}

// ReadRawRows is ReadRaw with each row paired with the result column names.
func (c *Client) ReadRawRows(ctx context.Context, sql string, args []any, opts ...CallOption) []statement.Row {
	cc := newCallConfig(opts)
	rows, columns, err := c.query(ctx, "read_raw", cc, statement.Statement{SQL: sql, Args: args})
	if err != nil {
		return []statement.Row{}
	}
	return statement.Prepare(rows, columns)
}

func (c *Client) logStatement(op, alias string, stmt statement.Statement) {
	if !c.debug {
		return
	}
	c.logger.Debug("statement", "op", op, "server", alias, "sql", stmt.Interpolate())
}

func (c *Client) reject(op, alias string, err error) Result {
	c.logger.Error("error in parameters passed", "op", op, "server", alias, "error", err)
	return invalid(err)
}

func (c *Client) unavailable(op, alias string, err error) Result {
	c.logger.Warn("server unavailable", "op", op, "server", alias, "error", err)
	return failed(&ExecError{Op: op, Alias: alias, Cause: err})
}

// exec runs a write and commits it. level is the severity used to log a
// failure.
func (c *Client) exec(ctx context.Context, op, alias string, stmt statement.Statement, level slog.Level) Result {
	c.logStatement(op, alias, stmt)
	h, err := c.connectWithin(ctx, callConfig{alias: alias}, c.registry.acquire)
	if err != nil {
		return c.unavailable(op, alias, err)
	}

	cur := h.Cursor()
	err = cur.Execute(ctx, stmt.SQL, stmt.Args...)
	if err == nil {
		n := cur.RowCount()
		if err = h.Connection().Commit(ctx); err == nil {
			return succeeded(n)
		}
	}
	return c.fail(ctx, op, alias, stmt.SQL, err, level)
}

// fail logs a write failure and replaces the alias's handle.
func (c *Client) fail(ctx context.Context, op, alias, query string, cause error, level slog.Level) Result {
	c.logger.Log(ctx, level, "db cursor "+op+" error", "server", alias, "error", cause)

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reconnectTimeout)
	defer cancel()
	if _, err := c.registry.Reconnect(rctx, alias); err != nil {
		c.logger.Error("could not replace connection", "server", alias, "error", err)
	}
	return failed(&ExecError{Op: op, Alias: alias, Query: query, Cause: cause})
}

func executeBatch(ctx context.Context, cur database.Cursor, stmts []statement.Statement) (int64, error) {
	if bc, ok := cur.(database.BatchCursor); ok {
		if err := bc.ExecuteBatch(ctx, stmts); err != nil {
			return 0, err
		}
		return bc.RowCount(), nil
	}

	var total int64
	for _, s := range stmts {
		if err := cur.Execute(ctx, s.SQL, s.Args...); err != nil {
			return 0, err
		}
		total += cur.RowCount()
	}
	return total, nil
}

// query runs a read. Without a timeout it makes a single attempt. With one,
// each attempt gets its own deadline, and a deadline expiry reconnects the
// alias and tries again until the attempts run out. Any other error ends
// the loop at once.
func (c *Client) query(ctx context.Context, op string, cc callConfig, stmt statement.Statement) ([][]any, []string, error) {
	c.logStatement(op, cc.alias, stmt)
	h, err := c.connectWithin(ctx, cc, c.registry.acquire)
	if err != nil {
		c.logger.Warn("server unavailable", "op", op, "server", cc.alias, "error", err)
		return nil, nil, err
	}

	if cc.timeout <= 0 {
		rows, columns, err := fetch(ctx, h, stmt)
		if err != nil {
			c.logger.Warn("db cursor read error", "op", op, "server", cc.alias, "error", err)
			return nil, nil, err
		}
		return rows, columns, nil
	}

	for attempt := 1; attempt <= c.attempts; attempt++ {
		rows, columns, err := fetchWithin(ctx, h, stmt, cc.timeout)
		if err == nil {
			return rows, columns, nil
		}
		if !isTimeout(err) || ctx.Err() != nil {
			c.logger.Error("database error", "op", op, "server", cc.alias, "error", err)
			return nil, nil, err
		}

		c.logger.Error("query timed out", "op", op, "server", cc.alias,
			"attempt", attempt, "timeout", cc.timeout, "error", err)
		c.logger.Warn("making new connection", "server", cc.alias)
		if h, err = c.connectWithin(ctx, cc, c.registry.Reconnect); err != nil {
			return nil, nil, err
		}
	}

	c.logger.Error("giving up", "op", op, "server", cc.alias, "attempts", c.attempts, "error", ErrAttemptsExhausted)
	return nil, nil, ErrAttemptsExhausted
}

// connectWithin obtains a handle for cc.alias. A timed read gives the
// connection the same deadline as one attempt; otherwise reconnectTimeout
// applies.
func (c *Client) connectWithin(ctx context.Context, cc callConfig, connect func(context.Context, string) (*Handle, error)) (*Handle, error) {
	d := reconnectTimeout
	if cc.timeout > 0 {
		d = min(cc.timeout, reconnectTimeout)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return connect(ctx, cc.alias)
}

// fetchWithin runs one attempt under its own deadline. The deadline is
// released on every return path.
func fetchWithin(ctx context.Context, h *Handle, stmt statement.Statement, d time.Duration) ([][]any, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fetch(ctx, h, stmt)
}

func fetch(ctx context.Context, h *Handle, stmt statement.Statement) ([][]any, []string, error) {
	cur := h.Cursor()
	if err := cur.Execute(ctx, stmt.SQL, stmt.Args...); err != nil {
		return nil, nil, err
	}
	rows, err := cur.FetchAll()
	columns := cur.Columns()
	// Reads leave nothing to keep; end the implicit transaction.
	_ = h.Connection().Rollback(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rows, columns, nil
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)
}
