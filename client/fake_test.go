package client

import (
	"context"
	"errors"
	"sync"

	"github.com/joacominatel/pgkv/database"
	"github.com/joacominatel/pgkv/statement"
)

var errFakeClosed = errors.New("fake: connection closed")

// fakeServer is an in-memory database.Connector. Every connection it hands
// out shares the server's script and records.
type fakeServer struct {
	mu sync.Mutex

	// exec decides the outcome of the n-th Execute (0-based) over all
	// connections. nil means every statement succeeds.
	exec       func(ctx context.Context, n int) error
	connectErr error
	// connect, when set, runs before the n-th Connect (0-based) and may
	// block; a non-nil error fails that connection.
	connect func(ctx context.Context, n int) error
	batch   bool

	rows     [][]any
	columns  []string
	rowCount int64

	connects  int
	conns     []*fakeConn
	executed  []statement.Statement
	ctxs      []context.Context
	batches   int
	commits   int
	rollbacks int
}

func (s *fakeServer) Connect(ctx context.Context, _ database.Params) (database.Connection, error) {
	s.mu.Lock()
	n := s.connects
	s.connects++
	hook := s.connect
	s.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, n); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connectErr != nil {
		return nil, s.connectErr
	}
	c := &fakeConn{srv: s}
	s.conns = append(s.conns, c)
	return c, nil
}

func (s *fakeServer) executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.executed)
}

type fakeConn struct {
	srv    *fakeServer
	closed bool
}

func (c *fakeConn) Cursor() database.Cursor {
	cur := &fakeCursor{conn: c}
	if c.srv.batch {
		return &fakeBatchCursor{cur}
	}
	return cur
}

func (c *fakeConn) Commit(context.Context) error {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	c.srv.commits++
	return nil
}

func (c *fakeConn) Rollback(context.Context) error {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	c.srv.rollbacks++
	return nil
}

func (c *fakeConn) Close(context.Context) error {
	c.closed = true
	return nil
}

type fakeCursor struct {
	conn     *fakeConn
	rows     [][]any
	columns  []string
	rowCount int64
}

func (c *fakeCursor) Execute(ctx context.Context, sql string, args ...any) error {
	s := c.conn.srv
	s.mu.Lock()
	n := len(s.executed)
	s.executed = append(s.executed, statement.Statement{SQL: sql, Args: args})
	s.ctxs = append(s.ctxs, ctx)
	exec := s.exec
	s.mu.Unlock()

	if c.conn.closed {
		return errFakeClosed
	}
	if exec != nil {
		if err := exec(ctx, n); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c.rows, c.columns, c.rowCount = s.rows, s.columns, s.rowCount
	return nil
}

func (c *fakeCursor) FetchAll() ([][]any, error) { return c.rows, nil }
func (c *fakeCursor) Columns() []string          { return c.columns }
func (c *fakeCursor) RowCount() int64            { return c.rowCount }
func (c *fakeCursor) Close() error               { return nil }

type fakeBatchCursor struct {
	*fakeCursor
}

func (c *fakeBatchCursor) ExecuteBatch(ctx context.Context, stmts []statement.Statement) error {
	c.conn.srv.mu.Lock()
	c.conn.srv.batches++
	c.conn.srv.mu.Unlock()

	var total int64
	for _, s := range stmts {
		if err := c.Execute(ctx, s.SQL, s.Args...); err != nil {
			return err
		}
		total += c.rowCount
	}
	c.rowCount = total
	return nil
}

// blockUntilDeadline makes the listed executions wait for their context.
func blockUntilDeadline(calls ...int) func(context.Context, int) error {
	return func(ctx context.Context, n int) error {
		for _, c := range calls {
			if c == n {
				<-ctx.Done()
				return ctx.Err()
			}
		}
		return nil
	}
}

func failWith(err error, calls ...int) func(context.Context, int) error {
	return func(_ context.Context, n int) error {
		if len(calls) == 0 {
			return err
		}
		for _, c := range calls {
			if c == n {
				return err
			}
		}
		return nil
	}
}

// hangAfterFirst lets the first connection through and makes every later
// one wait for its context to end.
func hangAfterFirst(ctx context.Context, n int) error {
	if n == 0 {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}
