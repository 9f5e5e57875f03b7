package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/joacominatel/pgkv/database"
	"github.com/joacominatel/pgkv/internal/config"
	"github.com/joacominatel/pgkv/statement"
	"github.com/zalando/go-keyring"
)

type execCall struct {
	sql  string
	args []any
}

// memServer records statements and answers every query with rows.
type memServer struct {
	calls    []execCall
	commits  int
	rows     [][]any
	columns  []string
	params   database.Params
	execErr  error
	affected int64
}

func (s *memServer) Connect(_ context.Context, p database.Params) (database.Connection, error) {
	s.params = p
	return &memConn{s: s}, nil
}

type memConn struct{ s *memServer }

func (c *memConn) Cursor() database.Cursor        { return &memCursor{s: c.s} }
func (c *memConn) Commit(context.Context) error   { c.s.commits++; return nil }
func (c *memConn) Rollback(context.Context) error { return nil }
func (c *memConn) Close(context.Context) error    { return nil }

type memCursor struct{ s *memServer }

func (c *memCursor) Execute(_ context.Context, sql string, args ...any) error {
	c.s.calls = append(c.s.calls, execCall{sql: sql, args: args})
	return c.s.execErr
}

func (c *memCursor) FetchAll() ([][]any, error) { return c.s.rows, nil }
func (c *memCursor) Columns() []string          { return c.s.columns }
func (c *memCursor) RowCount() int64            { return c.s.affected }
func (c *memCursor) Close() error               { return nil }

func (c *memCursor) ExecuteBatch(ctx context.Context, stmts []statement.Statement) error {
	for _, st := range stmts {
		if err := c.Execute(ctx, st.SQL, st.Args...); err != nil {
			return err
		}
	}
	return nil
}

const testConfig = `
preferences:
  default_server: main
servers:
  - alias: main
    dbname: shop
    user: app
    host: localhost
`

func newTestApp(t *testing.T, srv *memServer) (*App, *bytes.Buffer, *bytes.Buffer, string) {
	t.Helper()
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer
	return NewApp(srv, &stdout, &stderr), &stdout, &stderr, path
}

func TestWrite(t *testing.T) {
	srv := &memServer{affected: 1}
	app, stdout, stderr, path := newTestApp(t, srv)

	code := app.Run(context.Background(), []string{"write", "-config", path, "-table", "fruit", "-set", "id=3,name='Green apple'"})
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if len(srv.calls) != 1 {
		t.Fatalf("got %d statements", len(srv.calls))
	}
	if want := "INSERT INTO fruit (id, name) VALUES ($1, $2)"; srv.calls[0].sql != want {
		t.Errorf("sql %q, want %q", srv.calls[0].sql, want)
	}
	if srv.commits != 1 {
		t.Errorf("commits %d, want 1", srv.commits)
	}
	if got := strings.TrimSpace(stdout.String()); got != "ok 1" {
		t.Errorf("stdout %q", got)
	}
	if srv.params.DBName != "shop" || srv.params.Host != "localhost" {
		t.Errorf("connected with %+v", srv.params)
	}
}

func TestWriteFailure(t *testing.T) {
	srv := &memServer{execErr: errors.New("duplicate key")}
	app, _, stderr, path := newTestApp(t, srv)

	code := app.Run(context.Background(), []string{"write", "-config", path, "-table", "fruit", "-set", "id=3"})
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "duplicate key") {
		t.Errorf("stderr %q", stderr)
	}
}

func TestReadPrintsJSONLines(t *testing.T) {
	srv := &memServer{
		rows:    [][]any{{int64(1), "apple"}, {int64(2), nil}},
		columns: []string{"id", "name"},
	}
	app, stdout, stderr, path := newTestApp(t, srv)

	code := app.Run(context.Background(), []string{"read", "-config", path, "-table", "fruit", "-where", "name=apple", "-limit", "5"})
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	want := "{\"id\":1,\"name\":\"apple\"}\n{\"id\":2,\"name\":null}\n"
	if stdout.String() != want {
		t.Errorf("stdout %q, want %q", stdout.String(), want)
	}
	if got := srv.calls[0].sql; got != "SELECT * FROM fruit WHERE name = $1 LIMIT 5" {
		t.Errorf("sql %q", got)
	}
}

func TestReadBadOperator(t *testing.T) {
	srv := &memServer{}
	app, _, _, path := newTestApp(t, srv)

	code := app.Run(context.Background(), []string{"read", "-config", path, "-table", "fruit", "-clause", "~~"})
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if len(srv.calls) != 0 {
		t.Error("statement ran despite a bad operator")
	}
}

func TestDeleteNeedsAll(t *testing.T) {
	srv := &memServer{}
	app, _, stderr, path := newTestApp(t, srv)

	if code := app.Run(context.Background(), []string{"delete", "-config", path, "-table", "fruit"}); code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "-all") {
		t.Errorf("stderr %q", stderr)
	}
	if len(srv.calls) != 0 {
		t.Fatal("delete ran without -all")
	}

	if code := app.Run(context.Background(), []string{"delete", "-config", path, "-table", "fruit", "-all"}); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if got := srv.calls[0].sql; got != "DELETE FROM fruit" {
		t.Errorf("sql %q", got)
	}
}

func TestRawCount(t *testing.T) {
	srv := &memServer{affected: 4}
	app, stdout, stderr, path := newTestApp(t, srv)

	code := app.Run(context.Background(), []string{"raw", "-config", path, "-sql", "UPDATE fruit SET price = $1", "-args", "2.5", "-count"})
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if got := strings.TrimSpace(stdout.String()); got != "ok 4" {
		t.Errorf("stdout %q", got)
	}
	if args := srv.calls[0].args; len(args) != 1 || args[0] != 2.5 {
		t.Errorf("args %v", args)
	}
}

func TestUnknownServer(t *testing.T) {
	srv := &memServer{}
	app, _, stderr, path := newTestApp(t, srv)

	code := app.Run(context.Background(), []string{"write", "-config", path, "-server", "nope", "-table", "fruit", "-set", "id=1"})
	if code != 1 || !strings.Contains(stderr.String(), `unknown server "nope"`) {
		t.Errorf("exit %d, stderr %q", code, stderr)
	}
}

func TestAddAndList(t *testing.T) {
	srv := &memServer{}
	app, stdout, stderr, path := newTestApp(t, srv)

	code := app.Run(context.Background(), []string{"add", "-config", path, "-alias", "replica", "-dbname", "shop", "-user", "reader", "-password", "s3cret", "-connect-timeout", "4s", "-default"})
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	replica, ok := cfg.Server("replica")
	if !ok {
		t.Fatal("replica not saved")
	}
	if replica.ConnectTimeout != 4*time.Second {
		t.Errorf("connect timeout %v", replica.ConnectTimeout)
	}
	if replica.Password != "" {
		t.Error("password written to the config file")
	}
	if pw, _ := keyring.Get("pgkv", "replica/reader"); pw != "s3cret" {
		t.Errorf("keyring password %q", pw)
	}
	if cfg.DefaultServer() != "replica" {
		t.Errorf("default server %q", cfg.DefaultServer())
	}

	stdout.Reset()
	app = NewApp(srv, stdout, stderr)
	if code := app.Run(context.Background(), []string{"servers", "-config", path}); code != 0 {
		t.Fatalf("exit %d", code)
	}
	out := stdout.String()
	if !strings.Contains(out, "  main") || !strings.Contains(out, "* replica") {
		t.Errorf("servers output %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	app, _, stderr, _ := newTestApp(t, &memServer{})
	if code := app.Run(context.Background(), []string{"frobnicate"}); code != 2 {
		t.Errorf("exit %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "Usage") {
		t.Error("usage not printed")
	}
}

func TestInsertMany(t *testing.T) {
	srv := &memServer{affected: 2}
	app, stdout, stderr, path := newTestApp(t, srv)
	app.stdin = strings.NewReader("{\"name\":\"apple\",\"id\":1}\n{\"id\":2,\"name\":\"pear\"}\n")

	code := app.Run(context.Background(), []string{"insert-many", "-config", path, "-table", "fruit", "-columns", "id,name"})
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if got := srv.calls[0].sql; got != "INSERT INTO fruit (id, name) VALUES ($1, $2), ($3, $4)" {
		t.Errorf("sql %q", got)
	}
	want := []any{int64(1), "apple", int64(2), "pear"}
	if got := srv.calls[0].args; !reflect.DeepEqual(got, want) {
		t.Errorf("args %#v, want %#v", got, want)
	}
	if got := strings.TrimSpace(stdout.String()); got != "ok 2" {
		t.Errorf("stdout %q", got)
	}
}

func TestInsertManyRejectsRaggedRows(t *testing.T) {
	srv := &memServer{}
	app, _, _, path := newTestApp(t, srv)
	app.stdin = strings.NewReader("{\"id\":1,\"name\":\"apple\"}\n{\"id\":2}\n")

	code := app.Run(context.Background(), []string{"insert-many", "-config", path, "-table", "fruit", "-columns", "id,name"})
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if len(srv.calls) != 0 {
		t.Error("statement ran for an invalid batch")
	}
}

func TestUpdateMany(t *testing.T) {
	srv := &memServer{affected: 1}
	app, _, stderr, path := newTestApp(t, srv)
	app.stdin = strings.NewReader("{\"id\":1,\"update\":2.5}\n{\"update\":3,\"id\":2}\n")

	code := app.Run(context.Background(), []string{"update-many", "-config", path, "-table", "fruit", "-target", "price", "-where-columns", "id"})
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if len(srv.calls) != 2 {
		t.Fatalf("got %d statements, want 2", len(srv.calls))
	}
	for i, want := range [][]any{{2.5, int64(1)}, {int64(3), int64(2)}} {
		if srv.calls[i].sql != "UPDATE fruit SET price = $1 WHERE id = $2" {
			t.Errorf("sql %q", srv.calls[i].sql)
		}
		if !reflect.DeepEqual(srv.calls[i].args, want) {
			t.Errorf("args %#v, want %#v", srv.calls[i].args, want)
		}
	}
	if srv.commits != 1 {
		t.Errorf("commits %d, want 1", srv.commits)
	}
}
