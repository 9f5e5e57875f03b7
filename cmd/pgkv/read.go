package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/pgkv/client"
	"github.com/joacominatel/pgkv/internal/params"
	"github.com/joacominatel/pgkv/internal/tui"
	"github.com/joacominatel/pgkv/statement"
)

func (a *App) handleRead(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("read", flag.ContinueOnError)
	a.commonFlags(fs)
	table := fs.String("table", "", "table to read")
	columns := fs.String("columns", "", "comma separated columns (default *)")
	where := fs.String("where", "", "filter, e.g. id=3,name='Green apple'")
	limit := fs.Int("limit", 0, "row limit for filtered reads")
	orderBy := fs.String("order-by", "", "column to sort by")
	order := fs.String("order", "", "ASC or DESC")
	groupBy := fs.String("group-by", "", "column to group by")
	clause := fs.String("clause", "=", "comparison operator for every filter column")
	join := fs.String("join", "AND", "AND or OR between filter columns")
	timeout := fs.Duration("timeout", 0, "deadline per attempt (default from server config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "table"); err != nil {
		return err
	}

	q := statement.Query{
		Columns: params.ParseColumns(*columns),
		Limit:   *limit,
		OrderBy: *orderBy,
		GroupBy: *groupBy,
	}
	var err error
	if q.Where, err = params.ParsePairs(*where); err != nil {
		return fmt.Errorf("-where: %w", err)
	}
	if q.Clause, err = statement.ParseOperator(*clause); err != nil {
		return err
	}
	if q.Join, err = statement.ParseJoin(*join); err != nil {
		return err
	}
	if q.OrderType, err = statement.ParseOrder(*order); err != nil {
		return err
	}

	c, server, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer a.closeClient(ctx, c)

	rows := c.Read(ctx, *table, q, a.callOptions(server.Timeout, *timeout)...)
	return a.printRows(rows)
}

func (a *App) handleRaw(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("raw", flag.ContinueOnError)
	a.commonFlags(fs)
	sql := fs.String("sql", "", "SQL text with $1, $2... placeholders")
	rawArgs := fs.String("args", "", "comma separated bind values")
	exec := fs.Bool("exec", false, "run as a write and commit")
	count := fs.Bool("count", false, "run as an update and print the affected row count")
	timeout := fs.Duration("timeout", 0, "deadline per read attempt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "sql"); err != nil {
		return err
	}
	if *exec && *count {
		return errors.New("-exec and -count are mutually exclusive")
	}
	bind, err := params.ParseList(*rawArgs)
	if err != nil {
		return fmt.Errorf("-args: %w", err)
	}

	c, server, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer a.closeClient(ctx, c)

	switch {
	case *exec:
		return a.report(c.WriteRaw(ctx, *sql, bind, client.On(a.alias)))
	case *count:
		return a.report(c.UpdateRaw(ctx, *sql, bind, client.On(a.alias)))
	}
	return a.printRows(c.ReadRawRows(ctx, *sql, bind, a.callOptions(server.Timeout, *timeout)...))
}

func (a *App) handleBrowse(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	a.commonFlags(fs)
	table := fs.String("table", "", "table to browse")
	columns := fs.String("columns", "", "comma separated columns (default *)")
	limit := fs.Int("limit", 200, "row limit for filtered reads")
	timeout := fs.Duration("timeout", 0, "deadline per read attempt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "table"); err != nil {
		return err
	}

	a.quiet = true
	c, server, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer a.closeClient(ctx, c)

	d := *timeout
	if d == 0 {
		d = server.Timeout
	}
	return tui.Run(c, tui.Options{
		Alias:   server.Alias,
		Table:   *table,
		Columns: params.ParseColumns(*columns),
		Limit:   *limit,
		Timeout: d,
	}, tea.WithAltScreen())
}

// callOptions targets the selected server with the flag timeout, falling
// back to the server's configured timeout.
func (a *App) callOptions(serverTimeout, flagTimeout time.Duration) []client.CallOption {
	opts := []client.CallOption{client.On(a.alias)}
	d := flagTimeout
	if d == 0 {
		d = serverTimeout
	}
	if d > 0 {
		opts = append(opts, client.Timeout(d))
	}
	return opts
}

// printRows writes one JSON object per row.
func (a *App) printRows(rows []statement.Row) error {
	enc := json.NewEncoder(a.stdout)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}
