package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joacominatel/pgkv/client"
	"github.com/joacominatel/pgkv/internal/params"
	"github.com/joacominatel/pgkv/statement"
)

func (a *App) handleInsertMany(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("insert-many", flag.ContinueOnError)
	a.commonFlags(fs)
	table := fs.String("table", "", "table to insert into")
	columns := fs.String("columns", "", "comma separated columns every row must carry")
	input := fs.String("input", "-", "JSON lines file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "table", "columns"); err != nil {
		return err
	}
	cols := params.ParseColumns(*columns)
	rows, err := a.readRows(*input, cols)
	if err != nil {
		return err
	}

	c, _, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer a.closeClient(ctx, c)

	return a.report(c.InsertMultiple(ctx, *table, cols, rows, client.On(a.alias)))
}

func (a *App) handleUpdateMany(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update-many", flag.ContinueOnError)
	a.commonFlags(fs)
	table := fs.String("table", "", "table to update")
	target := fs.String("target", "", "column receiving each row's \""+statement.UpdateKey+"\" value")
	whereColumns := fs.String("where-columns", "", "comma separated columns identifying each row")
	input := fs.String("input", "-", "JSON lines file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "table", "target", "where-columns"); err != nil {
		return err
	}
	where := params.ParseColumns(*whereColumns)
	rows, err := a.readRows(*input, append([]string{statement.UpdateKey}, where...))
	if err != nil {
		return err
	}

	c, _, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer a.closeClient(ctx, c)

	return a.report(c.UpdateMultiple(ctx, *table, *target, where, rows, client.On(a.alias)))
}

// readRows decodes one JSON object per line. Each row lists the ordered
// columns first, followed by any extra keys so that validation can reject
// them.
func (a *App) readRows(path string, ordered []string) ([]statement.Pairs, error) {
	var r io.Reader = a.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	if r == nil {
		return nil, errors.New("no input")
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var rows []statement.Pairs
	for line := 1; ; line++ {
		var obj map[string]any
		if err := dec.Decode(&obj); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		row := make(statement.Pairs, 0, len(obj))
		for _, col := range ordered {
			if v, ok := obj[col]; ok {
				row = append(row, statement.Pair{Column: col, Value: jsonValue(v)})
				delete(obj, col)
			}
		}
		for col, v := range obj {
			row = append(row, statement.Pair{Column: col, Value: jsonValue(v)})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// jsonValue turns decoded numbers into int64 or float64.
func jsonValue(v any) any {
	if n, ok := v.(json.Number); ok {
		return params.ParseValue(n.String())
	}
	return v
}
