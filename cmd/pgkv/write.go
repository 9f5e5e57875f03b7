package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/joacominatel/pgkv/client"
	"github.com/joacominatel/pgkv/internal/params"
	"github.com/joacominatel/pgkv/statement"
)

func (a *App) handleWrite(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("write", flag.ContinueOnError)
	a.commonFlags(fs)
	table := fs.String("table", "", "table to insert into")
	set := fs.String("set", "", "values, e.g. id=3,name='Green apple'")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "table", "set"); err != nil {
		return err
	}
	values, err := params.ParsePairs(*set)
	if err != nil {
		return fmt.Errorf("-set: %w", err)
	}

	c, _, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer a.closeClient(ctx, c)

	return a.report(c.Write(ctx, *table, values, client.On(a.alias)))
}

func (a *App) handleUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	a.commonFlags(fs)
	table := fs.String("table", "", "table to update")
	set := fs.String("set", "", "new values, e.g. price=2.5")
	where := fs.String("where", "", "filter, e.g. id=3")
	clause := fs.String("clause", "=", "comparison operator for every filter column")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "table", "set"); err != nil {
		return err
	}
	setPairs, err := params.ParsePairs(*set)
	if err != nil {
		return fmt.Errorf("-set: %w", err)
	}
	wherePairs, err := params.ParsePairs(*where)
	if err != nil {
		return fmt.Errorf("-where: %w", err)
	}
	op, err := statement.ParseOperator(*clause)
	if err != nil {
		return err
	}

	c, _, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer a.closeClient(ctx, c)

	return a.report(c.Update(ctx, *table, setPairs, wherePairs, op, client.On(a.alias)))
}

func (a *App) handleDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	a.commonFlags(fs)
	table := fs.String("table", "", "table to delete from")
	where := fs.String("where", "", "filter, e.g. id=3")
	all := fs.Bool("all", false, "allow deleting every row when -where is empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "table"); err != nil {
		return err
	}
	wherePairs, err := params.ParsePairs(*where)
	if err != nil {
		return fmt.Errorf("-where: %w", err)
	}
	if len(wherePairs) == 0 && !*all {
		return errors.New("refusing to delete every row without -all")
	}

	c, _, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer a.closeClient(ctx, c)

	return a.report(c.Delete(ctx, *table, wherePairs, client.On(a.alias)))
}
