package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/joacominatel/pgkv/internal/config"
	"github.com/joacominatel/pgkv/internal/secret"
)

func (a *App) handleServers(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("servers", flag.ContinueOnError)
	a.commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a.setup()

	if len(a.cfg.Servers) == 0 {
		fmt.Fprintln(a.stdout, "No servers saved. Use 'pgkv add' first.")
		return nil
	}
	def := a.cfg.DefaultServer()
	for _, s := range a.cfg.Servers {
		marker := " "
		if s.Alias == def {
			marker = "*"
		}
		fmt.Fprintf(a.stdout, "%s %-12s %s\n", marker, s.Alias, s.Params())
	}
	return nil
}

func (a *App) handleAdd(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	a.commonFlags(fs)
	var s config.Server
	var makeDefault bool
	fs.StringVar(&s.Alias, "alias", "", "server alias")
	fs.StringVar(&s.Host, "host", "localhost", "database host")
	fs.IntVar(&s.Port, "port", 0, "database port (default 5432)")
	fs.StringVar(&s.DBName, "dbname", "", "database name")
	fs.StringVar(&s.User, "user", "", "database user")
	password := fs.String("password", "", "password, stored in the OS keyring")
	fs.StringVar(&s.SSLMode, "sslmode", "", "sslmode, e.g. disable or require")
	fs.DurationVar(&s.Timeout, "timeout", 0, "default read timeout")
	fs.DurationVar(&s.ConnectTimeout, "connect-timeout", 0, "connection handshake timeout")
	fs.BoolVar(&makeDefault, "default", false, "make this the default server")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "alias", "dbname"); err != nil {
		return err
	}
	a.setup()

	if err := s.Validate(); err != nil {
		return err
	}
	if *password != "" {
		if err := secret.Set(s.Alias, s.User, *password); err != nil {
			// keep the password in the file when no keyring is available
			a.logger.Warn("keyring unavailable, writing password to config", "error", err)
			s.Password = *password
		}
	}

	existed := a.cfg.HasServer(s.Alias)
	a.cfg.PutServer(s)
	if makeDefault || len(a.cfg.Servers) == 1 {
		a.cfg.Preferences.DefaultServer = s.Alias
	}
	if err := config.Save(a.cfgPath, a.cfg); err != nil {
		return err
	}

	verb := "added"
	if existed {
		verb = "updated"
	}
	fmt.Fprintf(a.stdout, "%s %s (%s)\n", verb, s.Alias, s.Params())
	return nil
}
