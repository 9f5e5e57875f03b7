package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joacominatel/pgkv/client"
	"github.com/joacominatel/pgkv/database"
	"github.com/joacominatel/pgkv/database/postgres"
	"github.com/joacominatel/pgkv/internal/config"
	"github.com/joacominatel/pgkv/internal/secret"
)

func main() {
	app := NewApp(postgres.New(), os.Stdout, os.Stderr)
	os.Exit(app.Run(context.Background(), os.Args[1:]))
}

// App holds what every subcommand needs.
type App struct {
	connector database.Connector
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer

	cfgPath string
	cfg     *config.Config
	alias   string
	debug   bool
	// quiet drops log output while a full-screen program owns the terminal.
	quiet  bool
	logger *slog.Logger
}

// NewApp creates the command-line application.
func NewApp(connector database.Connector, stdout, stderr io.Writer) *App {
	return &App{connector: connector, stdin: os.Stdin, stdout: stdout, stderr: stderr}
}

type handler func(ctx context.Context, args []string) error

// Run dispatches args to a subcommand and returns the exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) < 1 {
		a.printUsage()
		return 2
	}

	commands := map[string]handler{
		"servers":     a.handleServers,
		"add":         a.handleAdd,
		"read":        a.handleRead,
		"write":       a.handleWrite,
		"insert-many": a.handleInsertMany,
		"update":      a.handleUpdate,
		"update-many": a.handleUpdateMany,
		"delete":      a.handleDelete,
		"raw":         a.handleRaw,
		"browse":      a.handleBrowse,
	}

	command := args[0]
	if command == "help" || command == "-h" || command == "--help" {
		a.printUsage()
		return 0
	}
	h, ok := commands[command]
	if !ok {
		fmt.Fprintf(a.stderr, "pgkv: unknown command %q\n", command)
		a.printUsage()
		return 2
	}

	if err := h(ctx, args[1:]); err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(a.stderr, "pgkv %s: %v\n", command, err)
		}
		return 1
	}
	return 0
}

func (a *App) printUsage() {
	fmt.Fprintln(a.stderr, `Usage: pgkv <command> [flags]

Commands:
  servers                                 list saved servers
  add     -alias -host -dbname -user      save a server (password goes to the keyring)
  read    -table [-columns] [-where k=v]  print matching rows as JSON lines
  write   -table -set k=v,...             insert one row
  insert-many -table -columns a,b         insert JSON lines from stdin in one statement
  update  -table -set k=v -where k=v      update matching rows
  update-many -table -target c -where-columns a,b
                                          update one row per JSON line, in one transaction
  delete  -table -where k=v | -all        delete matching rows
  raw     -sql [-args a,b] [-exec]        run literal SQL
  browse  -table [-columns]               open the interactive browser

Common flags: -config path, -server alias, -debug`)
}

// commonFlags registers the flags shared by every subcommand.
func (a *App) commonFlags(fs *flag.FlagSet) {
	fs.SetOutput(a.stderr)
	fs.StringVar(&a.cfgPath, "config", "", "config file (default ~/.pgkv/config.yaml)")
	fs.StringVar(&a.alias, "server", "", "server alias (default from config)")
	fs.BoolVar(&a.debug, "debug", false, "log every statement")
}

// setup loads the configuration and builds the logger. A broken config is
// reported and replaced by an empty one.
func (a *App) setup() {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		fmt.Fprintf(a.stderr, "Warning: failed to load config: %v\n", err)
		cfg = &config.Config{}
	}
	a.cfg = cfg
	if a.alias == "" {
		a.alias = cfg.DefaultServer()
	}
	a.debug = a.debug || cfg.Preferences.Debug

	level := slog.LevelInfo
	if cfg.Preferences.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.Preferences.LogLevel)); err != nil {
			fmt.Fprintf(a.stderr, "Warning: unknown log level %q\n", cfg.Preferences.LogLevel)
		}
	}
	if a.debug {
		level = slog.LevelDebug
	}
	out := a.stderr
	if a.quiet {
		out = io.Discard
	}
	a.logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// connect registers the selected server and returns a client bound to it.
// The caller must close the client.
func (a *App) connect(ctx context.Context) (*client.Client, *config.Server, error) {
	a.setup()

	server, ok := a.cfg.Server(a.alias)
	if !ok {
		return nil, nil, fmt.Errorf("unknown server %q (see pgkv servers)", a.alias)
	}
	params := server.Params()
	pw, err := secret.Resolve(server.Alias, server.User, server.Password)
	if err != nil {
		a.logger.Warn("could not read password from keyring", "server", server.Alias, "error", err)
	}
	params.Password = pw

	registry := client.NewRegistry(a.connector, client.WithRegistryLogger(a.logger))
	c := client.New(registry,
		client.WithLogger(a.logger),
		client.WithDebug(a.debug),
		client.WithMaxAttempts(a.cfg.Preferences.MaxAttempts),
	)
	if _, err := c.Register(ctx, server.Alias, params); err != nil {
		return nil, nil, err
	}
	return c, server, nil
}

func (a *App) closeClient(ctx context.Context, c *client.Client) {
	if err := c.CloseAll(ctx); err != nil {
		a.logger.Warn("close failed", "error", err)
	}
}

// report prints the outcome of a write and turns failures into errors.
func (a *App) report(res client.Result) error {
	if !res.OK() {
		if res.Err != nil {
			return fmt.Errorf("%s: %w", res.Status, res.Err)
		}
		return fmt.Errorf("%s", res.Status)
	}
	fmt.Fprintf(a.stdout, "ok %d\n", res.RowsAffected)
	return nil
}

func required(fs *flag.FlagSet, names ...string) error {
	var missing []string
	for _, name := range names {
		if f := fs.Lookup(name); f != nil && f.Value.String() == "" {
			missing = append(missing, "-"+name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}
