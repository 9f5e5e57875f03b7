package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/joacominatel/pgkv/database"
)

// Handle is one connection and its cursor, registered under an alias.
// A Handle is never repaired in place: on failure the registry builds a new
// one from the same Params and swaps it in.
//
// Handles are shared by every caller using the alias and do no locking of
// their own. Callers that use one alias from several goroutines must
// serialise access themselves.
type Handle struct {
	ID     uuid.UUID
	Alias  string
	Params database.Params

	conn   database.Connection
	cursor database.Cursor
	err    error
}

// Connection returns the live connection, or nil if the handle never connected.
func (h *Handle) Connection() database.Connection {
	return h.conn
}

// Cursor returns the handle's cursor, or nil if the handle never connected.
func (h *Handle) Cursor() database.Cursor {
	return h.cursor
}

// Connected reports whether the handle holds a live connection.
func (h *Handle) Connected() bool {
	return h.conn != nil
}

// Err returns the error that prevented the handle from connecting.
func (h *Handle) Err() error {
	return h.err
}

func (h *Handle) close(ctx context.Context) error {
	if h.conn == nil {
		return nil
	}
	if h.cursor != nil {
		_ = h.cursor.Close()
	}
	err := h.conn.Close(ctx)
	h.conn, h.cursor = nil, nil
	return err
}

// Registry maps server aliases to handles. It is created at startup, passed
// to every Client that needs it, and torn down with CloseAll. The map is
// safe for concurrent use; the handles in it are not.
type Registry struct {
	connector database.Connector
	logger    *slog.Logger

	mu      sync.Mutex
	handles map[string]*Handle
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for connection lifecycle events.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an empty registry that opens connections with connector.
func NewRegistry(connector database.Connector, opts ...RegistryOption) *Registry {
	r := &Registry{
		connector: connector,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		handles:   make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) open(ctx context.Context, alias string, params database.Params) (*Handle, error) {
	h := &Handle{ID: uuid.New(), Alias: alias, Params: params}
	conn, err := r.connector.Connect(ctx, params)
	if err != nil {
		h.err = &ConnectError{Alias: alias, Cause: err}
		return h, h.err
	}
	h.conn = conn
	h.cursor = conn.Cursor()
	return h, nil
}

// Register connects to a server and stores the handle under alias. A
// handle already registered under alias is replaced and closed.
func (r *Registry) Register(ctx context.Context, alias string, params database.Params) (*Handle, error) {
	h, err := r.open(ctx, alias, params)
	if err != nil {
		return nil, err
	}
	if old := r.Replace(alias, h); old != nil {
		_ = old.close(ctx)
	}
	r.logger.Info("registered server", "server", alias, "handle", h.ID, "target", params.String())
	return h, nil
}

// Lookup returns the handle registered under alias.
func (r *Registry) Lookup(alias string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[alias]
	return h, ok
}

// Replace stores h under alias and returns the handle it replaced, if any.
// The old handle is not closed; operations still running on it continue.
func (r *Registry) Replace(alias string, h *Handle) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.handles[alias]
	r.handles[alias] = h
	return old
}

// swap stores h under alias only if old is still registered there. It
// returns the current handle when the swap did not happen.
func (r *Registry) swap(alias string, old, h *Handle) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.handles[alias]
	if !ok || cur != old {
		return cur, false
	}
	r.handles[alias] = h
	return nil, true
}

// Reconnect builds a fresh handle from the parameters of the one registered
// under alias, swaps it in and closes the old one. If the new connection
// fails, a disconnected handle takes the alias so that the next call tries
// again. A Close or Register that lands while the connection is being made
// wins: the fresh handle is discarded.
func (r *Registry) Reconnect(ctx context.Context, alias string) (*Handle, error) {
	old, ok := r.Lookup(alias)
	if !ok {
		return nil, ErrUnknownServer
	}

	h, err := r.open(ctx, alias, old.Params)
	if cur, ok := r.swap(alias, old, h); !ok {
		// the alias was closed or replaced while connecting
		_ = h.close(ctx)
		if cur == nil {
			return nil, ErrUnknownServer
		}
		return cur, nil
	}
	_ = old.close(ctx)

	if err != nil {
		r.logger.Error("reconnect failed", "server", alias, "old_handle", old.ID, "error", err)
		return nil, err
	}
	r.logger.Info("reconnected server", "server", alias, "old_handle", old.ID, "handle", h.ID)
	return h, nil
}

// acquire returns a connected handle for alias, reconnecting a handle that
// lost its connection earlier.
func (r *Registry) acquire(ctx context.Context, alias string) (*Handle, error) {
	h, ok := r.Lookup(alias)
	if !ok {
		return nil, ErrUnknownServer
	}
	if h.Connected() {
		return h, nil
	}
	return r.Reconnect(ctx, alias)
}

// Close closes the handle registered under alias and forgets the alias.
func (r *Registry) Close(ctx context.Context, alias string) error {
	r.mu.Lock()
	h, ok := r.handles[alias]
	delete(r.handles, alias)
	r.mu.Unlock()

	if !ok {
		return ErrUnknownServer
	}
	r.logger.Info("closing connection", "server", alias, "handle", h.ID)
	return h.close(ctx)
}

// CloseAll closes every registered handle.
func (r *Registry) CloseAll(ctx context.Context) error {
	var errs []error
	for _, alias := range r.Aliases() {
		if err := r.Close(ctx, alias); err != nil && !errors.Is(err, ErrUnknownServer) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Aliases returns the registered aliases in sorted order.
func (r *Registry) Aliases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	aliases := make([]string, 0, len(r.handles))
	for alias := range r.handles {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}
