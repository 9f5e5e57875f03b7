package config

import (
	"fmt"
	"time"

	"github.com/joacominatel/pgkv/database"
)

// Config represents the application configuration.
type Config struct {
	Servers     []Server    `mapstructure:"servers" yaml:"servers"`
	Preferences Preferences `mapstructure:"preferences" yaml:"preferences"`
}

// Server represents a saved server alias.
type Server struct {
	Alias    string        `mapstructure:"alias" yaml:"alias"`
	DBName   string        `mapstructure:"dbname" yaml:"dbname"`
	User     string        `mapstructure:"user" yaml:"user"`
	Password string        `mapstructure:"password" yaml:"password,omitempty"`
	Host     string        `mapstructure:"host" yaml:"host"`
	Port     int           `mapstructure:"port" yaml:"port,omitempty"`
	SSLMode  string        `mapstructure:"sslmode" yaml:"sslmode,omitempty"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
	// ConnectTimeout bounds the connection handshake.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout,omitempty"`
}

// Preferences holds user preferences.
type Preferences struct {
	Debug         bool   `mapstructure:"debug" yaml:"debug"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	DefaultServer string `mapstructure:"default_server" yaml:"default_server"`
	MaxAttempts   int    `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// Params converts the server entry to connection parameters.
func (s Server) Params() database.Params {
	return database.Params{
		DBName:   s.DBName,
		User:     s.User,
		Password: s.Password,
		Host:     s.Host,
		Port:     s.Port,
		SSLMode:  s.SSLMode,

		ConnectTimeout: s.ConnectTimeout,
	}
}

// Validate reports the first missing required field.
func (s Server) Validate() error {
	switch {
	case s.Alias == "":
		return fmt.Errorf("server without alias")
	case s.DBName == "":
		return fmt.Errorf("server %q: dbname is required", s.Alias)
	case s.Host == "":
		return fmt.Errorf("server %q: host is required", s.Alias)
	}
	return nil
}

// Server returns the server saved under alias.
func (cfg *Config) Server(alias string) (*Server, bool) {
	for i := range cfg.Servers {
		if cfg.Servers[i].Alias == alias {
			return &cfg.Servers[i], true
		}
	}
	return nil, false
}

// HasServer checks if a server with the given alias already exists.
func (cfg *Config) HasServer(alias string) bool {
	_, ok := cfg.Server(alias)
	return ok
}

// PutServer adds s, replacing any server saved under the same alias.
func (cfg *Config) PutServer(s Server) {
	if existing, ok := cfg.Server(s.Alias); ok {
		*existing = s
		return
	}
	cfg.Servers = append(cfg.Servers, s)
}

// DefaultServer returns the alias calls use when none is given.
func (cfg *Config) DefaultServer() string {
	if cfg.Preferences.DefaultServer != "" {
		return cfg.Preferences.DefaultServer
	}
	if len(cfg.Servers) > 0 {
		return cfg.Servers[0].Alias
	}
	return "default"
}
