// Package config provides functionality for managing configuration options
// for the server using command-line flags, a config file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Options holds the configuration values for the server.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string
	// DatabaseDriver is "postgres" or "sqlite3".
	DatabaseDriver string
	// DatabaseDSN holds the database connection string.
	DatabaseDSN string
	// JWTSecret signs and verifies bearer tokens.
	JWTSecret string
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration
	// LogLevel is a zap level name.
	LogLevel string
	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string
	TLSKey  string
	// CleanupInterval is the orphan note cleaner period; zero disables it.
	CleanupInterval time.Duration
	// Config is the path to the config file.
	Config string
}

// fileOptions mirrors Options in config files. Durations are written as
// strings such as "168h".
type fileOptions struct {
	Address         string `json:"address" toml:"address" yaml:"address"`
	DatabaseDriver  string `json:"database_driver" toml:"database_driver" yaml:"database_driver"`
	DatabaseDSN     string `json:"database_dsn" toml:"database_dsn" yaml:"database_dsn"`
	JWTSecret       string `json:"jwt_secret" toml:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL        string `json:"token_ttl" toml:"token_ttl" yaml:"token_ttl"`
	LogLevel        string `json:"log_level" toml:"log_level" yaml:"log_level"`
	TLSCert         string `json:"tls_cert" toml:"tls_cert" yaml:"tls_cert"`
	TLSKey          string `json:"tls_key" toml:"tls_key" yaml:"tls_key"`
	CleanupInterval string `json:"cleanup_interval" toml:"cleanup_interval" yaml:"cleanup_interval"`
}

// ErrMissingSecret is returned when no JWT secret was configured.
var ErrMissingSecret = errors.New("jwt secret is required (-jwt-secret or JWT_SECRET)")

// Parse reads the process arguments and environment.
func Parse() (*Options, error) {
	return ParseArgs(os.Args[1:], os.Getenv)
}

// ParseArgs applies flags, then the config file, then environment variables;
// later sources win.
func ParseArgs(args []string, getenv func(string) string) (*Options, error) {
	o := &Options{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&o.Address, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&o.DatabaseDriver, "driver", "sqlite3", "database driver (postgres|sqlite3)")
	fs.StringVar(&o.DatabaseDSN, "d", "voicenotes.db", "db address")
	fs.StringVar(&o.JWTSecret, "jwt-secret", "", "secret for signing tokens")
	fs.DurationVar(&o.TokenTTL, "token-ttl", 7*24*time.Hour, "token lifetime")
	fs.StringVar(&o.LogLevel, "l", "info", "log level")
	fs.StringVar(&o.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&o.TLSKey, "tls-key", "", "TLS key file")
	fs.DurationVar(&o.CleanupInterval, "cleanup-interval", time.Hour, "orphan note cleanup interval (0 disables)")
	fs.StringVar(&o.Config, "config", "config.json", "path to config file")
	fs.StringVar(&o.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}
	if o.Config != "" {
		if _, err := os.Stat(o.Config); err == nil {
			if err := o.loadFile(o.Config); err != nil {
				return nil, err
			}
		}
	}

	if err := o.applyEnv(getenv); err != nil {
		return nil, err
	}

	if o.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	return o, nil
}

func (o *Options) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	var f fileOptions
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	setString(&o.Address, f.Address)
	setString(&o.DatabaseDriver, f.DatabaseDriver)
	setString(&o.DatabaseDSN, f.DatabaseDSN)
	setString(&o.JWTSecret, f.JWTSecret)
	setString(&o.LogLevel, f.LogLevel)
	setString(&o.TLSCert, f.TLSCert)
	setString(&o.TLSKey, f.TLSKey)
	if err := setDuration(&o.TokenTTL, f.TokenTTL, "token_ttl"); err != nil {
		return err
	}
	return setDuration(&o.CleanupInterval, f.CleanupInterval, "cleanup_interval")
}

func (o *Options) applyEnv(getenv func(string) string) error {
	setString(&o.Address, getenv("SERVER_ADDRESS"))
	setString(&o.DatabaseDriver, getenv("DATABASE_DRIVER"))
	setString(&o.DatabaseDSN, getenv("DATABASE_DSN"))
	setString(&o.JWTSecret, getenv("JWT_SECRET"))
	setString(&o.LogLevel, getenv("LOG_LEVEL"))
	setString(&o.TLSCert, getenv("TLS_CERT"))
	setString(&o.TLSKey, getenv("TLS_KEY"))
	if err := setDuration(&o.TokenTTL, getenv("TOKEN_TTL"), "TOKEN_TTL"); err != nil {
		return err
	}
	return setDuration(&o.CleanupInterval, getenv("CLEANUP_INTERVAL"), "CLEANUP_INTERVAL")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, name string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = d
	return nil
}
