// Package config handles application configuration via environment variables.
// It uses kelseyhightower/envconfig for parsing and provides sensible defaults.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"dbaccess/src/core/domain"
)

// envPrefix is prepended to every variable name. envconfig also accepts the
// unprefixed name, so APP_DATABASE_URL and DATABASE_URL are equivalent.
const envPrefix = "APP"

// productionEnv is the environment designation that turns on TLS.
const productionEnv = "production"

// Config holds all application configuration.
// Values are loaded from environment variables with the prefix "APP".
// Example: APP_PORT=8080, APP_LOG_LEVEL=debug
type Config struct {
	// Server configuration (embedded to flatten env vars)
	Server ServerConfig

	// Database configuration (embedded to flatten env vars)
	Database DatabaseConfig

	// Logging configuration (embedded to flatten env vars)
	Log LogConfig
}

// ServerConfig holds HTTP server settings for the operational endpoints.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// Host is the HTTP server host (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// ReadTimeout is the maximum duration for reading the entire request (default: 10s)
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`

	// WriteTimeout is the maximum duration before timing out writes of the response (default: 30s)
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds the pool configuration for the primary and direct pools.
// Timeouts are expressed in milliseconds.
type DatabaseConfig struct {
	// URL is the primary DSN used for all query and transaction traffic (required)
	URL string `envconfig:"DATABASE_URL"`

	// DirectURL is an optional DSN that bypasses pooling proxies, for maintenance traffic
	DirectURL string `envconfig:"DIRECT_URL"`

	// MaxConnections caps the primary pool (default: 20)
	MaxConnections int `envconfig:"DB_MAX_CONNECTIONS" default:"20"`

	// DirectMaxConnections caps the direct pool (default: 5)
	DirectMaxConnections int `envconfig:"DB_DIRECT_MAX_CONNECTIONS" default:"5"`

	// ConnectTimeoutMillis bounds connection setup and checkout (default: 30000)
	ConnectTimeoutMillis int `envconfig:"DB_CONNECT_TIMEOUT" default:"30000"`

	// IdleTimeoutMillis evicts connections idle for longer (default: 10000)
	IdleTimeoutMillis int `envconfig:"DB_IDLE_TIMEOUT" default:"10000"`

	// Environment designation; TLS is enforced in "production" (default: production)
	Environment string `envconfig:"ENV" default:"production"`

	// TLS overrides the environment-derived TLS setting when set
	TLS *bool `envconfig:"DB_TLS"`

	// QueryTimeoutMillis is the default server-side statement timeout (default: 30000)
	QueryTimeoutMillis int `envconfig:"DB_QUERY_TIMEOUT" default:"30000"`

	// QueryMaxAttempts is the default number of query attempts (default: 3)
	QueryMaxAttempts int `envconfig:"DB_QUERY_MAX_ATTEMPTS" default:"3"`

	// QueryRetryDelayMillis is the default base backoff between attempts (default: 1000)
	QueryRetryDelayMillis int `envconfig:"DB_QUERY_RETRY_DELAY" default:"1000"`

	// MigrationsDir is the goose migrations directory (default: migrations)
	MigrationsDir string `envconfig:"DB_MIGRATIONS_DIR" default:"migrations"`

	// MigrationsTable stores the applied migration version (default: schema_migrations)
	MigrationsTable string `envconfig:"DB_MIGRATIONS_TABLE" default:"schema_migrations"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: json, text, plain (default: json)
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// UseTLS reports whether connections must be encrypted.
func (c *DatabaseConfig) UseTLS() bool {
	if c.TLS != nil {
		return *c.TLS
	}
	return c.Environment == productionEnv
}

// ConnectTimeout returns the connect/checkout timeout.
func (c *DatabaseConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMillis) * time.Millisecond
}

// IdleTimeout returns the idle eviction timeout.
func (c *DatabaseConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMillis) * time.Millisecond
}

// HasDirect reports whether a direct pool is configured.
func (c *DatabaseConfig) HasDirect() bool {
	return c.DirectURL != ""
}

// QueryOptions returns the configured per-call defaults.
func (c *DatabaseConfig) QueryOptions() domain.QueryOptions {
	return domain.QueryOptions{
		Timeout:     time.Duration(c.QueryTimeoutMillis) * time.Millisecond,
		MaxAttempts: c.QueryMaxAttempts,
		RetryDelay:  time.Duration(c.QueryRetryDelayMillis) * time.Millisecond,
	}
}

// Validate checks the invariants the pool manager relies on.
func (c *DatabaseConfig) Validate() error {
	switch {
	case c.URL == "":
		return domain.NewConfigurationError("DATABASE_URL is required")
	case c.MaxConnections <= 0:
		return domain.NewConfigurationError("DB_MAX_CONNECTIONS must be positive")
	case c.HasDirect() && c.DirectMaxConnections <= 0:
		return domain.NewConfigurationError("DB_DIRECT_MAX_CONNECTIONS must be positive")
	case c.ConnectTimeoutMillis < 0 || c.IdleTimeoutMillis < 0 || c.QueryTimeoutMillis < 0 || c.QueryRetryDelayMillis < 0:
		return domain.NewConfigurationError("database timeouts must not be negative")
	case c.QueryMaxAttempts <= 0:
		return domain.NewConfigurationError("DB_QUERY_MAX_ATTEMPTS must be positive")
	}
	return nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadDatabase resolves the database configuration from the environment.
// It reads nothing else and has no side effects.
func LoadDatabase() (DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return DatabaseConfig{}, &domain.DBError{
			Kind:  domain.ErrConfiguration,
			Op:    "failed to load database config",
			Index: -1,
			Class: domain.Permanent,
			Err:   err,
		}
	}
	if err := cfg.Validate(); err != nil {
		return DatabaseConfig{}, err
	}
	return cfg, nil
}

// Load reads configuration from environment variables.
// It returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	var cfg Config

	// Load each config section separately to flatten env var names
	// This allows env vars like APP_PORT instead of APP_SERVER_PORT
	if err := envconfig.Process(envPrefix, &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	db, err := LoadDatabase()
	if err != nil {
		return nil, err
	}
	cfg.Database = db
	if err := envconfig.Process(envPrefix, &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}

	return &cfg, nil
}
