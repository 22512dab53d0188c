// Package config provides configuration management for the article explorer.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all configuration environment variables.
const EnvPrefix = "EXPLORER"

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Storage backends for annotation snapshots.
const (
	// StorageMemory keeps snapshots in process memory.
	StorageMemory = "memory"
	// StoragePostgres persists snapshots in PostgreSQL.
	StoragePostgres = "postgres"
)

// Config holds all configuration for the article explorer.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// CORS contains cross-origin settings for the browser client.
	CORS CORSConfig `mapstructure:"cors"`
	// Search contains search provider settings.
	Search SearchConfig `mapstructure:"search"`
	// Reading contains reading session settings.
	Reading ReadingConfig `mapstructure:"reading"`
	// Storage selects where annotation snapshots are kept.
	Storage StorageConfig `mapstructure:"storage"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the maximum keep-alive idle time.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CORSConfig holds cross-origin configuration.
type CORSConfig struct {
	// AllowedOrigins are echoed back when they match the request Origin.
	// The first entry is returned for any other origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SearchConfig holds search provider configuration.
type SearchConfig struct {
	// Provider is the name of the search provider (default: core).
	Provider string `mapstructure:"provider"`
	// BaseURL is the provider API base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the provider credential, loaded only from EXPLORER_SEARCH_API_KEY.
	APIKey string `mapstructure:"-"`
	// Timeout is the provider request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum provider requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of provider requests.
	BurstSize int `mapstructure:"burst_size"`
	// MaxRetries is the number of retries on 429 and 5xx (default: 0).
	MaxRetries int `mapstructure:"max_retries"`
	// DefaultLimit is the result count used when a request gives none.
	DefaultLimit int `mapstructure:"default_limit"`
}

// ReadingConfig holds reading session configuration.
type ReadingConfig struct {
	// EstimatedMinutes is the reading time estimate per article (default: 15).
	EstimatedMinutes int `mapstructure:"estimated_minutes"`
	// IdleTTL is how long an untouched session is kept. Zero disables eviction.
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
	// MaxSessions caps concurrently open sessions. Zero means unlimited.
	MaxSessions int `mapstructure:"max_sessions"`
}

// StorageConfig holds annotation storage configuration.
type StorageConfig struct {
	// Backend is memory or postgres (default: memory).
	Backend string `mapstructure:"backend"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password, loaded only from EXPLORER_DATABASE_PASSWORD.
	Password string `mapstructure:"-"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 10).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 2).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// EstimatedReadingTime returns the per-article reading estimate.
func (c *ReadingConfig) EstimatedReadingTime() time.Duration {
	return time.Duration(c.EstimatedMinutes) * time.Minute
}

// UsesPostgres reports whether snapshots are stored in PostgreSQL.
func (c *StorageConfig) UsesPostgres() bool {
	return strings.EqualFold(c.Backend, StoragePostgres)
}

// Load loads configuration from defaults, an optional config file, and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/article-explorer")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// CORE_API_KEY is accepted as a fallback for the search credential.
func loadSecrets(cfg *Config) {
	cfg.Search.APIKey = os.Getenv(EnvPrefix + "_SEARCH_API_KEY")
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("CORE_API_KEY")
	}
	cfg.Database.Password = os.Getenv(EnvPrefix + "_DATABASE_PASSWORD")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5222", "http://localhost:3000"})

	// Search defaults. The API key is loaded from the environment (see loadSecrets).
	v.SetDefault("search.provider", "core")
	v.SetDefault("search.base_url", "https://api.core.ac.uk/v3")
	v.SetDefault("search.timeout", "30s")
	v.SetDefault("search.rate_limit", 1.0)
	v.SetDefault("search.burst_size", 5)
	v.SetDefault("search.max_retries", 0)
	v.SetDefault("search.default_limit", 10)

	// Reading defaults
	v.SetDefault("reading.estimated_minutes", 15)
	v.SetDefault("reading.idle_ttl", "2h")
	v.SetDefault("reading.max_sessions", 10000)

	// Storage defaults
	v.SetDefault("storage.backend", StorageMemory)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "explorer")
	v.SetDefault("database.name", "article_explorer")
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "article_explorer")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("metrics port must differ from HTTP port: %d", c.Server.HTTPPort)
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one CORS allowed origin is required")
	}

	if c.Search.Provider == "" {
		return fmt.Errorf("search provider is required")
	}
	if c.Search.RateLimit <= 0 {
		return fmt.Errorf("search rate_limit must be positive")
	}
	if c.Search.MaxRetries < 0 {
		return fmt.Errorf("search max_retries must not be negative")
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search default_limit must be positive")
	}

	if c.Reading.EstimatedMinutes <= 0 {
		return fmt.Errorf("reading estimated_minutes must be positive")
	}
	if c.Reading.MaxSessions < 0 {
		return fmt.Errorf("reading max_sessions must not be negative")
	}

	switch strings.ToLower(c.Storage.Backend) {
	case StorageMemory:
	case StoragePostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid storage backend: %q", c.Storage.Backend)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}
	if c.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.MaxConns < c.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.MaxConns, c.MinConns)
	}
	return nil
}
