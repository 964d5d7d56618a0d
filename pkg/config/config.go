package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/herald/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server on its own port for k8s liveness and readiness
	HealthPort string

	// Event stream settings
	KeepAlive time.Duration
	QueueSize int

	// Stream (re)connects allowed per client address per minute; 0 disables
	StreamRateLimit int
	StreamRateBurst int

	// Origins allowed to open the event stream from a browser; empty disables CORS
	CORSOrigins []string
}

// DatabaseConfig holds the connection to the content database
type DatabaseConfig struct {
	Driver       string // postgres or sqlite3
	DSN          string
	MaxOpenConns int
}

// CacheConfig holds the id-to-key cache settings
type CacheConfig struct {
	Size     int
	TTL      time.Duration
	RedisURL string // optional shared layer
}

// AuthConfig holds principal resolution and signal ingestion settings
type AuthConfig struct {
	OIDCIssuerURL string
	OIDCClientID  string
	SignalSecret  string
	PoliciesFile  string

	// Categories evaluated at once per authorization pass; 0 is unbounded
	AuthzConcurrency int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Cache:         loadCacheConfig(),
		Auth:          loadAuthConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("HERALD_HOST", "0.0.0.0"),
		Port:            getEnv("HERALD_PORT", "8080"),
		ReadTimeout:     getEnvDuration("HERALD_READ_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("HERALD_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: getEnvDuration("HERALD_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("HERALD_HEALTH_PORT", "9090"),
		KeepAlive:       getEnvDuration("HERALD_KEEP_ALIVE", 15*time.Second),
		QueueSize:       getEnvInt("HERALD_QUEUE_SIZE", 64),
		StreamRateLimit: getEnvInt("HERALD_STREAM_RATE_LIMIT", 30),
		StreamRateBurst: getEnvInt("HERALD_STREAM_RATE_BURST", 10),
		CORSOrigins:     getEnvList("HERALD_CORS_ORIGINS"),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:       strings.ToLower(getEnv("HERALD_DB_DRIVER", "postgres")),
		DSN:          getEnv("HERALD_DB_DSN", ""),
		MaxOpenConns: getEnvInt("HERALD_DB_MAX_OPEN_CONNS", 10),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Size:     getEnvInt("HERALD_KEY_CACHE_SIZE", 10000),
		TTL:      getEnvDuration("HERALD_KEY_CACHE_TTL", 10*time.Minute),
		RedisURL: getEnv("HERALD_REDIS_URL", ""),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		OIDCIssuerURL: getEnv("HERALD_OIDC_ISSUER_URL", ""),
		OIDCClientID:  getEnv("HERALD_OIDC_CLIENT_ID", ""),
		SignalSecret:  getEnv("HERALD_SIGNAL_SECRET", ""),
		PoliciesFile:  getEnv("HERALD_POLICIES_FILE", ""),

		AuthzConcurrency: getEnvInt("HERALD_AUTHZ_CONCURRENCY", 8),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("HERALD_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("HERALD_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("HERALD_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("HERALD_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("HERALD_OTEL_SERVICE_NAME", "herald"),
		OTelServiceVersion: getEnv("HERALD_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("HERALD_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Server.KeepAlive <= 0 {
		return fmt.Errorf("keep-alive interval must be positive")
	}
	if c.Server.QueueSize <= 0 {
		return fmt.Errorf("connection queue size must be positive")
	}
	if c.Server.StreamRateLimit < 0 || c.Server.StreamRateBurst < 0 {
		return fmt.Errorf("stream rate limit and burst must not be negative")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if c.Cache.Size <= 0 {
		return fmt.Errorf("key cache size must be positive")
	}

	if (c.Auth.OIDCIssuerURL == "") != (c.Auth.OIDCClientID == "") {
		return fmt.Errorf("OIDC issuer URL and client ID must be set together")
	}
	if c.Auth.SignalSecret == "" {
		return fmt.Errorf("signal secret is required")
	}
	if c.Auth.AuthzConcurrency < 0 {
		return fmt.Errorf("authorization concurrency must not be negative")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable as a list
func getEnvList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
