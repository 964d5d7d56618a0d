// Package config loads herald's configuration from HERALD_* environment
// variables, applies defaults and validates the result.
//
// Server settings:
//
//	HERALD_HOST="0.0.0.0"
//	HERALD_PORT="8080"
//	HERALD_HEALTH_PORT="9090"
//	HERALD_READ_TIMEOUT="15s"
//	HERALD_IDLE_TIMEOUT="120s"
//	HERALD_SHUTDOWN_TIMEOUT="30s"
//	HERALD_KEEP_ALIVE="15s"          # comment frame interval on event streams
//	HERALD_QUEUE_SIZE="64"           # per-connection outbound queue
//	HERALD_STREAM_RATE_LIMIT="30"    # stream connects per client per minute, 0 disables
//	HERALD_STREAM_RATE_BURST="10"
//	HERALD_CORS_ORIGINS="https://backoffice.example"
//
// Content database and key cache:
//
//	HERALD_DB_DRIVER="postgres"      # postgres or sqlite3
//	HERALD_DB_DSN="postgres://localhost/cms?sslmode=disable"
//	HERALD_DB_MAX_OPEN_CONNS="10"
//	HERALD_KEY_CACHE_SIZE="10000"
//	HERALD_KEY_CACHE_TTL="10m"
//	HERALD_REDIS_URL="redis://localhost:6379/0"   # optional shared cache
//
// Authentication and authorization:
//
//	HERALD_OIDC_ISSUER_URL="https://id.example.com"
//	HERALD_OIDC_CLIENT_ID="herald"
//	HERALD_SIGNAL_SECRET="..."       # required, shared with the content service
//	HERALD_POLICIES_FILE="/etc/herald/policies.yaml"
//	HERALD_AUTHZ_CONCURRENCY="8"     # categories evaluated at once, 0 unbounded
//
// Observability:
//
//	HERALD_LOG_LEVEL="info"          # debug, info, warn, error
//	HERALD_METRICS_ENABLED="true"
//	HERALD_OTEL_ENABLED="false"
//	HERALD_OTEL_ENDPOINT="localhost:4317"
//
// Usage:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		return err
//	}
package config
