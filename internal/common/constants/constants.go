package constants

import "time"

type ContextKey string

// TraceIDKey carries the request trace ID through context; the trace
// middleware sets it and the logger and error handler read it.
const TraceIDKey ContextKey = "trace_id"

const (
	JWTSecretMinLength = 32

	DefaultBcryptCost = 12

	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxOpenConns    = 25
	DBPoolMinOpenConns    = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = time.Second
	DBPoolMetricsInterval = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultRequestTimeout = 5 * time.Second

	// Best-effort last-login updates run detached from the request and
	// need their own deadline.
	LastLoginUpdateTimeout = 3 * time.Second

	DefaultHTTPPort = "8080"
)
