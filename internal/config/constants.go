package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// DBWarmUpTimeout bounds the startup connection probe. A probe that has
// not settled by then loses the race and the process starts anyway.
const DBWarmUpTimeout = 2 * time.Second

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Login rate limiting per client IP
const (
	LoginRateLimit  = 10
	LoginRateWindow = time.Minute
)
