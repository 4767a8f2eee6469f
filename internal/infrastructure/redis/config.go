package redis

import "time"

// Config holds Redis connection and expiry settings.
type Config struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	// SessionTTL bounds how long an abandoned conversation keeps its step.
	SessionTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		SessionTTL:   24 * time.Hour,
	}
}
