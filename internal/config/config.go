package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

// Config holds service configuration.
type Config struct {
	BotToken      string
	Moderators    []int64
	DepositLink   string
	ContactHandle string

	DatabaseDriver string
	DatabaseURL    string
	DatabasePath   string
	MigrationsDir  string

	SessionStore string
	RedisURL     string
	SessionTTL   time.Duration

	CleanupInterval      time.Duration
	BroadcastTTL         time.Duration
	RejectionTTL         time.Duration
	BroadcastConcurrency int

	ServerAddr     string
	AdminTokenHash string
	LogLevel       string
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	moderators, err := parseIDs(os.Getenv("MODERATOR_IDS"))
	if err != nil {
		return nil, fmt.Errorf("MODERATOR_IDS: %w", err)
	}

	cfg := &Config{
		BotToken:      os.Getenv("BOT_TOKEN"),
		Moderators:    moderators,
		DepositLink:   os.Getenv("DEPOSIT_LINK"),
		ContactHandle: os.Getenv("CONTACT_HANDLE"),

		DatabaseDriver: strings.ToLower(getenv("DATABASE_DRIVER", DriverSQLite)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabasePath:   getenv("DATABASE_PATH", "./data/bot.db"),
		MigrationsDir:  getenv("MIGRATIONS_DIR", "internal/migrations"),

		SessionStore: strings.ToLower(getenv("SESSION_STORE", SessionsMemory)),
		RedisURL:     getenv("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL:   parseDuration(os.Getenv("SESSION_TTL"), 24*time.Hour),

		CleanupInterval:      parseDuration(os.Getenv("CLEANUP_INTERVAL"), 30*time.Second),
		BroadcastTTL:         parseDuration(os.Getenv("BROADCAST_TTL"), 6*time.Hour),
		RejectionTTL:         parseDuration(os.Getenv("REJECTION_TTL"), time.Hour),
		BroadcastConcurrency: parseInt(os.Getenv("BROADCAST_CONCURRENCY"), 8),

		ServerAddr:     getenv("SERVER_ADDR", "0.0.0.0:8080"),
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = postgresDSN()
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.SessionStore != SessionsMemory && cfg.SessionStore != SessionsRedis {
		return nil, fmt.Errorf("unsupported SESSION_STORE %q", cfg.SessionStore)
	}
	return cfg, nil
}

// Validate checks what the bot needs to run.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	return nil
}

func postgresDSN() string {
	user := getenv("POSTGRES_USER", "tablecall")
	pass := getenv("POSTGRES_PASSWORD", "tablecall")
	db := getenv("POSTGRES_DB", "tablecall")
	host := getenv("POSTGRES_HOST", "localhost")
	port := getenv("POSTGRES_PORT", "5432")
	sslmode := getenv("DATABASE_SSLMODE", "disable")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
}

func parseIDs(val string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
