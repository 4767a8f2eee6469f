package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DATABASE_DRIVER", "SESSION_STORE", "MODERATOR_IDS", "SESSION_TTL", "BROADCAST_TTL"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, SessionsMemory, cfg.SessionStore)
	assert.Empty(t, cfg.Moderators)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 6*time.Hour, cfg.BroadcastTTL)
	assert.Equal(t, time.Hour, cfg.RejectionTTL)
	assert.Equal(t, 30*time.Second, cfg.CleanupInterval)
	assert.Equal(t, 8, cfg.BroadcastConcurrency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MODERATOR_IDS", " 900, 901 ,")
	t.Setenv("DATABASE_DRIVER", "POSTGRES")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("BROADCAST_TTL", "90m")
	t.Setenv("BROADCAST_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{900, 901}, cfg.Moderators)
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Contains(t, cfg.DatabaseURL, "@db:5432/")
	assert.Equal(t, SessionsRedis, cfg.SessionStore)
	assert.Equal(t, 90*time.Minute, cfg.BroadcastTTL)
	assert.Equal(t, 8, cfg.BroadcastConcurrency)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("MODERATOR_IDS", "900,abc")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("MODERATOR_IDS", "")
	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("SESSION_STORE", "memcached")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidateRequiresToken(t *testing.T) {
	assert.Error(t, (&Config{}).Validate())
	assert.NoError(t, (&Config{BotToken: "x"}).Validate())
}
