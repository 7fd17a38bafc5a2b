package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable New reads so ambient shell state cannot
// leak into the assertions.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"SERVER_HOST", "SERVER_PORT", "STORE",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_SSLMODE",
		"HOLD_TTL", "HOLD_TTL_MIN", "HOLD_TTL_MAX", "MAX_HOLD_QTY",
		"SWEEP_INTERVAL", "RATE_LIMIT", "RATE_WINDOW",
	} {
		t.Setenv(key, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Holds.TTL)
	assert.Equal(t, 10*time.Second, cfg.Holds.MinTTL)
	assert.Equal(t, 15*time.Minute, cfg.Holds.MaxTTL)
	assert.Equal(t, 100, cfg.Holds.MaxQuantity)
	assert.Equal(t, 30*time.Second, cfg.Holds.SweepInterval)
	assert.Equal(t, 10, cfg.Holds.RateLimit)
	assert.Equal(t, time.Minute, cfg.Holds.RateWindow)
}

func TestNew_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE", "redis")
	t.Setenv("HOLD_TTL", "5m")
	t.Setenv("MAX_HOLD_QTY", "25")
	t.Setenv("SWEEP_INTERVAL", "10s")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr, "redis backend falls back to the local default addr")
	assert.Equal(t, 5*time.Minute, cfg.Holds.TTL)
	assert.Equal(t, 25, cfg.Holds.MaxQuantity)
	assert.Equal(t, 10*time.Second, cfg.Holds.SweepInterval)
}

func TestNew_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "cassandra")

	_, err := New()
	assert.Error(t, err)
}

func TestNew_PostgresRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "postgres")

	_, err := New()
	require.Error(t, err)

	t.Setenv("POSTGRES_USER", "boxoffice")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "boxoffice")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
}

func TestNew_BadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOLD_TTL", "soon")

	_, err := New()
	assert.Error(t, err)
}
