package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "krushee", cfg.MongoDatabase)
	assert.True(t, cfg.MongoTransactions)
	assert.Equal(t, "redis", cfg.LocalStore)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LOCAL_STORE", "memory")
	t.Setenv("MONGODB_TRANSACTIONS", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("JWT_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.LocalStore)
	assert.False(t, cfg.MongoTransactions)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("unknown local store", func(t *testing.T) {
		t.Setenv("LOCAL_STORE", "cookie")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production without secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestGetEnv(t *testing.T) {
	t.Setenv("KRUSHEE_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("KRUSHEE_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("KRUSHEE_TEST_MISSING", "fallback"))
}
