package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/pkg/errors"
)

func setRequired(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "greencart")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "greencart")
}

// unset clears keys for the duration of the test
func unset(t *testing.T, keys ...string) {
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	unset(t, "REDIS_HOST", "KAFKA_BROKERS", "STORAGE_BUCKET", "DEPLOY_INSTALL_CMD",
		"POSTGRES_PORT", "ADMIN_USERNAME", "JWT_TTL", "DEPLOY_MIGRATE_TIMEOUT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "host=db port=5432 user=greencart password=secret dbname=greencart sslmode=disable", cfg.Postgres.DSN())
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Storage.Enabled())
	assert.Empty(t, cfg.Deploy.InstallArgs())
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Minute, cfg.Deploy.MigrateTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DEPLOY_INSTALL_CMD", "npm ci --omit=dev")
	t.Setenv("DEPLOY_STATIC_DIRS", "static,frontend/build")
	t.Setenv("HTTP_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "cache:6380", cfg.Redis.Addr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"npm", "ci", "--omit=dev"}, cfg.Deploy.InstallArgs())
	assert.Equal(t, []string{"static", "frontend/build"}, cfg.Deploy.StaticDirs)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
}

func TestLoad_PostgresCheckedOnlyByValidate(t *testing.T) {
	setRequired(t)
	unset(t, "POSTGRES_HOST", "POSTGRES_PASSWORD")

	cfg, err := Load()
	require.NoError(t, err, "install and collectstatic must not need a database")

	err = cfg.Postgres.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "POSTGRES_HOST, POSTGRES_PASSWORD")
	assert.NotContains(t, err.Error(), "POSTGRES_USER")
}

func TestPostgresValidate_Complete(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Postgres.Validate())
}

func TestLoad_RejectsNonPositiveWorkerInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("WORKER_DASHBOARD_WARMUP", "true")
	t.Setenv("WORKER_DASHBOARD_INTERVAL", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKER_DASHBOARD_INTERVAL")

	t.Setenv("WORKER_DASHBOARD_WARMUP", "false")
	_, err = Load()
	assert.NoError(t, err, "a disabled warmer may keep a zero interval")
}
