package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilikepancakes/gorkdb-admin/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.Server.Addr)
	assert.Equal(t, "data/bot_messages.db", cfg.Database.Path)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "admin", cfg.Auth.Username)
	assert.Equal(t, "admin123", cfg.Auth.Password)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: ":9000"
database:
  path: /tmp/other.db
auth:
  username: operator
  password: hunter2
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, "operator", cfg.Auth.Username)
	assert.Equal(t, "hunter2", cfg.Auth.Password)
	assert.Equal(t, "debug", cfg.Logger.Level)
	// Untouched values keep their defaults.
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ADMIN_SERVER_ADDR", ":7777")
	t.Setenv("ADMIN_DATABASE_PATH", "/tmp/env.db")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("ADMIN_LOG_LEVEL", "loud")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsShortSessionKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  session_key: short\n"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}
