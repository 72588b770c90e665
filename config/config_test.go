package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abaccess.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.False(t, cfg.Server.Production())
	assert.Equal(t, "/api/auth", cfg.Server.BasePath)
	assert.Equal(t, time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.CookieMaxAge)
	assert.Equal(t, "auth-session", cfg.Session.CookieName)
	assert.Equal(t, uint32(64*1024), cfg.Security.Argon2Memory)
	assert.Equal(t, uint8(2), cfg.Security.Argon2Parallelism)
	assert.Empty(t, cfg.Database.URL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  mode: production
database:
  url: postgres://localhost/abaccess
session:
  max_age: 30m
  secret: from-file
logging:
  format: text
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Production())
	assert.Equal(t, "postgres://localhost/abaccess", cfg.Database.URL)
	assert.Equal(t, 30*time.Minute, cfg.Session.MaxAge)
	assert.Equal(t, "from-file", cfg.Session.Secret)
	// untouched keys keep their defaults
	assert.Equal(t, "auth-session", cfg.Session.CookieName)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "session:\n  secret: from-file\n")
	t.Setenv("ABACCESS_SESSION_SECRET", "from-env")
	t.Setenv("ABACCESS_REDIS_ENABLED", "true")
	t.Setenv("ABACCESS_SESSION_MAX_AGE", "2h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Session.Secret)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.Session.MaxAge)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid mode", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server:\n  mode: staging\n"))
		assert.ErrorContains(t, err, "server.mode")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := Load(writeConfig(t, "logging:\n  level: loud\n"))
		assert.ErrorContains(t, err, "logging.level")
	})

	t.Run("argon2 memory above ceiling", func(t *testing.T) {
		_, err := Load(writeConfig(t, "security:\n  argon2_memory: 2097152\n"))
		assert.ErrorContains(t, err, "security.argon2_memory")
	})

	t.Run("argon2 iterations above ceiling", func(t *testing.T) {
		_, err := Load(writeConfig(t, "security:\n  argon2_iterations: 50\n"))
		assert.ErrorContains(t, err, "security.argon2_iterations")
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
