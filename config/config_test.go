package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"megacoop-kyc/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "default", cfg.Temporal.Namespace)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Session.ApprovalPollInterval)
	assert.Empty(t, cfg.Storage.Path)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MEGACOOP_API_BASE_URL", "https://api.megacoop.example/v1")
	t.Setenv("MEGACOOP_API_TOKEN", "token-123")
	t.Setenv("MEGACOOP_SESSION_APPROVAL_POLL_INTERVAL", "90s")
	t.Setenv("MEGACOOP_LOGGING_LEVEL", "debug")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.megacoop.example/v1", cfg.API.BaseURL)
	assert.Equal(t, "token-123", cfg.API.Token)
	assert.Equal(t, 90*time.Second, cfg.Session.ApprovalPollInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "kyc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://staging.megacoop.example/api
  timeout: 10s
temporal:
  host_port: temporal.internal:7233
  namespace: kyc-staging
storage:
  path: /var/lib/megacoop/kyc
metrics:
  addr: ":9102"
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.megacoop.example/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "temporal.internal:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "kyc-staging", cfg.Temporal.Namespace)
	assert.Equal(t, "/var/lib/megacoop/kyc", cfg.Storage.Path)
	assert.Equal(t, ":9102", cfg.Metrics.Addr)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MEGACOOP_TEMPORAL_NAMESPACE=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MEGACOOP_TEMPORAL_NAMESPACE") })

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Temporal.Namespace)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("base url", func(t *testing.T) {
		t.Setenv("MEGACOOP_API_BASE_URL", "not a url")
		_, err := config.Load("")
		assert.Error(t, err)
	})
	t.Run("log level", func(t *testing.T) {
		t.Setenv("MEGACOOP_LOGGING_LEVEL", "verbose")
		_, err := config.Load("")
		assert.Error(t, err)
	})
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
