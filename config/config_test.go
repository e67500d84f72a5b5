package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quaelen/pannier/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  username: admin
  password: s3cret
`)

	cfg, err := config.Load([]string{path}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 5710, cfg.Server.Port)
	assert.Equal(t, "fs", cfg.Store.Backend)
	assert.Equal(t, "./data", cfg.Store.Path)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "cookie", cfg.Auth.Mode)
	assert.Equal(t, "pannier_auth", cfg.Auth.CookieName)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10, cfg.RateLimit.MaxUpload)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_LogFormat(t *testing.T) {
	path := writeConfig(t, `
auth:
  username: admin
  password: s3cret
log:
  format: json
`)

	cfg, err := config.Load([]string{path}, nil)

	assert.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	path := writeConfig(t, `
auth:
  username: admin
  password: s3cret
log:
  format: logfmt
`)

	_, err := config.Load([]string{path}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  public_url: https://files.example.com
store:
  backend: sqlite
  dsn: /var/lib/pannier/objects.db
auth:
  username: admin
  password: s3cret
  mode: token
ratelimit:
  window: 30s
  max_upload: 3
log:
  level: debug
`)

	cfg, err := config.Load([]string{path}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "https://files.example.com", cfg.Server.PublicURL)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/var/lib/pannier/objects.db", cfg.Store.DSN)
	assert.Equal(t, "token", cfg.Auth.Mode)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 3, cfg.RateLimit.MaxUpload)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
auth:
  username: admin
  password: s3cret
`)
	t.Setenv("PANNIER_SERVER_PORT", "9100")

	cfg, err := config.Load([]string{path}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_InvalidBackend(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: s3
auth:
  username: admin
  password: s3cret
`)

	_, err := config.Load([]string{path}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoad_InvalidAuthMode(t *testing.T) {
	path := writeConfig(t, `
auth:
  username: admin
  password: s3cret
  mode: session
`)

	_, err := config.Load([]string{path}, nil)

	assert.Error(t, err)
}

func TestLoad_AuthEnabledRequiresCredentials(t *testing.T) {
	path := writeConfig(t, `
auth:
  enabled: true
`)

	_, err := config.Load([]string{path}, nil)

	assert.Error(t, err)
}

func TestLoad_AuthDisabledSkipsCredentials(t *testing.T) {
	path := writeConfig(t, `
auth:
  enabled: false
`)

	cfg, err := config.Load([]string{path}, nil)

	assert.NoError(t, err)
	assert.False(t, cfg.Auth.Enabled)
}

func TestContextRoundTrip(t *testing.T) {
	cfg := &config.Config{}
	ctx := config.WithContext(context.Background(), cfg)

	got, err := config.FromContext(ctx)
	assert.NoError(t, err)
	assert.Same(t, cfg, got)

	_, err = config.FromContext(context.Background())
	assert.Error(t, err)
}
