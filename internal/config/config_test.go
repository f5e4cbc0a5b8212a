package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Auth.Secret = testSecret
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.ReadTimeout)
	assert.Equal(t, "./echocore.db", cfg.Database.Path)
	assert.Equal(t, "/media", cfg.Import.MediaBaseURL)
	assert.Equal(t, "info", cfg.Log.Level)

	// Defaults alone are not servable: the signing secret is mandatory.
	assert.Error(t, cfg.Validate())
	assert.NoError(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero port", func(c *Config) { c.HTTP.Port = 0 }, "port"},
		{"port out of range", func(c *Config) { c.HTTP.Port = 70000 }, "port"},
		{"negative http timeout", func(c *Config) { c.HTTP.ReadTimeout = -time.Second }, "timeouts"},
		{"zero ping interval", func(c *Config) { c.WebSocket.PingInterval = 0 }, "ping interval"},
		{"read timeout below ping", func(c *Config) { c.WebSocket.ReadTimeout = c.WebSocket.PingInterval }, "read timeout"},
		{"zero buffer", func(c *Config) { c.WebSocket.BufferSize = 0 }, "buffer size"},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, "database path"},
		{"zero db timeout", func(c *Config) { c.Database.Timeout = 0 }, "database timeout"},
		{"missing secret", func(c *Config) { c.Auth.Secret = "" }, "secret"},
		{"weak secret", func(c *Config) { c.Auth.Secret = "short" }, "32 characters"},
		{"empty temp dir", func(c *Config) { c.Import.TempDir = "" }, "temp dir"},
		{"zero download timeout", func(c *Config) { c.Import.DownloadTimeout = 0 }, "download timeout"},
		{"file output without path", func(c *Config) { c.Log.Output = "file"; c.Log.FilePath = "" }, "file path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ECHO_HTTP_PORT", "9090")
	t.Setenv("ECHO_WS_PING_INTERVAL", "15s")
	t.Setenv("ECHO_WS_READ_TIMEOUT", "45s")
	t.Setenv("ECHO_DATABASE_PATH", "/var/lib/echo/echo.db")
	t.Setenv("ECHO_JWT_SECRET", testSecret)
	t.Setenv("ECHO_IMPORT_SOURCE_URL", "https://catalog.example.com")
	t.Setenv("ECHO_LOG_LEVEL", "debug")

	cfg := LoadFromEnv()

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 45*time.Second, cfg.WebSocket.ReadTimeout)
	assert.Equal(t, "/var/lib/echo/echo.db", cfg.Database.Path)
	assert.Equal(t, testSecret, cfg.Auth.Secret)
	assert.Equal(t, "https://catalog.example.com", cfg.Import.SourceBaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched settings keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("ECHO_HTTP_PORT", "not-a-number")
	t.Setenv("ECHO_WS_PING_INTERVAL", "soon")

	cfg := LoadFromEnv()

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingInterval)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `{
		"http": {"port": 9999, "read_timeout": "45s"},
		"websocket": {"ping_interval": "20s", "read_timeout": "90s"},
		"auth": {"secret": "`+testSecret+`"},
		"import": {"source_base_url": "https://catalog.example.com", "download_timeout": "2m"},
		"log": {"level": "warn"}
	}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTP.Port)
	assert.Equal(t, 45*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 20*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 2*time.Minute, cfg.Import.DownloadTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)

	// Settings absent from the file keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 100, cfg.WebSocket.BufferSize)
}

func TestLoadFromFile_OverridesEnv(t *testing.T) {
	t.Setenv("ECHO_HTTP_PORT", "9090")
	t.Setenv("ECHO_JWT_SECRET", testSecret)

	path := writeConfigFile(t, `{"http": {"port": 7070}}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	// File beats environment; environment still fills the gaps.
	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.Equal(t, testSecret, cfg.Auth.Secret)
}

func TestLoadFromFile_InvalidJSON(t *testing.T) {
	path := writeConfigFile(t, `{not json`)
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFile_InvalidResult(t *testing.T) {
	// A parseable file that produces an unservable config must be rejected.
	path := writeConfigFile(t, `{"auth": {"secret": "short"}}`)
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("ECHO_JWT_SECRET", testSecret)

	path := writeConfigFile(t, `{"http": {"port": 7070}}`)

	cfg := Load(path)
	assert.Equal(t, 7070, cfg.HTTP.Port)

	// A missing file falls back to environment settings.
	cfg = Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, testSecret, cfg.Auth.Secret)

	cfg = Load("")
	assert.Equal(t, testSecret, cfg.Auth.Secret)
}
