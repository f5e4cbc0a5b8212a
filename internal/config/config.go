package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings for the realtime core.
type Config struct {
	HTTP      *HTTPConfig      `json:"http"`
	WebSocket *WebSocketConfig `json:"websocket"`
	Database  *DatabaseConfig  `json:"database"`
	Auth      *AuthConfig      `json:"auth"`
	Import    *ImportConfig    `json:"import"`
	Log       *LogConfig       `json:"log"`
}

type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `json:"ping_interval"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	BufferSize   int           `json:"buffer_size"`
}

type DatabaseConfig struct {
	Path    string        `json:"path"`
	Timeout time.Duration `json:"timeout"`
}

// AuthConfig configures the HMAC credential verifier. The secret must match
// the one the account service signs tokens with.
type AuthConfig struct {
	Secret string `json:"secret"`
}

// ImportConfig configures the music import pipeline.
type ImportConfig struct {
	TempDir         string        `json:"temp_dir"`
	MediaDir        string        `json:"media_dir"`
	MediaBaseURL    string        `json:"media_base_url"`
	SourceBaseURL   string        `json:"source_base_url"`
	SourceToken     string        `json:"source_token"`
	DownloadTimeout time.Duration `json:"download_timeout"`
}

type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"` // "json" or "console"
	Output     string `json:"output"` // "stdout" or "file"
	FilePath   string `json:"file_path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// DefaultConfig returns production-ready defaults. The auth secret has no
// default and must come from the environment or a config file.
func DefaultConfig() *Config {
	return &Config{
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: &WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			BufferSize:   100,
		},
		Database: &DatabaseConfig{
			Path:    "./echocore.db",
			Timeout: 30 * time.Second,
		},
		Auth: &AuthConfig{},
		Import: &ImportConfig{
			TempDir:         "./uploads/temp",
			MediaDir:        "./uploads/media",
			MediaBaseURL:    "/media",
			DownloadTimeout: 60 * time.Second,
		},
		Log: &LogConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Validate rejects configurations that would fail at runtime.
func (c *Config) Validate() error {
	if c.HTTP == nil {
		return fmt.Errorf("http configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("http timeouts must be positive")
	}
	if c.WebSocket == nil {
		return fmt.Errorf("websocket configuration is required")
	}
	if c.WebSocket.PingInterval <= 0 {
		return fmt.Errorf("websocket ping interval must be positive")
	}
	if c.WebSocket.ReadTimeout <= c.WebSocket.PingInterval {
		return fmt.Errorf("websocket read timeout must exceed the ping interval")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("websocket buffer size must be positive")
	}
	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Database.Timeout <= 0 {
		return fmt.Errorf("database timeout must be positive")
	}
	if c.Auth == nil || c.Auth.Secret == "" {
		return fmt.Errorf("auth secret cannot be empty")
	}
	if len(c.Auth.Secret) < 32 {
		return fmt.Errorf("auth secret must be at least 32 characters")
	}
	if c.Import == nil || c.Import.TempDir == "" {
		return fmt.Errorf("import temp dir cannot be empty")
	}
	if c.Import.DownloadTimeout <= 0 {
		return fmt.Errorf("import download timeout must be positive")
	}
	if c.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	if c.Log.Output == "file" && c.Log.FilePath == "" {
		return fmt.Errorf("log file path required for file output")
	}
	return nil
}

// LoadFromEnv overlays ECHO_* environment variables onto the defaults.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if host := os.Getenv("ECHO_HTTP_HOST"); host != "" {
		cfg.HTTP.Host = host
	}
	if port := os.Getenv("ECHO_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HTTP.Port = p
		}
	}
	if v := os.Getenv("ECHO_HTTP_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ReadTimeout = d
		}
	}
	if v := os.Getenv("ECHO_HTTP_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.WriteTimeout = d
		}
	}
	if v := os.Getenv("ECHO_WS_PING_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WebSocket.PingInterval = d
		}
	}
	if v := os.Getenv("ECHO_WS_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WebSocket.ReadTimeout = d
		}
	}
	if v := os.Getenv("ECHO_WS_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WebSocket.WriteTimeout = d
		}
	}
	if v := os.Getenv("ECHO_WS_BUFFER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WebSocket.BufferSize = n
		}
	}
	if v := os.Getenv("ECHO_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ECHO_DATABASE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Database.Timeout = d
		}
	}
	if v := os.Getenv("ECHO_JWT_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("ECHO_IMPORT_TEMP_DIR"); v != "" {
		cfg.Import.TempDir = v
	}
	if v := os.Getenv("ECHO_IMPORT_MEDIA_DIR"); v != "" {
		cfg.Import.MediaDir = v
	}
	if v := os.Getenv("ECHO_IMPORT_MEDIA_BASE_URL"); v != "" {
		cfg.Import.MediaBaseURL = v
	}
	if v := os.Getenv("ECHO_IMPORT_SOURCE_URL"); v != "" {
		cfg.Import.SourceBaseURL = v
	}
	if v := os.Getenv("ECHO_IMPORT_SOURCE_TOKEN"); v != "" {
		cfg.Import.SourceToken = v
	}
	if v := os.Getenv("ECHO_IMPORT_DOWNLOAD_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Import.DownloadTimeout = d
		}
	}
	if v := os.Getenv("ECHO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ECHO_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ECHO_LOG_OUTPUT"); v != "" {
		cfg.Log.Output = v
	}
	if v := os.Getenv("ECHO_LOG_FILE"); v != "" {
		cfg.Log.FilePath = v
	}

	return cfg
}

// configFile mirrors Config with string durations for JSON parsing.
type configFile struct {
	HTTP *struct {
		Host         string `json:"host"`
		Port         int    `json:"port"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
	} `json:"http"`
	WebSocket *struct {
		PingInterval string `json:"ping_interval"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
		BufferSize   int    `json:"buffer_size"`
	} `json:"websocket"`
	Database *struct {
		Path    string `json:"path"`
		Timeout string `json:"timeout"`
	} `json:"database"`
	Auth *struct {
		Secret string `json:"secret"`
	} `json:"auth"`
	Import *struct {
		TempDir         string `json:"temp_dir"`
		MediaDir        string `json:"media_dir"`
		MediaBaseURL    string `json:"media_base_url"`
		SourceBaseURL   string `json:"source_base_url"`
		SourceToken     string `json:"source_token"`
		DownloadTimeout string `json:"download_timeout"`
	} `json:"import"`
	Log *LogConfig `json:"log"`
}

// LoadFromFile reads a JSON config file on top of env-derived settings.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg := LoadFromEnv()

	if file.HTTP != nil {
		if file.HTTP.Host != "" {
			cfg.HTTP.Host = file.HTTP.Host
		}
		if file.HTTP.Port > 0 {
			cfg.HTTP.Port = file.HTTP.Port
		}
		setDuration(&cfg.HTTP.ReadTimeout, file.HTTP.ReadTimeout)
		setDuration(&cfg.HTTP.WriteTimeout, file.HTTP.WriteTimeout)
	}
	if file.WebSocket != nil {
		setDuration(&cfg.WebSocket.PingInterval, file.WebSocket.PingInterval)
		setDuration(&cfg.WebSocket.ReadTimeout, file.WebSocket.ReadTimeout)
		setDuration(&cfg.WebSocket.WriteTimeout, file.WebSocket.WriteTimeout)
		if file.WebSocket.BufferSize > 0 {
			cfg.WebSocket.BufferSize = file.WebSocket.BufferSize
		}
	}
	if file.Database != nil {
		if file.Database.Path != "" {
			cfg.Database.Path = file.Database.Path
		}
		setDuration(&cfg.Database.Timeout, file.Database.Timeout)
	}
	if file.Auth != nil && file.Auth.Secret != "" {
		cfg.Auth.Secret = file.Auth.Secret
	}
	if file.Import != nil {
		if file.Import.TempDir != "" {
			cfg.Import.TempDir = file.Import.TempDir
		}
		if file.Import.MediaDir != "" {
			cfg.Import.MediaDir = file.Import.MediaDir
		}
		if file.Import.MediaBaseURL != "" {
			cfg.Import.MediaBaseURL = file.Import.MediaBaseURL
		}
		if file.Import.SourceBaseURL != "" {
			cfg.Import.SourceBaseURL = file.Import.SourceBaseURL
		}
		if file.Import.SourceToken != "" {
			cfg.Import.SourceToken = file.Import.SourceToken
		}
		setDuration(&cfg.Import.DownloadTimeout, file.Import.DownloadTimeout)
	}
	if file.Log != nil {
		if file.Log.Level != "" {
			cfg.Log.Level = file.Log.Level
		}
		if file.Log.Format != "" {
			cfg.Log.Format = file.Log.Format
		}
		if file.Log.Output != "" {
			cfg.Log.Output = file.Log.Output
		}
		if file.Log.FilePath != "" {
			cfg.Log.FilePath = file.Log.FilePath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves configuration with precedence: file > environment > defaults.
// A missing or unreadable file falls back to environment settings.
func Load(path string) *Config {
	if path != "" {
		if cfg, err := LoadFromFile(path); err == nil {
			return cfg
		}
	}
	return LoadFromEnv()
}

func setDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}
