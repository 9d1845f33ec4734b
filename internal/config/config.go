package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingAPIKey is returned when no API key is present in the environment
var ErrMissingAPIKey = errors.New("API_KEY environment variable is not set")

// Environment variables read by Load
const (
	EnvAPIKey       = "API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvModel        = "GEMINI_MODEL"
	EnvListenAddr   = "AGRI_LISTEN_ADDR"
	EnvLogLevel     = "AGRI_LOG_LEVEL"
)

// Config holds the application configuration
type Config struct {
	Gemini  GeminiConfig  `json:"gemini"`
	Server  ServerConfig  `json:"server"`
	Preview PreviewConfig `json:"preview"`
	Log     LogConfig     `json:"log"`
}

// GeminiConfig holds the model settings. The API key only ever comes from
// the environment and is never written to disk.
type GeminiConfig struct {
	APIKey  string `json:"-"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
}

// ServerConfig holds configuration for the web interface
type ServerConfig struct {
	ListenAddr     string `json:"listen_addr"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
	MaxSessions    int    `json:"max_sessions"`
}

// PreviewConfig holds configuration for image previews
type PreviewConfig struct {
	MaxSize int `json:"max_size"`
	Quality int `json:"quality"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Server: ServerConfig{
			ListenAddr:     ":8080",
			MaxUploadBytes: 10 << 20,
			MaxSessions:    100,
		},
		Preview: PreviewConfig{
			MaxSize: 480,
			Quality: 80,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration once at process start: defaults, then the
// optional JSON file at path, then the environment. It fails when the API key
// is missing or a value is out of range.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(filename); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides values from the environment using lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && strings.TrimSpace(v) != "" {
		c.Gemini.APIKey = strings.TrimSpace(v)
	} else if v, ok := lookup(EnvGeminiAPIKey); ok && strings.TrimSpace(v) != "" {
		c.Gemini.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvModel); ok && v != "" {
		c.Gemini.Model = v
	}
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		c.Server.ListenAddr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return ErrMissingAPIKey
	}

	if c.Gemini.Model == "" {
		return fmt.Errorf("gemini.model cannot be empty")
	}

	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr cannot be empty")
	}

	if c.Server.MaxUploadBytes < 1 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}

	if c.Server.MaxSessions < 1 {
		return fmt.Errorf("server.max_sessions must be positive")
	}

	if c.Preview.MaxSize < 16 {
		return fmt.Errorf("preview.max_size must be at least 16")
	}

	if c.Preview.Quality < 1 || c.Preview.Quality > 100 {
		return fmt.Errorf("preview.quality must be between 1 and 100")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "agri-assistant", "config.json")
}
