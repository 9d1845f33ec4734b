package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvGeminiAPIKey, "")

	cfg, err := Load("")
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "  secret ")
	t.Setenv(EnvModel, "gemini-2.5-pro")
	t.Setenv(EnvListenAddr, "127.0.0.1:9000")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
}

func TestGeminiAPIKeyFallback(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(func(key string) (string, bool) {
		if key == EnvGeminiAPIKey {
			return "fallback", true
		}
		return "", false
	})
	assert.Equal(t, "fallback", cfg.Gemini.APIKey)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Gemini.APIKey = "never-written"
	cfg.Server.ListenAddr = ":9090"
	require.NoError(t, cfg.SaveToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "never-written")

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", loaded.Server.ListenAddr)
	assert.Empty(t, loaded.Gemini.APIKey)

	t.Setenv(EnvAPIKey, "k")
	t.Setenv(EnvListenAddr, "")
	full, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", full.Server.ListenAddr)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Gemini.APIKey = "k"
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Gemini.Model = "" }},
		{"empty addr", func(c *Config) { c.Server.ListenAddr = "" }},
		{"upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"session limit", func(c *Config) { c.Server.MaxSessions = 0 }},
		{"preview size", func(c *Config) { c.Preview.MaxSize = 4 }},
		{"preview quality", func(c *Config) { c.Preview.Quality = 101 }},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
