package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000", cfg.ClassifierURL)
	assert.Equal(t, "http", cfg.PersistenceBackend)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
classifier_url: http://classifier.internal:4000
persistence_backend: memory
http_timeout: 5s
sync_concurrency: 2
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SYNC_CONCURRENCY", "16")

	// Act
	cfg, err := LoadConfig()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "http://classifier.internal:4000", cfg.ClassifierURL)
	assert.Equal(t, "memory", cfg.PersistenceBackend)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 16, cfg.SyncConcurrency)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.PersistenceBackend = "sqlite" }},
		{"missing classifier", func(c *Config) { c.ClassifierURL = "" }},
		{"bad breaker ratio", func(c *Config) { c.BreakerFailureRatio = 2 }},
		{"eventbridge without bus", func(c *Config) { c.EnableEventBridge = true; c.EventBusName = "" }},
		{"negative rate limit", func(c *Config) { c.RateLimitPerMinute = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_AllowedOrigins(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, ,http://localhost:3000")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
}
