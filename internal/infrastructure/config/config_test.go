package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Address())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "code-storage", cfg.Storage.Key)
	assert.Equal(t, SandboxHeadless, cfg.Sandbox.Mode)
	assert.Equal(t, 5*time.Second, cfg.Sandbox.Timeout)
	assert.Equal(t, 10000, cfg.Console.MaxLines)
	assert.Equal(t, "project.html", cfg.Export.Filename)
	assert.Equal(t, "My HTML Page", cfg.Export.DefaultTitle)

	require.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":              "9000",
		"HOST":              "127.0.0.1",
		"CORS_ORIGINS":      "http://a.test,http://b.test",
		"LOG_LEVEL":         "debug",
		"LOG_DEV":           "true",
		"STORAGE_BACKEND":   "sqlite",
		"STORAGE_PATH":      "/tmp/p.db",
		"SANDBOX_MODE":      "browser",
		"SANDBOX_TIMEOUT":   "250ms",
		"SANDBOX_POOL_SIZE": "8",
		"CONSOLE_MAX_LINES": "0",
		"EXPORT_FILENAME":   "page.html",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Address())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/p.db", cfg.Storage.Path)
	assert.Equal(t, SandboxBrowser, cfg.Sandbox.Mode)
	assert.Equal(t, 250*time.Millisecond, cfg.Sandbox.Timeout)
	assert.Equal(t, 8, cfg.Sandbox.PoolSize)
	assert.Equal(t, 0, cfg.Console.MaxLines)
	assert.Equal(t, "page.html", cfg.Export.Filename)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown sandbox mode", key: "SANDBOX_MODE", value: "docker"},
		{name: "negative console bound", key: "CONSOLE_MAX_LINES", value: "-1"},
		{name: "malformed duration", key: "SANDBOX_TIMEOUT", value: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)

			// falls back to defaults
			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}
