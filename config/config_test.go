package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2000, cfg.Completion.TimeoutMS)
	assert.Equal(t, "ws://localhost:8888", cfg.Gateway.URL)
	assert.Equal(t, 10, cfg.Gateway.HandshakeTimeoutSeconds)
	assert.Equal(t, 10.0, cfg.Gateway.RequestsPerSecond)
	assert.Equal(t, ":8123", cfg.Server.Addr)
	assert.Equal(t, 100, cfg.Server.MaxDocuments)
}

func TestLoad_CachesConfig(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoad_EnvOverride(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Setenv("KERNELBRIDGE_GATEWAY_URL", "ws://gateway.internal:9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ws://gateway.internal:9999", cfg.Gateway.URL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernelbridge.toml")
	content := `
[completion]
timeout_ms = 500

[gateway]
url = "ws://example.test:8888"

[server]
addr = ":9000"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Completion.TimeoutMS)
	assert.Equal(t, "ws://example.test:8888", cfg.Gateway.URL)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	// Unset keys keep their defaults
	assert.Equal(t, 100, cfg.Server.MaxDocuments)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestCompletionTimeout(t *testing.T) {
	cfg := CompletionConfig{TimeoutMS: 2000}

	t.Run("no override", func(t *testing.T) {
		t.Setenv(TimeoutOverrideEnvVar, "")
		assert.Equal(t, 2*time.Second, cfg.Timeout())
	})

	t.Run("positive override wins", func(t *testing.T) {
		t.Setenv(TimeoutOverrideEnvVar, "150")
		assert.Equal(t, 150*time.Millisecond, cfg.Timeout())
	})

	t.Run("non-numeric override ignored", func(t *testing.T) {
		t.Setenv(TimeoutOverrideEnvVar, "fast")
		assert.Equal(t, 2*time.Second, cfg.Timeout())
	})

	t.Run("zero override ignored", func(t *testing.T) {
		t.Setenv(TimeoutOverrideEnvVar, "0")
		assert.Equal(t, 2*time.Second, cfg.Timeout())
	})

	t.Run("negative override ignored", func(t *testing.T) {
		t.Setenv(TimeoutOverrideEnvVar, "-5")
		assert.Equal(t, 2*time.Second, cfg.Timeout())
	})
}
