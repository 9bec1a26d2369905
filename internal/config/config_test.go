package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestManager_LoadJSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
		"port": 9090,
		"api_key": "secret",
		"backend": {"endpoint": "https://api.example.com/v1", "api_key": "bk"},
		"model_overrides": {
			"my-model": {"backend_type": "generic", "requires_normalization": true}
		}
	}`)

	cfg, err := NewManagerWithPath(path).Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, "https://api.example.com/v1", cfg.Backend.Endpoint)

	override, ok := cfg.Overrides["my-model"]
	require.True(t, ok)
	assert.Equal(t, "generic", override.BackendType)
	assert.True(t, override.RequiresNormalization)
}

func TestManager_LoadYAML(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
host: 0.0.0.0
backend:
  endpoint: https://api.example.com/v1
  api_key: bk
`)

	cfg, err := NewManagerWithPath(path).Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "bk", cfg.Backend.APIKey)
}

func TestManager_LoadMissingFile(t *testing.T) {
	m := NewManagerWithPath(filepath.Join(t.TempDir(), "missing.json"))

	_, err := m.Load()
	assert.Error(t, err)
	assert.False(t, m.Exists())

	// Get falls back to defaults instead of failing.
	cfg := m.Get()
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultHost, cfg.Host)
}

func TestManager_SaveRoundTrip(t *testing.T) {
	m := NewManagerWithPath(filepath.Join(t.TempDir(), "nested", "config.json"))

	saved := &Config{
		Port:    8123,
		Backend: Backend{Endpoint: "https://api.example.com/v1"},
	}

	require.NoError(t, m.Save(saved))
	assert.True(t, m.Exists())

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, 8123, loaded.Port)
	assert.Equal(t, saved.Backend.Endpoint, loaded.Backend.Endpoint)
}

func TestManager_GetServesCachedConfig(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{"port": 7001, "backend": {"endpoint": "e"}}`)
	m := NewManagerWithPath(path)

	_, err := m.Load()
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	// The loaded value survives the file going away.
	assert.Equal(t, 7001, m.Get().Port)
}

func TestNewManager_UsesDefaultFilename(t *testing.T) {
	m := NewManager("/tmp/llm-bridge-test")

	assert.Equal(t, filepath.Join("/tmp/llm-bridge-test", DefaultConfigFilename), m.GetPath())
}
