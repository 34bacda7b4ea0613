package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "nap.config.json", `{
		"defaultEnvironment": "staging",
		"timeout": 5000,
		"retries": 2,
		"rate": 10,
		"followRedirects": false,
		"headers": {"X-Api-Key": "abc"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.DefaultEnvironment)
	assert.Equal(t, 5000, cfg.Timeout)
	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, 10.0, cfg.Rate)
	assert.False(t, cfg.GetFollowRedirects())
	assert.Equal(t, "abc", cfg.Headers["X-Api-Key"])
	// Unset fields keep their defaults
	assert.True(t, cfg.GetValidateSSL())
	assert.Equal(t, "console", cfg.Output)
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "nap.config.yaml", `
defaultEnvironment: prod
timeout: 2500
validateSSL: false
output: json
headers:
  Authorization: Bearer tok
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.DefaultEnvironment)
	assert.Equal(t, 2500, cfg.Timeout)
	assert.False(t, cfg.GetValidateSSL())
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "Bearer tok", cfg.Headers["Authorization"])
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "nap.config.json", `{not json`)

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestFindAndLoadConfig_MissingReturnsDefaults(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 30000, cfg.Timeout)
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.Equal(t, "console", cfg.Output)
}

func TestFindAndLoadConfig_PrefersJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "nap.config.json", `{"timeout": 1111}`)
	writeConfig(t, dir, "nap.config.yaml", `timeout: 2222`)

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 1111, cfg.Timeout)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"X-Base": "1"}

	merged := base.Merge(&Config{
		DefaultEnvironment: "qa",
		Timeout:            100,
		Rate:               5,
		FollowRedirects:    BoolPtr(false),
		Headers:            map[string]string{"X-Extra": "2"},
	})

	assert.Equal(t, "qa", merged.DefaultEnvironment)
	assert.Equal(t, 100, merged.Timeout)
	assert.Equal(t, 5.0, merged.Rate)
	assert.False(t, merged.GetFollowRedirects())
	assert.Equal(t, "1", merged.Headers["X-Base"])
	assert.Equal(t, "2", merged.Headers["X-Extra"])
	// Untouched fields survive the merge
	assert.Equal(t, 10, merged.MaxRedirects)
	assert.True(t, merged.GetValidateSSL())
}

func TestMerge_NilOther(t *testing.T) {
	base := DefaultConfig()
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DefaultEnvironment = "dev"
	cfg.Output = "junit"

	path := filepath.Join(dir, "nap.config.yaml")
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", loaded.DefaultEnvironment)
	assert.Equal(t, "junit", loaded.Output)
}
