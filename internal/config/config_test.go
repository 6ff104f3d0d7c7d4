package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 120, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "205", cfg.UI.Accent)
	assert.Equal(t, "127.0.0.1:8000", cfg.Stub.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	// Should return defaults
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
backend:
  baseUrl: "https://negotiate.buildmart.example"
  timeoutSeconds: 45
logging:
  level: debug
  file: /tmp/haggle.log
ui:
  accent: "39"
stub:
  addr: "0.0.0.0:9000"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://negotiate.buildmart.example", cfg.Backend.BaseURL)
	assert.Equal(t, 45, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/haggle.log", cfg.Logging.File)
	assert.Equal(t, "39", cfg.UI.Accent)
	assert.Equal(t, "0.0.0.0:9000", cfg.Stub.Addr)
}

func TestLoadPartialYAML_FillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 120, cfg.Backend.TimeoutSeconds)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HAGGLE_BACKEND_URL", "http://10.0.0.5:8000")
	t.Setenv("HAGGLE_LOG_LEVEL", "TRACE")
	t.Setenv("HAGGLE_BACKEND_TIMEOUT", "15")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, 15, cfg.Backend.TimeoutSeconds)
}

func TestLoadExpandsEnvRefs(t *testing.T) {
	t.Setenv("NEGOTIATE_HOST", "negotiate.internal")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  baseUrl: \"http://${NEGOTIATE_HOST}:8000\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://negotiate.internal:8000", cfg.Backend.BaseURL)
}

func TestLoadExpandsEnvRefs_UnsetLeftAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  file: \"${HAGGLE_UNSET_VAR_XYZ}/haggle.log\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${HAGGLE_UNSET_VAR_XYZ}/haggle.log", cfg.Logging.File)
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := map[string]any{
		"backend": map[string]any{
			"baseUrl": "http://example.test:8000",
		},
	}

	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)

	val, ok := GetValueAtPath(loaded, []string{"backend", "baseUrl"})
	assert.True(t, ok)
	assert.Equal(t, "http://example.test:8000", val)
}

func TestLoadRawMissingFile(t *testing.T) {
	raw, err := LoadRaw("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestResolvePaths(t *testing.T) {
	t.Setenv("HAGGLE_HOME", t.TempDir())
	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.NotEmpty(t, paths.Base)
	assert.Contains(t, paths.Config, "config.yaml")
	assert.Contains(t, paths.DB, "session.db")
}

func TestResolvePathsCustomHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HAGGLE_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, tmp, paths.Base)
	assert.Equal(t, filepath.Join(tmp, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(tmp, "logs", "haggle.log"), paths.LogFile())
}

func TestEnsureDirs(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HAGGLE_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirs())

	// Verify dirs exist
	for _, d := range []string{paths.Base, paths.Data, paths.Logs} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
