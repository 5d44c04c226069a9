// ==============================================================================================
// FILE: internal/config/config_test.go
// ==============================================================================================

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, dir, cfg.Root)
	require.False(t, cfg.Debug)
	require.Equal(t, "Manaknight API", cfg.OpenAPI.Title)
}

func TestLoadMkcYaml(t *testing.T) {
	dir := t.TempDir()
	yamlBody := "debug: true\nopenapi:\n  title: Custom Title\n  version: \"2.0.0\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mkc.yaml"), []byte(yamlBody), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.True(t, cfg.Debug)
	require.Equal(t, "Custom Title", cfg.OpenAPI.Title)
	require.Equal(t, "2.0.0", cfg.OpenAPI.Version)
}

func TestLoadEnvOverridesYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mkc.yaml"), []byte("openapi:\n  title: Yaml Title\n"), 0o644))
	t.Setenv("MKC_OPENAPI_TITLE", "Env Title")
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "Env Title", cfg.OpenAPI.Title)
}
