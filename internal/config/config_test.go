package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadNoPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "snoopy", cfg.VersionSalt)
	require.Equal(t, "/tmp", cfg.StoragePath)
	require.Equal(t, "metadata", cfg.MetadataDBTable)
	require.False(t, cfg.SafeMode)
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eoss.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version_salt: "pepper"
storage_path: /var/lib/eoss/storage
safemode: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "pepper", cfg.VersionSalt)
	require.Equal(t, "/var/lib/eoss/storage", cfg.StoragePath)
	require.True(t, cfg.SafeMode)
	// untouched keys still get spec defaults
	require.Equal(t, "metadata", cfg.MetadataDBTable)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/eoss.yaml")
	require.Error(t, err)
}

func TestLoadRejectsInvalidLoggingLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eoss.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging_level: TRACE\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eoss.yaml")

	cfg := Default()
	cfg.SafeMode = true
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.SafeMode)
}
