package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cairnhq/cairn/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadParsesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cairn.yaml")
	yaml := "storage:\n  data_dir: /var/lib/cairn\n  in_memory: true\nlink_type_check: false\naudit:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/cairn", cfg.Storage.DataDir)
	assert.True(t, cfg.Storage.InMemory)
	assert.False(t, cfg.LinkTypeCheck)
	assert.False(t, cfg.Audit.Enabled)
}

func TestEnvOverridesFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cairn.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  data_dir: /var/lib/cairn\n"), 0o644))

	t.Setenv("CAIRN_DATA_DIR", "/tmp/override")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override", cfg.Storage.DataDir)
}

func TestValidateRequiresDataDirUnlessInMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DataDir = ""
	cfg.Storage.InMemory = false
	assert.Error(t, cfg.Validate())

	cfg.Storage.InMemory = true
	assert.NoError(t, cfg.Validate())
}
