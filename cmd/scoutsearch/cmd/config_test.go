package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/scoutsearch/internal/config"
)

func TestConfigInit_CreatesDefaults(t *testing.T) {
	// Given: an empty config dir
	dir := t.TempDir()
	t.Setenv(config.ConfigDirEnv, dir)

	// When: running config init
	out, err := execute(t, "config", "init")

	// Then: a default config is written
	require.NoError(t, err)
	assert.Contains(t, out, "Created user configuration")
	data, err := os.ReadFile(filepath.Join(dir, config.UserConfigFile))
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, *config.NewConfig(), cfg)
	assert.Contains(t, string(data), "# Dense weight in hybrid ranking")
}

func TestConfigInit_ExistingWithoutForce(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.ConfigDirEnv, dir)
	path := filepath.Join(dir, config.UserConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("search:\n  alpha: 0.3\n"), 0o644))

	out, err := execute(t, "config", "init")

	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "search:\n  alpha: 0.3\n", string(data))
}

func TestConfigInit_ForceBacksUpAndKeepsSettings(t *testing.T) {
	// Given: a partial user config
	dir := t.TempDir()
	t.Setenv(config.ConfigDirEnv, dir)
	path := filepath.Join(dir, config.UserConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("search:\n  alpha: 0.3\n"), 0o644))

	// When: forcing init
	out, err := execute(t, "config", "init", "--force")

	// Then: the old file is backed up and the new one keeps alpha with defaults filled in
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration upgraded")
	backups, err := config.ListUserConfigBackups()
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	cfg, err := config.LoadUserConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.InDelta(t, 0.3, cfg.Search.Alpha, 1e-9)
	assert.Equal(t, 10, cfg.Search.DefaultTopK)
}

func TestConfigShow(t *testing.T) {
	isolateCLI(t)

	t.Run("merged json", func(t *testing.T) {
		out, err := execute(t, "config", "show", "--json")

		require.NoError(t, err)
		var cfg config.Config
		require.NoError(t, json.Unmarshal([]byte(out), &cfg))
		assert.Equal(t, "static", cfg.Embeddings.Provider)
		assert.Equal(t, 1, cfg.Index.MinDF)
	})

	t.Run("defaults yaml", func(t *testing.T) {
		out, err := execute(t, "config", "show", "--source", "defaults")

		require.NoError(t, err)
		var cfg config.Config
		require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
		assert.Equal(t, "", cfg.Embeddings.Provider)
		assert.Equal(t, 2, cfg.Index.MinDF)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := execute(t, "config", "show", "--source", "project")
		require.Error(t, err)
	})
}
