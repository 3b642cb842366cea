package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
)

// isolate points the user config at an empty temp dir and clears overrides.
func isolate(t *testing.T) (userDir, projectDir string) {
	t.Helper()
	userDir = t.TempDir()
	projectDir = t.TempDir()
	t.Setenv(ConfigDirEnv, userDir)
	for _, name := range []string{
		"SCOUTSEARCH_SNAPSHOT", "SCOUTSEARCH_CATALOG", "SCOUTSEARCH_RAW_DIR",
		"SCOUTSEARCH_ALPHA", "SCOUTSEARCH_TOP_K", "SCOUTSEARCH_EMBEDDINGS_PROVIDER",
		"SCOUTSEARCH_EMBEDDINGS_MODEL", "SCOUTSEARCH_OLLAMA_HOST",
		"SCOUTSEARCH_MISSING_FIELD_POLICY", "SCOUTSEARCH_ADDR",
		"SCOUTSEARCH_LOG_LEVEL", "SCOUTSEARCH_WATCH",
	} {
		t.Setenv(name, "")
	}
	return userDir, projectDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "summary_player_info.json", cfg.Data.SnapshotPath)
	assert.Equal(t, 0.7, cfg.Search.Alpha)
	assert.Equal(t, 10, cfg.Search.DefaultTopK)
	assert.Equal(t, 100, cfg.Search.MaxTopK)
	assert.Equal(t, "hybrid", cfg.Search.DefaultMode)

	assert.Equal(t, 32, cfg.Index.M)
	assert.Equal(t, 200, cfg.Index.EfConstruction)
	assert.Equal(t, 5000, cfg.Index.MaxFeatures)
	assert.Equal(t, 2, cfg.Index.MinDF)
	assert.Equal(t, 0.8, cfg.Index.MaxDF)
	assert.Equal(t, 2, cfg.Index.NGramMax)

	assert.Equal(t, "", cfg.Embeddings.Provider) // auto-detect
	assert.Equal(t, "all-minilm", cfg.Embeddings.Model)
	assert.Equal(t, 32, cfg.Embeddings.BatchSize)
	assert.Equal(t, "skip", cfg.Profile.MissingFieldPolicy)
	assert.Equal(t, ":8000", cfg.Server.Addr)

	require.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	_, projectDir := isolate(t)

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_ProjectFileOverridesDefaults(t *testing.T) {
	// Given: a project config setting a few keys
	_, projectDir := isolate(t)
	writeFile(t, filepath.Join(projectDir, ProjectConfigFile), `
search:
  alpha: 0.5
  default_top_k: 5
index:
  min_df: 1
profile:
  missing_field_policy: placeholder
`)

	// When: loading
	cfg, err := Load(projectDir)

	// Then: those keys change and everything else keeps its default
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Search.Alpha)
	assert.Equal(t, 5, cfg.Search.DefaultTopK)
	assert.Equal(t, 100, cfg.Search.MaxTopK)
	assert.Equal(t, 1, cfg.Index.MinDF)
	assert.Equal(t, 0.8, cfg.Index.MaxDF)
	assert.Equal(t, "placeholder", cfg.Profile.MissingFieldPolicy)
}

func TestLoad_ExplicitZeroAlphaApplies(t *testing.T) {
	_, projectDir := isolate(t)
	writeFile(t, filepath.Join(projectDir, ProjectConfigFile), "search:\n  alpha: 0\n")

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Search.Alpha)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	_, projectDir := isolate(t)
	writeFile(t, filepath.Join(projectDir, ProjectConfigFile), "embeddings:\n  model: from-yaml\n")
	writeFile(t, filepath.Join(projectDir, ProjectConfigFileAlt), "embeddings:\n  model: from-yml\n")

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.Embeddings.Model)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	_, projectDir := isolate(t)
	writeFile(t, filepath.Join(projectDir, ProjectConfigFileAlt), "server:\n  addr: :9000\n")

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoad_Layering(t *testing.T) {
	// Given: user config, project config, and an env override
	userDir, projectDir := isolate(t)
	writeFile(t, filepath.Join(userDir, UserConfigFile), `
embeddings:
  provider: ollama
  model: user-model
  ollama_host: http://gpu-box:11434
`)
	writeFile(t, filepath.Join(projectDir, ProjectConfigFile), `
embeddings:
  model: project-model
`)
	t.Setenv("SCOUTSEARCH_OLLAMA_HOST", "http://env-host:11434")

	// When: loading
	cfg, err := Load(projectDir)

	// Then: each layer wins over the previous one for the keys it sets
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, "project-model", cfg.Embeddings.Model)
	assert.Equal(t, "http://env-host:11434", cfg.Embeddings.OllamaHost)
}

func TestLoad_EnvOverrides(t *testing.T) {
	_, projectDir := isolate(t)
	t.Setenv("SCOUTSEARCH_SNAPSHOT", "/data/players.json")
	t.Setenv("SCOUTSEARCH_ALPHA", "0.25")
	t.Setenv("SCOUTSEARCH_TOP_K", "20")
	t.Setenv("SCOUTSEARCH_EMBEDDINGS_PROVIDER", "static")
	t.Setenv("SCOUTSEARCH_MISSING_FIELD_POLICY", "fail")
	t.Setenv("SCOUTSEARCH_LOG_LEVEL", "debug")
	t.Setenv("SCOUTSEARCH_WATCH", "true")

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "/data/players.json", cfg.Data.SnapshotPath)
	assert.Equal(t, 0.25, cfg.Search.Alpha)
	assert.Equal(t, 20, cfg.Search.DefaultTopK)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, "fail", cfg.Profile.MissingFieldPolicy)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.True(t, cfg.Server.Watch)
}

func TestLoad_InvalidEnvNumbersIgnored(t *testing.T) {
	_, projectDir := isolate(t)
	t.Setenv("SCOUTSEARCH_ALPHA", "1.5")
	t.Setenv("SCOUTSEARCH_TOP_K", "many")

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Search.Alpha)
	assert.Equal(t, 10, cfg.Search.DefaultTopK)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	_, projectDir := isolate(t)
	writeFile(t, filepath.Join(projectDir, ProjectConfigFile), "search: [unclosed\n")

	cfg, err := Load(projectDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Equal(t, serrors.ErrCodeConfigInvalid, serrors.GetCode(err))
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	userDir, projectDir := isolate(t)
	writeFile(t, filepath.Join(userDir, UserConfigFile), "embeddings:\n  model: [invalid yaml\n")

	cfg, err := Load(projectDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "user config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"alpha too high", func(c *Config) { c.Search.Alpha = 1.2 }, "search.alpha"},
		{"negative alpha", func(c *Config) { c.Search.Alpha = -0.1 }, "search.alpha"},
		{"zero top_k", func(c *Config) { c.Search.DefaultTopK = 0 }, "default_top_k"},
		{"max below default", func(c *Config) { c.Search.MaxTopK = 5 }, "max_top_k"},
		{"bad mode", func(c *Config) { c.Search.DefaultMode = "fuzzy" }, "default_mode"},
		{"small m", func(c *Config) { c.Index.M = 1 }, "index.m"},
		{"zero min_df", func(c *Config) { c.Index.MinDF = 0 }, "min_df"},
		{"max_df above one", func(c *Config) { c.Index.MaxDF = 1.5 }, "max_df"},
		{"trigrams", func(c *Config) { c.Index.NGramMax = 3 }, "ngram_max"},
		{"bad provider", func(c *Config) { c.Embeddings.Provider = "openai" }, "embeddings.provider"},
		{"bad policy", func(c *Config) { c.Profile.MissingFieldPolicy = "ignore" }, "missing_field_policy"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "trace" }, "log_level"},
		{"bad debounce", func(c *Config) { c.Server.WatchDebounce = "soon" }, "watch_debounce"},
		{"no data source", func(c *Config) { c.Data.SnapshotPath = "" }, "snapshot_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Equal(t, serrors.ErrCodeConfigInvalid, serrors.GetCode(err))
		})
	}
}

func TestServerConfig_Debounce(t *testing.T) {
	d, err := ServerConfig{}.Debounce()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)

	d, err = ServerConfig{WatchDebounce: "2s"}.Debounce()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	_, err = ServerConfig{WatchDebounce: "-1s"}.Debounce()
	assert.Error(t, err)
}

func TestGetUserConfigPath(t *testing.T) {
	t.Run("config dir override", func(t *testing.T) {
		t.Setenv(ConfigDirEnv, "/opt/scout")
		assert.Equal(t, "/opt/scout/config.yaml", GetUserConfigPath())
	})

	t.Run("xdg", func(t *testing.T) {
		t.Setenv(ConfigDirEnv, "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		assert.Equal(t, "/xdg/scoutsearch/config.yaml", GetUserConfigPath())
		assert.Equal(t, "/xdg/scoutsearch", GetUserConfigDir())
	})
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	userDir, projectDir := isolate(t)
	cfg := NewConfig()
	cfg.Search.Alpha = 0.4
	cfg.Embeddings.Provider = "static"

	require.NoError(t, cfg.WriteYAML(filepath.Join(userDir, UserConfigFile)))
	assert.True(t, UserConfigExists())

	loaded, err := Load(projectDir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadUserConfig(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		isolate(t)

		cfg, err := LoadUserConfig()

		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("partial file keeps new defaults", func(t *testing.T) {
		// Given: a user config that only sets the model
		userDir, _ := isolate(t)
		writeFile(t, filepath.Join(userDir, UserConfigFile), "embeddings:\n  model: nomic-embed-text\n")
		t.Setenv("SCOUTSEARCH_ALPHA", "0.2")

		// When: loading the user layer alone
		cfg, err := LoadUserConfig()

		// Then: the file value applies, env overrides do not
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
		assert.Equal(t, 32, cfg.Embeddings.BatchSize)
		assert.InDelta(t, 0.7, cfg.Search.Alpha, 1e-9)
	})
}
