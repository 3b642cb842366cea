// Package config loads scoutsearch configuration.
//
// Values are layered, later layers winning:
//  1. built-in defaults (NewConfig)
//  2. user config (~/.config/scoutsearch/config.yaml)
//  3. project config (.scoutsearch.yaml in the working directory)
//  4. SCOUTSEARCH_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
)

// Config file names.
const (
	ProjectConfigFile    = ".scoutsearch.yaml"
	ProjectConfigFileAlt = ".scoutsearch.yml"
	UserConfigFile       = "config.yaml"

	// ConfigDirEnv overrides the user config directory.
	ConfigDirEnv = "SCOUTSEARCH_CONFIG_DIR"
)

// Config represents the complete scoutsearch configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Data       DataConfig       `yaml:"data" json:"data"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Index      IndexConfig      `yaml:"index" json:"index"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Profile    ProfileConfig    `yaml:"profile" json:"profile"`
	Server     ServerConfig     `yaml:"server" json:"server"`
}

// DataConfig locates input data.
type DataConfig struct {
	// SnapshotPath is the enriched player snapshot (JSON).
	SnapshotPath string `yaml:"snapshot_path" json:"snapshot_path"`

	// CatalogPath is an optional SQLite catalog. When set and present it
	// is used as the snapshot source instead of SnapshotPath.
	CatalogPath string `yaml:"catalog_path" json:"catalog_path"`

	// RawDir holds the raw export consumed by enrichment.
	RawDir string `yaml:"raw_dir" json:"raw_dir"`
}

// SearchConfig configures query defaults.
type SearchConfig struct {
	// Alpha is the dense weight in hybrid fusion (0.0-1.0).
	Alpha       float64 `yaml:"alpha" json:"alpha"`
	DefaultTopK int     `yaml:"default_top_k" json:"default_top_k"`
	MaxTopK     int     `yaml:"max_top_k" json:"max_top_k"`
	DefaultMode string  `yaml:"default_mode" json:"default_mode"`
}

// IndexConfig configures the dense and lexical indexes.
type IndexConfig struct {
	M              int   `yaml:"m" json:"m"`
	EfConstruction int   `yaml:"ef_construction" json:"ef_construction"`
	EfSearch       int   `yaml:"ef_search" json:"ef_search"`
	Seed           int64 `yaml:"seed" json:"seed"`

	MaxFeatures int     `yaml:"max_features" json:"max_features"`
	MinDF       int     `yaml:"min_df" json:"min_df"`
	MaxDF       float64 `yaml:"max_df" json:"max_df"`
	NGramMax    int     `yaml:"ngram_max" json:"ngram_max"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "ollama", "static", or empty for auto-detection.
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"` // empty uses http://localhost:11434
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	// CacheSize bounds the query embedding cache; negative disables it.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// ProfileConfig configures profile generation.
type ProfileConfig struct {
	// MissingFieldPolicy is "skip", "fail", or "placeholder".
	MissingFieldPolicy string `yaml:"missing_field_policy" json:"missing_field_policy"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr          string `yaml:"addr" json:"addr"`
	LogLevel      string `yaml:"log_level" json:"log_level"`
	Watch         bool   `yaml:"watch" json:"watch"`
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
	Metrics       bool   `yaml:"metrics" json:"metrics"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Data: DataConfig{
			SnapshotPath: "summary_player_info.json",
			RawDir:       "raw_data",
		},
		Search: SearchConfig{
			Alpha:       0.7,
			DefaultTopK: 10,
			MaxTopK:     100,
			DefaultMode: "hybrid",
		},
		Index: IndexConfig{
			M:              32,
			EfConstruction: 200,
			EfSearch:       64,
			Seed:           42,
			MaxFeatures:    5000,
			MinDF:          2,
			MaxDF:          0.8,
			NGramMax:       2,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "", // auto: Ollama when reachable, else static
			Model:     "all-minilm",
			BatchSize: 32,
			CacheSize: 1000,
		},
		Profile: ProfileConfig{
			MissingFieldPolicy: "skip",
		},
		Server: ServerConfig{
			Addr:          ":8000",
			LogLevel:      "info",
			WatchDebounce: "500ms",
			Metrics:       true,
		},
	}
}

// GetUserConfigPath returns the user config file path, honouring
// SCOUTSEARCH_CONFIG_DIR and XDG_CONFIG_HOME.
func GetUserConfigPath() string {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return filepath.Join(dir, UserConfigFile)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scoutsearch", UserConfigFile)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "scoutsearch", UserConfigFile)
	}
	return filepath.Join(home, ".config", "scoutsearch", UserConfigFile)
}

// GetUserConfigDir returns the directory holding the user config.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether a user config file is present.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds the layered configuration for a project directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if path := projectConfigPath(dir); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadUserConfig returns defaults overlaid with the user config file only,
// or nil when no user config exists. Fields missing from the file keep
// their defaults, so writing the result back upgrades the file.
func LoadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// projectConfigPath returns the project config file in dir, preferring
// .yaml over .yml, or "" when neither exists.
func projectConfigPath(dir string) string {
	for _, name := range []string{ProjectConfigFile, ProjectConfigFileAlt} {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p
		}
	}
	return ""
}

// loadYAML decodes path over c. Keys absent from the file keep their
// current value, so explicit zero values (alpha: 0) still apply.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return serrors.New(serrors.ErrCodeConfigInvalid,
			fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}
	return nil
}

// applyEnvOverrides applies SCOUTSEARCH_* variables. Unparseable numeric
// values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCOUTSEARCH_SNAPSHOT"); v != "" {
		c.Data.SnapshotPath = v
	}
	if v := os.Getenv("SCOUTSEARCH_CATALOG"); v != "" {
		c.Data.CatalogPath = v
	}
	if v := os.Getenv("SCOUTSEARCH_RAW_DIR"); v != "" {
		c.Data.RawDir = v
	}

	if v := os.Getenv("SCOUTSEARCH_ALPHA"); v != "" {
		if a, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && a >= 0 && a <= 1 {
			c.Search.Alpha = a
		}
	}
	if v := os.Getenv("SCOUTSEARCH_TOP_K"); v != "" {
		if k, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && k > 0 {
			c.Search.DefaultTopK = k
		}
	}

	if v := os.Getenv("SCOUTSEARCH_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("SCOUTSEARCH_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("SCOUTSEARCH_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}

	if v := os.Getenv("SCOUTSEARCH_MISSING_FIELD_POLICY"); v != "" {
		c.Profile.MissingFieldPolicy = v
	}

	if v := os.Getenv("SCOUTSEARCH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SCOUTSEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("SCOUTSEARCH_WATCH"); v != "" {
		c.Server.Watch = strings.EqualFold(v, "true") || v == "1"
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return serrors.Newf(serrors.ErrCodeConfigInvalid, format, args...)
	}

	if c.Data.SnapshotPath == "" && c.Data.CatalogPath == "" {
		return invalid("data.snapshot_path or data.catalog_path must be set")
	}

	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return invalid("search.alpha must be between 0 and 1, got %v", c.Search.Alpha)
	}
	if c.Search.DefaultTopK <= 0 {
		return invalid("search.default_top_k must be positive, got %d", c.Search.DefaultTopK)
	}
	if c.Search.MaxTopK < c.Search.DefaultTopK {
		return invalid("search.max_top_k (%d) must be at least default_top_k (%d)",
			c.Search.MaxTopK, c.Search.DefaultTopK)
	}
	switch strings.ToLower(c.Search.DefaultMode) {
	case "hybrid", "semantic":
	default:
		return invalid("search.default_mode must be 'hybrid' or 'semantic', got %s", c.Search.DefaultMode)
	}

	if c.Index.M < 2 {
		return invalid("index.m must be at least 2, got %d", c.Index.M)
	}
	if c.Index.EfConstruction <= 0 || c.Index.EfSearch <= 0 {
		return invalid("index.ef_construction and index.ef_search must be positive")
	}
	if c.Index.MaxFeatures <= 0 {
		return invalid("index.max_features must be positive, got %d", c.Index.MaxFeatures)
	}
	if c.Index.MinDF < 1 {
		return invalid("index.min_df must be at least 1, got %d", c.Index.MinDF)
	}
	if c.Index.MaxDF <= 0 || c.Index.MaxDF > 1 {
		return invalid("index.max_df must be in (0, 1], got %v", c.Index.MaxDF)
	}
	if c.Index.NGramMax < 1 || c.Index.NGramMax > 2 {
		return invalid("index.ngram_max must be 1 or 2, got %d", c.Index.NGramMax)
	}

	switch strings.ToLower(c.Embeddings.Provider) {
	case "", "ollama", "static":
	default:
		return invalid("embeddings.provider must be 'ollama', 'static', or empty (auto-detect), got %s",
			c.Embeddings.Provider)
	}
	if c.Embeddings.BatchSize <= 0 {
		return invalid("embeddings.batch_size must be positive, got %d", c.Embeddings.BatchSize)
	}

	switch c.Profile.MissingFieldPolicy {
	case "", "skip", "fail", "placeholder":
	default:
		return invalid("profile.missing_field_policy must be 'skip', 'fail', or 'placeholder', got %s",
			c.Profile.MissingFieldPolicy)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return invalid("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}
	if _, err := c.Server.Debounce(); err != nil {
		return invalid("server.watch_debounce: %v", err)
	}

	return nil
}

// Debounce parses WatchDebounce. Empty means 500ms.
func (s ServerConfig) Debounce() (time.Duration, error) {
	if s.WatchDebounce == "" {
		return 500 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s.WatchDebounce)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", s.WatchDebounce)
	}
	return d, nil
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
