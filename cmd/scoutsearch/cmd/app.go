package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Aman-CERP/scoutsearch/internal/config"
	"github.com/Aman-CERP/scoutsearch/internal/embed"
	"github.com/Aman-CERP/scoutsearch/internal/player"
	"github.com/Aman-CERP/scoutsearch/internal/profile"
	"github.com/Aman-CERP/scoutsearch/internal/search"
	"github.com/Aman-CERP/scoutsearch/internal/store"
)

// loadConfig loads the layered configuration for the working directory.
func loadConfig() (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return config.Load(dir)
}

// openSource picks the snapshot source: an explicit path, then the SQLite
// catalog when configured and present, then the JSON snapshot.
func openSource(cfg *config.Config, snapshotPath string) (player.Source, func(), error) {
	noop := func() {}
	if snapshotPath != "" {
		return player.JSONSource{Path: snapshotPath}, noop, nil
	}

	if cfg.Data.CatalogPath != "" && fileExists(cfg.Data.CatalogPath) {
		catalog, err := store.OpenCatalog(cfg.Data.CatalogPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		return catalog, func() { _ = catalog.Close() }, nil
	}

	if cfg.Data.SnapshotPath == "" {
		return nil, nil, fmt.Errorf("no snapshot configured. Set data.snapshot_path or run 'scoutsearch enrich'")
	}
	return player.JSONSource{Path: cfg.Data.SnapshotPath}, noop, nil
}

// newEmbedder creates the configured embedder; offline forces the static one.
func newEmbedder(ctx context.Context, cfg *config.Config, offline bool) (embed.Embedder, error) {
	provider, err := embed.ParseProvider(cfg.Embeddings.Provider)
	if err != nil {
		return nil, err
	}
	if offline {
		slog.Debug("offline_mode", slog.String("provider", string(embed.ProviderStatic)))
		provider = embed.ProviderStatic
	}

	return embed.NewEmbedder(ctx, embed.Config{
		Provider:   provider,
		Model:      cfg.Embeddings.Model,
		OllamaHost: cfg.Embeddings.OllamaHost,
		BatchSize:  cfg.Embeddings.BatchSize,
		CacheSize:  cfg.Embeddings.CacheSize,
	})
}

// engineOptions translates config sections into engine options.
func engineOptions(cfg *config.Config) ([]search.EngineOption, error) {
	policy, err := profile.ParsePolicy(cfg.Profile.MissingFieldPolicy)
	if err != nil {
		return nil, err
	}

	return []search.EngineOption{
		search.WithProfileBuilder(profile.NewBuilder(profile.WithPolicy(policy))),
		search.WithDenseConfig(store.DenseConfig{
			M:              cfg.Index.M,
			EfConstruction: cfg.Index.EfConstruction,
			EfSearch:       cfg.Index.EfSearch,
			Seed:           cfg.Index.Seed,
		}),
		search.WithLexicalConfig(store.LexicalConfig{
			MaxFeatures: cfg.Index.MaxFeatures,
			MinDF:       cfg.Index.MinDF,
			MaxDF:       cfg.Index.MaxDF,
			NGramMax:    cfg.Index.NGramMax,
		}),
		search.WithDefaultAlpha(cfg.Search.Alpha),
		search.WithEmbedBatchSize(cfg.Embeddings.BatchSize),
	}, nil
}

// newEngine creates an unbuilt engine from config plus extra options.
func newEngine(cfg *config.Config, embedder embed.Embedder, extra ...search.EngineOption) (*search.Engine, error) {
	opts, err := engineOptions(cfg)
	if err != nil {
		return nil, err
	}
	return search.NewEngine(embedder, append(opts, extra...)...)
}

// buildFromSource loads a snapshot and builds engine from it.
func buildFromSource(ctx context.Context, engine *search.Engine, source player.Source) (search.BuildStats, error) {
	players, err := source.Load(ctx)
	if err != nil {
		return search.BuildStats{}, fmt.Errorf("failed to load %s: %w", source, err)
	}
	return engine.Build(ctx, players)
}

// oneShot is the engine used by search and index: config, embedder and a
// built engine over the snapshot.
type oneShot struct {
	cfg      *config.Config
	embedder embed.Embedder
	engine   *search.Engine
	source   player.Source
	stats    search.BuildStats
	closeSrc func()
}

func (o *oneShot) Close() {
	if o.closeSrc != nil {
		o.closeSrc()
	}
	if o.engine != nil {
		_ = o.engine.Close()
	}
	if o.embedder != nil {
		_ = o.embedder.Close()
	}
}

func openOneShot(ctx context.Context, snapshotPath string, offline bool, extra ...search.EngineOption) (*oneShot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	o := &oneShot{cfg: cfg}
	o.source, o.closeSrc, err = openSource(cfg, snapshotPath)
	if err != nil {
		return nil, err
	}

	o.embedder, err = newEmbedder(ctx, cfg, offline)
	if err != nil {
		o.Close()
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	o.engine, err = newEngine(cfg, o.embedder, extra...)
	if err != nil {
		o.Close()
		return nil, err
	}

	o.stats, err = buildFromSource(ctx, o.engine, o.source)
	if err != nil {
		o.Close()
		return nil, err
	}
	return o, nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
