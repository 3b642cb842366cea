package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scoutsearch/internal/api"
	"github.com/Aman-CERP/scoutsearch/internal/async"
	"github.com/Aman-CERP/scoutsearch/internal/config"
	"github.com/Aman-CERP/scoutsearch/internal/embed"
	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/logging"
	"github.com/Aman-CERP/scoutsearch/internal/mcp"
	"github.com/Aman-CERP/scoutsearch/internal/metrics"
	"github.com/Aman-CERP/scoutsearch/internal/player"
	"github.com/Aman-CERP/scoutsearch/internal/search"
	"github.com/Aman-CERP/scoutsearch/internal/store"
	"github.com/Aman-CERP/scoutsearch/internal/telemetry"
	"github.com/Aman-CERP/scoutsearch/internal/watcher"
	"github.com/Aman-CERP/scoutsearch/pkg/version"
)

// serveOptions holds CLI flags for serve.
type serveOptions struct {
	addr     string
	mcp      bool
	watch    bool
	offline  bool
	snapshot string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve player search over HTTP or MCP",
		Long: `Load the snapshot, build the indexes in the background and serve queries.

The HTTP API answers /health immediately; /search returns 503 until the
first build completes. With --mcp the search tools are served to an MCP
client over stdio instead, and nothing but JSON-RPC is written to stdout.

With --watch the snapshot file is watched and the indexes are rebuilt and
swapped in whenever it changes. Queries keep using the previous index
until the new one is ready; a failed rebuild keeps the previous index.`,
		Example: `  scoutsearch serve
  scoutsearch serve --addr :9000 --watch
  scoutsearch serve --mcp --offline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (default from config, :8000)")
	cmd.Flags().BoolVar(&opts.mcp, "mcp", false, "Serve MCP over stdio instead of HTTP")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Rebuild when the snapshot changes")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use static embeddings (skip Ollama)")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Snapshot file to serve (overrides config)")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	watch := opts.watch || cfg.Server.Watch

	// Stdout carries JSON-RPC in MCP mode, so logs go to the file only.
	if loggingCleanup == nil {
		cleanup, err := setupServeLogging(cfg, opts.mcp)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source, closeSource, err := openSource(cfg, opts.snapshot)
	if err != nil {
		return err
	}
	defer closeSource()

	embedder, err := newEmbedder(ctx, cfg, opts.offline)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	var metricsManager *metrics.Manager
	var extra []search.EngineOption
	if cfg.Server.Metrics && !opts.mcp {
		metricsManager = metrics.NewManager()
		extra = append(extra, search.WithObserver(metricsManager))
	}

	var engine *search.Engine
	indexer := async.NewBackgroundIndexer(func(ctx context.Context, _ *async.IndexProgress) error {
		return initialBuild(ctx, engine, source)
	})
	progress := indexer.Progress()

	extra = append(extra, search.WithProgress(progress.Observe))
	engine, err = newEngine(cfg, embedder, extra...)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	info := embed.GetInfo(embedder)
	slog.Info("serve_starting",
		slog.String("source", source.String()),
		slog.String("provider", info.Provider.String()),
		slog.String("model", info.Model),
		slog.Bool("mcp", opts.mcp),
		slog.Bool("watch", watch),
		slog.String("version", version.Version))

	indexer.Start(ctx)
	defer indexer.Stop()

	// A failed initial build is fatal: stop serving and return its error.
	serveCtx, stopServing := context.WithCancel(ctx)
	defer stopServing()
	buildFailed := make(chan error, 1)
	go func() {
		select {
		case <-indexer.Done():
		case <-serveCtx.Done():
			return
		}
		if err := indexer.Wait(); err != nil && ctx.Err() == nil {
			buildFailed <- err
			stopServing()
		}
	}()

	queries := telemetry.NewQueryMetrics(telemetry.DefaultConfig())

	if watch {
		if err := startWatching(serveCtx, cfg, engine, source, progress); err != nil {
			// Serving the initial snapshot still works without a watcher.
			slog.Warn("watch_unavailable", slog.String("error", err.Error()))
		}
	}

	if opts.mcp {
		server, err := mcp.NewServer(engine,
			mcp.WithEmbedder(embedder, info.Provider.String()),
			mcp.WithTopKLimits(cfg.Search.DefaultTopK, cfg.Search.MaxTopK),
			mcp.WithTelemetry(queries))
		if err != nil {
			return err
		}
		server.SetIndexProgress(progress)
		err = server.Serve(serveCtx, "stdio")
		return serveResult(err, buildFailed)
	}

	mode, err := search.ParseMode(cfg.Search.DefaultMode)
	if err != nil {
		return err
	}
	apiOpts := []api.Option{
		api.WithTopKLimits(cfg.Search.DefaultTopK, cfg.Search.MaxTopK),
		api.WithDefaultMode(mode),
		api.WithVersion(version.Version),
		api.WithTelemetry(queries),
	}
	if metricsManager != nil {
		apiOpts = append(apiOpts, api.WithMetrics(metricsManager))
	}

	slog.Info("http_server_listening", slog.String("addr", cfg.Server.Addr))
	err = api.NewServer(engine, apiOpts...).ListenAndServe(serveCtx, cfg.Server.Addr)
	return serveResult(err, buildFailed)
}

// serveResult prefers a failed initial build over the server's own exit
// error, and treats a cancelled server as a clean stop.
func serveResult(err error, buildFailed <-chan error) error {
	select {
	case buildErr := <-buildFailed:
		slog.Error("serve_stopped", slog.String("reason", "initial_index_failed"))
		return serrors.New(serrors.ErrCodeInternal, "initial index build failed: "+buildErr.Error(), buildErr).
			WithSuggestion("Run 'scoutsearch doctor' to check the snapshot")
	default:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func setupServeLogging(cfg *config.Config, stdio bool) (func(), error) {
	level := cfg.Server.LogLevel
	if debugMode {
		level = "debug"
	}
	if stdio {
		return logging.SetupStdioMode(level)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	return logging.SetupDefault(logCfg)
}

// initialBuild is the first build, run by the background indexer so the
// server accepts connections meanwhile.
func initialBuild(ctx context.Context, engine *search.Engine, source player.Source) error {
	stats, err := buildFromSource(ctx, engine, source)
	if err != nil {
		return err
	}
	slog.Info("initial_index_ready",
		slog.Int("players", stats.Indexed),
		slog.Int("skipped", stats.Skipped),
		slog.Duration("duration", stats.Duration))
	return nil
}

// snapshotPath returns the file a source reads, for watching.
func snapshotPath(cfg *config.Config, source player.Source) (string, error) {
	switch s := source.(type) {
	case player.JSONSource:
		return s.Path, nil
	case *store.Catalog:
		return cfg.Data.CatalogPath, nil
	default:
		return "", fmt.Errorf("cannot watch source %s", source)
	}
}

// rebuildOnChange reloads source and rebuilds engine. A failed rebuild
// leaves the previous index serving.
func rebuildOnChange(engine *search.Engine, source player.Source, progress *async.IndexProgress) watcher.RebuildFunc {
	return func(ctx context.Context, _ []watcher.FileEvent) error {
		progress.Restart()
		stats, err := buildFromSource(ctx, engine, source)
		if err != nil {
			progress.SetError(err.Error())
			return err
		}
		progress.SetReady()
		slog.Info("index_swapped",
			slog.Uint64("generation", engine.Stats().Generation),
			slog.Int("players", stats.Indexed))
		return nil
	}
}

func startWatching(ctx context.Context, cfg *config.Config, engine *search.Engine, source player.Source, progress *async.IndexProgress) error {
	path, err := snapshotPath(cfg, source)
	if err != nil {
		return err
	}
	debounce, err := cfg.Server.Debounce()
	if err != nil {
		return err
	}

	w, err := watcher.New(watcher.Options{DebounceWindow: debounce}, path)
	if err != nil {
		return err
	}

	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("watcher_stopped", slog.String("error", err.Error()))
		}
	}()
	go func() {
		defer func() { _ = w.Stop() }()
		_ = watcher.OnChange(ctx, w, rebuildOnChange(engine, source, progress))
	}()

	slog.Info("watching_snapshot", slog.String("path", path), slog.String("type", w.Type()))
	return nil
}
