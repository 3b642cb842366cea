package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scoutsearch/internal/embed"
	"github.com/Aman-CERP/scoutsearch/internal/search"
	"github.com/Aman-CERP/scoutsearch/internal/ui"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	snapshot string
	offline  bool
	plain    bool
	noColor  bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the dense and keyword indexes and report statistics",
		Long: `Build both indexes from the snapshot and report what was indexed:
players indexed and skipped, vocabulary size, embedding dimensions and the
time spent in each stage.

Indexes live in memory; this command validates a snapshot and shows what
'scoutsearch serve' will build at startup.`,
		Example: `  scoutsearch index
  scoutsearch index --snapshot data/summary_player_info.json --offline
  scoutsearch index --plain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Snapshot file to index (overrides config)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use static embeddings (skip Ollama)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Plain text progress instead of the interactive view")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colours")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	cfgOpts := []ui.ConfigOption{ui.WithForcePlain(opts.plain)}
	if opts.noColor {
		cfgOpts = append(cfgOpts, ui.WithNoColor(true))
	}
	if opts.snapshot != "" {
		cfgOpts = append(cfgOpts, ui.WithTitle(opts.snapshot))
	}
	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(), cfgOpts...))

	if err := renderer.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = renderer.Stop() }()

	app, err := openOneShot(ctx, opts.snapshot, opts.offline, search.WithProgress(renderer.Observe))
	if err != nil {
		renderer.Fail(err)
		return err
	}
	defer app.Close()

	info := embed.GetInfo(app.embedder)
	slog.Info("index_built",
		slog.String("source", app.source.String()),
		slog.Int("players", app.stats.Indexed),
		slog.Int("skipped", app.stats.Skipped),
		slog.Duration("duration", app.stats.Duration))

	renderer.Complete(ui.CompletionStats{
		Build: app.stats,
		Embedder: ui.EmbedderInfo{
			Provider:   info.Provider.String(),
			Model:      info.Model,
			Dimensions: info.Dimensions,
		},
	})
	return nil
}
