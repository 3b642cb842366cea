package cmd

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scoutsearch/internal/output"
	"github.com/Aman-CERP/scoutsearch/internal/search"
	"github.com/Aman-CERP/scoutsearch/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit    int
	mode     string
	alpha    float64
	format   string
	snapshot string
	offline  bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search players by natural-language description",
		Long: `Build the indexes from the snapshot and run one query.

Hybrid mode fuses dense similarity and TF-IDF keyword scores weighted by
alpha; semantic mode returns nearest neighbours by embedding distance.

Examples:
  scoutsearch search "prolific goalscorer"
  scoutsearch search "left-footed winger with many assists" -n 5
  scoutsearch search "tall defender" --mode semantic
  scoutsearch search "creative playmaker" --alpha 0.3 -f json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Search mode: hybrid, semantic (default from config)")
	cmd.Flags().Float64Var(&opts.alpha, "alpha", -1, "Dense weight for hybrid mode, 0.0-1.0 (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Snapshot file to search (overrides config)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use static embeddings (skip Ollama)")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	start := time.Now()
	app, err := openOneShot(ctx, opts.snapshot, opts.offline)
	if err != nil {
		return err
	}
	defer app.Close()

	modeName := opts.mode
	if modeName == "" {
		modeName = app.cfg.Search.DefaultMode
	}
	mode, err := search.ParseMode(modeName)
	if err != nil {
		return err
	}

	searchOpts := search.SearchOptions{
		TopK: app.cfg.Search.DefaultTopK,
		Mode: mode,
	}
	// An explicit limit goes to the engine as given, which rejects
	// non-positive values.
	if cmd.Flags().Changed("limit") {
		searchOpts.TopK = opts.limit
	}
	if cmd.Flags().Changed("alpha") {
		alpha := opts.alpha
		searchOpts.Alpha = &alpha
	}

	results, err := app.engine.Search(ctx, query, searchOpts)
	if err != nil {
		return err
	}

	slog.Info("search_complete",
		slog.String("mode", string(mode)),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))

	color := format == output.FormatText && ui.IsTTY(cmd.OutOrStdout()) && !ui.DetectNoColor()
	return output.New(cmd.OutOrStdout(), color).Results(format, query, mode, results)
}
