package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scoutsearch/internal/ingest"
	"github.com/Aman-CERP/scoutsearch/internal/output"
	"github.com/Aman-CERP/scoutsearch/internal/player"
	"github.com/Aman-CERP/scoutsearch/internal/store"
)

// enrichOptions holds CLI flags for enrich.
type enrichOptions struct {
	rawDir string
	out    string
	db     string
	format string
}

func newEnrichCmd() *cobra.Command {
	var opts enrichOptions

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Join the raw export into an enriched player snapshot",
		Long: `Read clubs.json, nationalities.json, players.json and
player_season_stats.json from the raw directory, join them into enriched
player records and write the snapshot.

Each record gains its current club, club history, nationality details,
season statistics, total seasons, career goals and assists, and an age
computed from the date of birth.

With --db the records are also written to a SQLite catalog, which 'serve'
and 'search' prefer over the JSON snapshot when data.catalog_path points
at it.`,
		Example: `  scoutsearch enrich
  scoutsearch enrich --raw raw_data --out summary_player_info.json
  scoutsearch enrich --db players.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnrich(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.rawDir, "raw", "", "Raw export directory (default from config)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Snapshot file to write (default from config)")
	cmd.Flags().StringVar(&opts.db, "db", "", "Also write a SQLite catalog at this path")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Report format: text, json")

	return cmd
}

func runEnrich(ctx context.Context, cmd *cobra.Command, opts enrichOptions) error {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rawDir := opts.rawDir
	if rawDir == "" {
		rawDir = cfg.Data.RawDir
	}
	outPath := opts.out
	if outPath == "" {
		outPath = cfg.Data.SnapshotPath
	}
	if outPath == "" {
		return fmt.Errorf("no output path. Pass --out or set data.snapshot_path")
	}

	start := time.Now()
	raw, err := ingest.LoadRaw(rawDir)
	if err != nil {
		return err
	}

	players, report, err := ingest.NewEnricher().Enrich(ctx, raw)
	if err != nil {
		return err
	}

	if err := player.WriteSnapshot(outPath, players); err != nil {
		return err
	}

	if opts.db != "" {
		if err := writeCatalog(ctx, opts.db, players); err != nil {
			return err
		}
	}

	slog.Info("enrich_complete",
		slog.String("raw_dir", rawDir),
		slog.String("snapshot", outPath),
		slog.Int("players", report.Players),
		slog.Duration("duration", time.Since(start)))

	out := output.New(cmd.OutOrStdout(), false)
	if format == output.FormatJSON {
		return out.JSON(report)
	}

	out.Successf("Enriched %d players into %s", report.Players, outPath)
	out.Status("", fmt.Sprintf("With current club: %d", report.WithCurrentClub))
	out.Status("", fmt.Sprintf("With nationality:  %d", report.WithNationality))
	out.Status("", fmt.Sprintf("Season records:    %d", report.SeasonRecords))
	if report.InvalidBirthDate > 0 {
		out.Warningf("%d invalid birth dates left without age", report.InvalidBirthDate)
	}
	if opts.db != "" {
		out.Successf("Catalog written to %s", opts.db)
	}
	return nil
}

func writeCatalog(ctx context.Context, path string, players []player.Player) error {
	catalog, err := store.OpenCatalog(path)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = catalog.Close() }()

	if err := catalog.Replace(ctx, players); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}
