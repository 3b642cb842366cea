package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/output"
	"github.com/Aman-CERP/scoutsearch/internal/player"
	"github.com/Aman-CERP/scoutsearch/internal/store"
	"github.com/Aman-CERP/scoutsearch/internal/ui"
)

func newPlayerCmd() *cobra.Command {
	var (
		format   string
		snapshot string
	)

	cmd := &cobra.Command{
		Use:   "player <id>",
		Short: "Show one player record from the snapshot",
		Long: `Look up a player by id in the snapshot, or in the SQLite catalog when one
is configured. No index is built.`,
		Example: `  scoutsearch player 1042
  scoutsearch player 1042 -f json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayer(cmd.Context(), cmd, args[0], format, snapshot)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Snapshot file to read (overrides config)")

	return cmd
}

func runPlayer(ctx context.Context, cmd *cobra.Command, id, formatName, snapshot string) error {
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	source, closeSource, err := openSource(cfg, snapshot)
	if err != nil {
		return err
	}
	defer closeSource()

	p, err := lookupPlayer(ctx, source, player.ID(id))
	if err != nil {
		return err
	}

	color := format == output.FormatText && ui.IsTTY(cmd.OutOrStdout()) && !ui.DetectNoColor()
	return output.New(cmd.OutOrStdout(), color).Player(format, p)
}

// lookupPlayer uses the catalog index when available and scans the snapshot
// otherwise.
func lookupPlayer(ctx context.Context, source player.Source, id player.ID) (player.Player, error) {
	if catalog, ok := source.(*store.Catalog); ok {
		p, found, err := catalog.Get(ctx, id)
		if err != nil {
			return player.Player{}, err
		}
		if !found {
			return player.Player{}, notFound(id)
		}
		return p, nil
	}

	players, err := source.Load(ctx)
	if err != nil {
		return player.Player{}, fmt.Errorf("failed to load %s: %w", source, err)
	}
	for _, p := range players {
		if p.PlayerID == id {
			return p, nil
		}
	}
	return player.Player{}, notFound(id)
}

func notFound(id player.ID) error {
	return serrors.Newf(serrors.ErrCodePlayerNotFound, "player %s not found", id)
}
