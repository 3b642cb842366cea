// Package ingest turns the raw data export (clubs, nationalities, players,
// and per-season statistics) into enriched player records.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/player"
)

// Raw export file names.
const (
	ClubsFile         = "clubs.json"
	NationalitiesFile = "nationalities.json"
	PlayersFile       = "players.json"
	SeasonStatsFile   = "player_season_stats.json"
)

// RawData is the unjoined export.
//
// Players stay as raw objects until normalization, since the export may
// carry numeric fields as strings.
type RawData struct {
	Clubs         []player.Club
	Nationalities []player.Nationality
	Players       []map[string]json.RawMessage
	SeasonStats   []player.SeasonStats
}

// LoadRaw reads the four export files from dir.
func LoadRaw(dir string) (*RawData, error) {
	raw := &RawData{}
	files := []struct {
		name string
		dst  any
	}{
		{ClubsFile, &raw.Clubs},
		{NationalitiesFile, &raw.Nationalities},
		{PlayersFile, &raw.Players},
		{SeasonStatsFile, &raw.SeasonStats},
	}
	for _, f := range files {
		if err := readJSON(filepath.Join(dir, f.name), f.dst); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return serrors.New(serrors.ErrCodeFileNotFound,
				fmt.Sprintf("raw data file not found: %s", path), err)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return serrors.New(serrors.ErrCodeSnapshotCorrupt,
			fmt.Sprintf("invalid JSON in %s", path), err).
			WithDetail("path", path)
	}
	return nil
}
