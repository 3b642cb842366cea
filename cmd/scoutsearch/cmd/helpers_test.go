package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/scoutsearch/internal/config"
	"github.com/Aman-CERP/scoutsearch/internal/player"
)

func season(apps, goals, assists float64) player.SeasonStats {
	return player.SeasonStats{
		Appearances: player.Float(apps),
		Goals:       player.Float(goals),
		Assists:     player.Float(assists),
	}
}

func squadPlayer(id, name, nationality, position, club string, seasons ...player.SeasonStats) player.Player {
	return player.Player{
		PlayerID:         player.ID(id),
		FullName:         name,
		Age:              player.Int(24),
		Nationality:      nationality,
		Position:         position,
		PreferredFoot:    "Left",
		CurrentClub:      &player.Club{ClubID: player.ID(id + "0"), ClubName: club},
		SeasonStatistics: seasons,
	}
}

func squad() []player.Player {
	return []player.Player{
		squadPlayer("1", "Ada Striker", "England", "Forward", "Harbour FC",
			season(30, 20, 3), season(28, 18, 5)),
		squadPlayer("2", "Ben Keeper", "Spain", "Goalkeeper", "Quay United",
			season(34, 0, 0), season(32, 0, 1)),
		squadPlayer("3", "Cal Creator", "England", "Midfielder", "Harbour FC",
			season(30, 3, 12), season(31, 4, 10)),
		squadPlayer("4", "Dan Wall", "France", "Defender", "Quay United",
			season(25, 1, 0), season(27, 0, 1)),
	}
}

// testConfig is a user config with static embeddings and keyword thresholds
// loose enough for a four-player corpus.
const testConfig = `embeddings:
  provider: static
index:
  min_df: 1
  max_df: 1.0
`

// isolateCLI points config and logs at temp dirs, writes the squad snapshot
// and returns its path.
func isolateCLI(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	userDir := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.ConfigDirEnv, userDir)
	for _, name := range []string{
		"SCOUTSEARCH_SNAPSHOT", "SCOUTSEARCH_CATALOG", "SCOUTSEARCH_RAW_DIR",
		"SCOUTSEARCH_ALPHA", "SCOUTSEARCH_TOP_K", "SCOUTSEARCH_EMBEDDINGS_PROVIDER",
		"SCOUTSEARCH_EMBEDDINGS_MODEL", "SCOUTSEARCH_OLLAMA_HOST",
		"SCOUTSEARCH_MISSING_FIELD_POLICY", "SCOUTSEARCH_ADDR",
		"SCOUTSEARCH_LOG_LEVEL", "SCOUTSEARCH_WATCH",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("NO_COLOR", "1")

	require.NoError(t, os.WriteFile(filepath.Join(userDir, config.UserConfigFile), []byte(testConfig), 0o644))

	snapshot := filepath.Join(t.TempDir(), player.DefaultSnapshotFile)
	writeSnapshot(t, snapshot, squad())
	return snapshot
}

func writeSnapshot(t *testing.T, path string, players []player.Player) {
	t.Helper()
	require.NoError(t, player.WriteSnapshot(path, players))
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeRawFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
