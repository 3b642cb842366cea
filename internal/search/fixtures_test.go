package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/scoutsearch/internal/embed"
	"github.com/Aman-CERP/scoutsearch/internal/player"
	"github.com/Aman-CERP/scoutsearch/internal/store"
)

func season(apps, goals, assists float64) player.SeasonStats {
	return player.SeasonStats{
		Appearances: player.Float(apps),
		Goals:       player.Float(goals),
		Assists:     player.Float(assists),
	}
}

func newPlayer(id, name, nationality, position, club string, seasons ...player.SeasonStats) player.Player {
	if seasons == nil {
		seasons = []player.SeasonStats{}
	}
	return player.Player{
		PlayerID:         player.ID(id),
		FullName:         name,
		Age:              player.Int(25),
		Nationality:      nationality,
		Position:         position,
		PreferredFoot:    "Right",
		CurrentClub:      &player.Club{ClubID: player.ID(id + "0"), ClubName: club},
		SeasonStatistics: seasons,
	}
}

// abcPlayers is a striker with 5 goals in 5 appearances over 3 seasons, a
// player without statistics, and a playmaker with 2 assists in 10
// appearances over 4 seasons.
func abcPlayers() []player.Player {
	return []player.Player{
		newPlayer("A", "Ada Striker", "England", "Forward", "Harbour FC",
			season(2, 2, 0), season(2, 2, 0), season(1, 1, 0)),
		newPlayer("B", "Ben Blank", "Spain", "Defender", "Quay United"),
		newPlayer("C", "Cal Creator", "England", "Midfielder", "Harbour FC",
			season(3, 0, 1), season(3, 0, 1), season(2, 0, 0), season(2, 0, 0)),
	}
}

// squad is a slightly larger corpus with overlapping vocabulary.
func squad() []player.Player {
	return []player.Player{
		newPlayer("1", "Ada Striker", "England", "Forward", "Harbour FC",
			season(30, 20, 3), season(28, 18, 5)),
		newPlayer("2", "Ben Keeper", "Spain", "Goalkeeper", "Quay United",
			season(34, 0, 0), season(32, 0, 1)),
		newPlayer("3", "Cal Creator", "England", "Midfielder", "Harbour FC",
			season(30, 3, 12), season(31, 4, 10)),
		newPlayer("4", "Dan Wall", "France", "Defender", "Quay United",
			season(25, 1, 0), season(27, 0, 1)),
		newPlayer("5", "Eve Winger", "France", "Forward", "Riverside",
			season(20, 6, 8), season(22, 7, 9)),
	}
}

func relaxedLexical() store.LexicalConfig {
	return store.LexicalConfig{MaxFeatures: 5000, MinDF: 1, MaxDF: 1.0, NGramMax: 2}
}

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(embed.NewStaticEmbedder(), opts...)
	require.NoError(t, err)
	return e
}

func builtEngine(t *testing.T, players []player.Player, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{WithLexicalConfig(relaxedLexical())}, opts...)
	e := newTestEngine(t, opts...)
	_, err := e.Build(context.Background(), players)
	require.NoError(t, err)
	return e
}

func ids(results []RankedResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.PlayerID
	}
	return out
}

func alphaPtr(v float64) *float64 { return &v }

// failingEmbedder embeds single texts normally but fails every batch.
type failingEmbedder struct {
	*embed.StaticEmbedder
	err error
}

func (f *failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, f.err
}

var errEmbedDown = errors.New("embedding backend down")

type recordingObserver struct {
	mu       sync.Mutex
	searches []Mode
	errs     []error
	builds   []BuildStats
	buildErr []error
}

func (r *recordingObserver) ObserveSearch(mode Mode, _ time.Duration, _ int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, mode)
	r.errs = append(r.errs, err)
}

func (r *recordingObserver) ObserveBuild(stats BuildStats, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds = append(r.builds, stats)
	r.buildErr = append(r.buildErr, err)
}
