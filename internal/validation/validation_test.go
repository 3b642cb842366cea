package validation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/scoutsearch/internal/embed"
	"github.com/Aman-CERP/scoutsearch/internal/player"
	"github.com/Aman-CERP/scoutsearch/internal/search"
	"github.com/Aman-CERP/scoutsearch/internal/store"
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

// squad matches the roster documented in testdata/queries.yaml.
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

func squadValidator(t *testing.T) *Validator {
	t.Helper()
	engine, err := search.NewEngine(embed.NewStaticEmbedder(),
		search.WithLexicalConfig(store.LexicalConfig{MaxFeatures: 5000, MinDF: 1, MaxDF: 1.0, NGramMax: 2}))
	require.NoError(t, err)
	_, err = engine.Build(context.Background(), squad())
	require.NoError(t, err)

	v, err := NewValidator(engine)
	require.NoError(t, err)
	return v
}

func loadSquadSuite(t *testing.T) *Suite {
	t.Helper()
	suite, err := LoadSuite(filepath.Join("testdata", "queries.yaml"))
	require.NoError(t, err)
	return suite
}

func TestLoadSuite_SetsTiers(t *testing.T) {
	suite := loadSquadSuite(t)

	queries := suite.Queries()

	require.Len(t, queries, len(suite.Tier1)+len(suite.Tier2)+len(suite.Negative))
	assert.Equal(t, Tier1, queries[0].Tier)
	assert.Equal(t, Negative, queries[len(queries)-1].Tier)
	require.NotNil(t, queries[0].Alpha)
	assert.Zero(t, *queries[0].Alpha)
}

func TestLoadSuite_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing id", "tier1:\n  - query: a\n    expected: [\"1\"]\n", "has no id"},
		{"duplicate id", "tier1:\n  - {id: a, query: x, expected: [\"1\"]}\ntier2:\n  - {id: a, query: y, expected: [\"1\"]}\n", "duplicate query id a"},
		{"empty query", "tier1:\n  - {id: a, expected: [\"1\"]}\n", "is empty"},
		{"no players", "negative:\n  - {id: a, query: x}\n", "lists no players"},
		{"bad yaml", "tier1: [", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "queries.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadSuite(path)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadSuite(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestTier1_All(t *testing.T) {
	v := squadValidator(t)

	for _, spec := range loadSquadSuite(t).Queries() {
		if spec.Tier != Tier1 {
			continue
		}
		t.Run(spec.ID, func(t *testing.T) {
			result := v.RunQuery(context.Background(), spec)

			assert.Empty(t, result.Error)
			assert.True(t, result.Passed, "query %q returned %v, missing %v", spec.Query, result.Returned, result.Missing)
		})
	}
}

func TestNegative_All(t *testing.T) {
	v := squadValidator(t)

	for _, spec := range loadSquadSuite(t).Queries() {
		if spec.Tier != Negative {
			continue
		}
		t.Run(spec.ID, func(t *testing.T) {
			result := v.RunQuery(context.Background(), spec)

			assert.True(t, result.Passed, "query %q returned excluded %v", spec.Query, result.Missing)
		})
	}
}

func TestValidator_RunSuite(t *testing.T) {
	// Given: the squad index and the full suite
	v := squadValidator(t)
	suite := loadSquadSuite(t)

	// When: running everything
	result := v.Run(context.Background(), suite)

	// Then: tier 1 and negatives pass; tier 2 is only reported
	assert.True(t, result.OK())
	assert.Equal(t, len(suite.Tier1), result.Passed[Tier1])
	assert.Equal(t, len(suite.Tier2), result.Total[Tier2])
	for _, tr := range result.Failed(Tier2) {
		t.Logf("tier 2 %s: returned %v", tr.Spec.ID, tr.Returned)
	}
}

func TestValidator_RunQuery_ReportsMissing(t *testing.T) {
	v := squadValidator(t)
	alpha := 0.0

	result := v.RunQuery(context.Background(), QuerySpec{
		ID: "x", Query: "goalkeeper", Alpha: &alpha, TopK: 1, Expected: []string{"4"}, Tier: Tier1,
	})

	assert.False(t, result.Passed)
	assert.Equal(t, []string{"2"}, result.Returned)
	assert.Equal(t, []string{"4"}, result.Missing)
}

func TestValidator_RunQuery_ToolError(t *testing.T) {
	v := squadValidator(t)

	result := v.RunQuery(context.Background(), QuerySpec{
		ID: "x", Query: "keeper", Mode: "fuzzy", Expected: []string{"2"}, Tier: Tier1,
	})

	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Error)
}

func TestValidator_NotReady(t *testing.T) {
	engine, err := search.NewEngine(embed.NewStaticEmbedder())
	require.NoError(t, err)
	v, err := NewValidator(engine)
	require.NoError(t, err)

	result := v.RunQuery(context.Background(), QuerySpec{ID: "x", Query: "keeper", Expected: []string{"2"}})

	assert.False(t, result.Passed)
	assert.Contains(t, result.Error, "not ready")
}
