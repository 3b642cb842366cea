package search

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/scoutsearch/internal/embed"
	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/profile"
	"github.com/Aman-CERP/scoutsearch/internal/store"
)

func TestNewEngine_NilEmbedder(t *testing.T) {
	_, err := NewEngine(nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNilDependency)
}

func TestNewEngine_RejectsInvalidDefaults(t *testing.T) {
	_, err := NewEngine(embed.NewStaticEmbedder(), WithDefaultAlpha(1.5))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewEngine(embed.NewStaticEmbedder(),
		WithLexicalConfig(store.LexicalConfig{MaxFeatures: 10, MinDF: 0, MaxDF: 1, NGramMax: 1}))
	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeConfigInvalid, serrors.GetCode(err))
}

func TestEngine_NotReadyBeforeBuild(t *testing.T) {
	// Given: an engine that was never built
	e := newTestEngine(t)

	// When: querying
	_, searchErr := e.Search(context.Background(), "striker", SearchOptions{TopK: 5})
	_, getErr := e.GetPlayer(context.Background(), "1")

	// Then: both report not ready
	assert.False(t, e.Ready())
	assert.ErrorIs(t, searchErr, ErrNotReady)
	assert.ErrorIs(t, getErr, ErrNotReady)
	assert.Equal(t, serrors.ErrCodeIndexNotReady, serrors.GetCode(searchErr))
	assert.False(t, e.Stats().Ready)
}

func TestEngine_GoalscorerScenario(t *testing.T) {
	// Given: the A/B/C snapshot under default index parameters
	e := newTestEngine(t)
	stats, err := e.Build(context.Background(), abcPlayers())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Indexed)

	// When: searching for a goalscorer
	results, err := e.Search(context.Background(), "goalscorer",
		SearchOptions{TopK: 2, Mode: ModeHybrid, Alpha: alphaPtr(0.7)})

	// Then: A ranks first and C, if returned, ranks below it
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].PlayerID)
	assert.NotEqual(t, "A", results[1].PlayerID)
	assert.GreaterOrEqual(t, results[0].Score(), results[1].Score())

	// And: B's profile never mentions goalscoring
	profileB, err := e.Profile(context.Background(), "B")
	require.NoError(t, err)
	assert.NotContains(t, profileB, "goalscorer")
	assert.Contains(t, profileB, profile.NoPerformanceData)
}

func TestEngine_HybridResultsShape(t *testing.T) {
	e := builtEngine(t, squad())

	results, err := e.Search(context.Background(), "creative playmaker midfielder",
		SearchOptions{TopK: 3})

	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
		require.NotNil(t, r.CombinedScore)
		assert.Nil(t, r.SimilarityScore)
		assert.Equal(t, r.PlayerID, string(r.PlayerData.PlayerID))
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score(), r.Score())
		}
	}
	assert.Contains(t, ids(results), "3")
}

func TestEngine_SemanticReturnsDistances(t *testing.T) {
	// Given: a built engine
	e := builtEngine(t, squad())

	// When: searching semantically
	results, err := e.Search(context.Background(), "goalkeeper",
		SearchOptions{TopK: 5, Mode: ModeSemantic})

	// Then: results carry ascending raw distances and no combined score
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		require.NotNil(t, r.SimilarityScore)
		assert.Nil(t, r.CombinedScore)
		if i > 0 {
			assert.LessOrEqual(t, *results[i-1].SimilarityScore, *r.SimilarityScore)
		}
	}
	assert.Equal(t, "2", results[0].PlayerID)
}

func TestEngine_AlphaOneMatchesDenseRanking(t *testing.T) {
	// Given: a built engine
	e := builtEngine(t, squad())
	ctx := context.Background()
	query := "prolific goalscorer forward"

	// When: searching hybrid with alpha=1 and semantic with the same k
	hybrid, err := e.Search(ctx, query, SearchOptions{TopK: 3, Alpha: alphaPtr(1)})
	require.NoError(t, err)
	semantic, err := e.Search(ctx, query, SearchOptions{TopK: 3, Mode: ModeSemantic})
	require.NoError(t, err)

	// Then: the ranking is the dense ranking and scores are 1/(1+distance)
	assert.Equal(t, ids(semantic), ids(hybrid))
	for i := range hybrid {
		assert.InDelta(t, 1/(1+*semantic[i].SimilarityScore), *hybrid[i].CombinedScore, 1e-6)
	}
}

func TestEngine_AlphaZeroMatchesLexicalScores(t *testing.T) {
	// Given: a built engine and an independent lexical index over its profiles
	players := squad()
	e := builtEngine(t, players)
	texts := make([]string, len(players))
	for i, p := range players {
		text, err := e.Profile(context.Background(), string(p.PlayerID))
		require.NoError(t, err)
		texts[i] = text
	}
	lex, err := store.NewLexicalIndex(relaxedLexical())
	require.NoError(t, err)
	require.NoError(t, lex.Build(texts))
	query := "assists playmaker"
	want, err := lex.Query(query)
	require.NoError(t, err)

	// When: searching with alpha=0
	results, err := e.Search(context.Background(), query,
		SearchOptions{TopK: len(players), Alpha: alphaPtr(0)})

	// Then: each combined score is that document's lexical score
	require.NoError(t, err)
	require.Len(t, results, len(players))
	rowOf := map[string]int{}
	for i, p := range players {
		rowOf[string(p.PlayerID)] = i
	}
	for _, r := range results {
		assert.InDelta(t, want[rowOf[r.PlayerID]], *r.CombinedScore, 1e-9, r.PlayerID)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	// Given: two engines built from the same snapshot
	first := builtEngine(t, squad())
	second := builtEngine(t, squad())

	for _, mode := range []Mode{ModeHybrid, ModeSemantic} {
		// When: issuing the same query
		a, err := first.Search(context.Background(), "experienced defender", SearchOptions{TopK: 5, Mode: mode})
		require.NoError(t, err)
		b, err := second.Search(context.Background(), "experienced defender", SearchOptions{TopK: 5, Mode: mode})
		require.NoError(t, err)

		// Then: ranked ids are identical
		assert.Equal(t, ids(a), ids(b), mode)
	}
}

func TestEngine_TopKLargerThanCorpus(t *testing.T) {
	e := builtEngine(t, squad())

	for _, mode := range []Mode{ModeHybrid, ModeSemantic} {
		results, err := e.Search(context.Background(), "forward", SearchOptions{TopK: 50, Mode: mode})

		require.NoError(t, err)
		assert.Len(t, results, 5, mode)
	}
}

func TestEngine_EmptyQuery(t *testing.T) {
	e := builtEngine(t, squad())

	results, err := e.Search(context.Background(), "", SearchOptions{TopK: 3})

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestEngine_InvalidParameters(t *testing.T) {
	e := builtEngine(t, squad())
	ctx := context.Background()

	tests := []struct {
		name string
		opts SearchOptions
		want error
	}{
		{"zero top_k", SearchOptions{TopK: 0}, ErrInvalidParameter},
		{"negative top_k", SearchOptions{TopK: -1}, ErrInvalidParameter},
		{"alpha above one", SearchOptions{TopK: 3, Alpha: alphaPtr(1.01)}, ErrInvalidParameter},
		{"negative alpha", SearchOptions{TopK: 3, Alpha: alphaPtr(-0.1)}, ErrInvalidParameter},
		{"unknown mode", SearchOptions{TopK: 3, Mode: "fuzzy"}, ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Search(ctx, "forward", tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEngine_GetPlayer(t *testing.T) {
	e := builtEngine(t, squad())

	p, err := e.GetPlayer(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, "Dan Wall", p.FullName)

	_, err = e.GetPlayer(context.Background(), "404")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestEngine_MissingFieldPolicies(t *testing.T) {
	players := squad()
	players[1].CurrentClub = nil

	t.Run("skip", func(t *testing.T) {
		// Given: the default skip policy
		e := newTestEngine(t, WithLexicalConfig(relaxedLexical()))

		// When: building with one incomplete record
		stats, err := e.Build(context.Background(), players)

		// Then: the record is left out and reported
		require.NoError(t, err)
		assert.Equal(t, 5, stats.Records)
		assert.Equal(t, 4, stats.Indexed)
		assert.Equal(t, 1, stats.Skipped)
		assert.Equal(t, []string{"2"}, stats.SkippedIDs)
		_, err = e.GetPlayer(context.Background(), "2")
		assert.ErrorIs(t, err, ErrPlayerNotFound)
	})

	t.Run("fail", func(t *testing.T) {
		e := newTestEngine(t,
			WithLexicalConfig(relaxedLexical()),
			WithProfileBuilder(profile.NewBuilder(profile.WithPolicy(profile.PolicyFail))))

		_, err := e.Build(context.Background(), players)

		require.Error(t, err)
		assert.ErrorIs(t, err, profile.ErrMissingField)
		assert.False(t, e.Ready())
	})

	t.Run("placeholder", func(t *testing.T) {
		e := newTestEngine(t,
			WithLexicalConfig(relaxedLexical()),
			WithProfileBuilder(profile.NewBuilder(profile.WithPolicy(profile.PolicyPlaceholder))))

		stats, err := e.Build(context.Background(), players)

		require.NoError(t, err)
		assert.Equal(t, 5, stats.Indexed)
		text, err := e.Profile(context.Background(), "2")
		require.NoError(t, err)
		assert.Contains(t, text, "an unknown club")
	})
}

func TestEngine_AllRecordsSkipped(t *testing.T) {
	players := squad()
	for i := range players {
		players[i].CurrentClub = nil
	}
	e := newTestEngine(t)

	_, err := e.Build(context.Background(), players)

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrEmptyCorpus)
}

func TestEngine_BuildRejectsBadIdentity(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		players := append(squad(), squad()[0])
		_, err := newTestEngine(t).Build(context.Background(), players)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicatePlayer)
	})

	t.Run("missing id", func(t *testing.T) {
		players := squad()
		players[2].PlayerID = ""
		_, err := newTestEngine(t).Build(context.Background(), players)
		require.Error(t, err)
		assert.Equal(t, serrors.ErrCodeInvalidInput, serrors.GetCode(err))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := newTestEngine(t).Build(context.Background(), nil)
		assert.ErrorIs(t, err, store.ErrEmptyCorpus)
	})
}

func TestEngine_FailedRebuildKeepsPreviousSnapshot(t *testing.T) {
	// Given: a ready engine
	e := builtEngine(t, squad())
	before := e.Stats()
	require.True(t, before.Ready)

	// When: a rebuild fails
	_, err := e.Build(context.Background(), append(squad(), squad()[0]))
	require.Error(t, err)

	// Then: the old snapshot still serves queries
	after := e.Stats()
	assert.Equal(t, before.Generation, after.Generation)
	results, err := e.Search(context.Background(), "forward", SearchOptions{TopK: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestEngine_RebuildSwapsSnapshot(t *testing.T) {
	e := builtEngine(t, squad())
	first := e.Stats().Generation

	smaller := squad()[:3]
	_, err := e.Build(context.Background(), smaller)
	require.NoError(t, err)

	stats := e.Stats()
	assert.Equal(t, first+1, stats.Generation)
	assert.Equal(t, 3, stats.Players)
	_, err = e.GetPlayer(context.Background(), "5")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestEngine_EmbeddingFailure(t *testing.T) {
	e, err := NewEngine(&failingEmbedder{StaticEmbedder: embed.NewStaticEmbedder(), err: errEmbedDown},
		WithLexicalConfig(relaxedLexical()))
	require.NoError(t, err)

	_, err = e.Build(context.Background(), squad())

	require.Error(t, err)
	assert.ErrorIs(t, err, errEmbedDown)
	assert.Equal(t, serrors.ErrCodeEmbeddingFailed, serrors.GetCode(err))
	assert.False(t, e.Ready())
}

func TestEngine_BuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(t, WithLexicalConfig(relaxedLexical())).Build(ctx, squad())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_ProgressAndObserver(t *testing.T) {
	// Given: an engine reporting progress and outcomes
	var (
		mu     sync.Mutex
		stages []BuildStage
	)
	obs := &recordingObserver{}
	e := newTestEngine(t,
		WithLexicalConfig(relaxedLexical()),
		WithEmbedBatchSize(2),
		WithObserver(obs),
		WithProgress(func(ev BuildEvent) {
			mu.Lock()
			defer mu.Unlock()
			stages = append(stages, ev.Stage)
		}))

	// When: building and searching
	_, err := e.Build(context.Background(), squad())
	require.NoError(t, err)
	_, err = e.Search(context.Background(), "forward", SearchOptions{TopK: 2, Mode: ModeSemantic})
	require.NoError(t, err)
	_, err = e.Search(context.Background(), "forward", SearchOptions{TopK: 0})
	require.Error(t, err)

	// Then: every stage was reported, ending with completion
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, stages, StageProfiles)
	assert.Contains(t, stages, StageEmbedding)
	assert.Contains(t, stages, StageIndexing)
	assert.Equal(t, StageComplete, stages[len(stages)-1])

	// And: the observer saw one build and both searches
	require.Len(t, obs.builds, 1)
	assert.NoError(t, obs.buildErr[0])
	assert.Equal(t, 5, obs.builds[0].Indexed)
	assert.Equal(t, []Mode{ModeSemantic, ModeHybrid}, obs.searches)
	assert.NoError(t, obs.errs[0])
	assert.Error(t, obs.errs[1])
}

func TestEngine_ConcurrentSearchDuringRebuild(t *testing.T) {
	e := builtEngine(t, squad())
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				results, err := e.Search(ctx, "forward", SearchOptions{TopK: 3})
				assert.NoError(t, err)
				assert.NotEmpty(t, results)
			}
		}()
	}
	for range 3 {
		_, err := e.Build(ctx, squad())
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, uint64(4), e.Stats().Generation)
}

func TestEngine_Stats(t *testing.T) {
	e := builtEngine(t, squad(), WithDefaultAlpha(0.6))

	s := e.Stats()

	assert.True(t, s.Ready)
	assert.Equal(t, 5, s.Players)
	assert.Equal(t, embed.StaticDimensions, s.Dimensions)
	assert.Positive(t, s.VocabularySize)
	assert.Equal(t, "static", s.Model)
	assert.Equal(t, 0.6, s.DefaultAlpha)
	assert.False(t, s.BuiltAt.IsZero())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeHybrid, m)

	m, err = ParseMode("semantic")
	require.NoError(t, err)
	assert.Equal(t, ModeSemantic, m)

	_, err = ParseMode("keyword")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestRankedResult_Score(t *testing.T) {
	assert.Zero(t, RankedResult{}.Score())
	assert.Equal(t, 0.4, RankedResult{SimilarityScore: alphaPtr(0.4)}.Score())
	assert.Equal(t, 0.9, RankedResult{CombinedScore: alphaPtr(0.9), SimilarityScore: alphaPtr(0.4)}.Score())
}
