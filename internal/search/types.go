// Package search provides hybrid player search combining dense vector
// similarity and TF-IDF keyword matching over generated player profiles.
// Results are fused with a weighted sum controlled by alpha.
package search

import (
	"context"
	"time"

	"github.com/Aman-CERP/scoutsearch/internal/player"
)

// Searcher is the query surface shared by the HTTP, MCP, and CLI front ends.
type Searcher interface {
	// Search ranks players against a free-text query.
	Search(ctx context.Context, query string, opts SearchOptions) ([]RankedResult, error)

	// GetPlayer returns the record of an indexed player.
	GetPlayer(ctx context.Context, id string) (player.Player, error)

	// Profile returns the generated text a player was indexed with.
	Profile(ctx context.Context, id string) (string, error)

	// Stats returns engine statistics.
	Stats() Stats
}

// Mode selects the retrieval strategy.
type Mode string

const (
	// ModeHybrid fuses dense and lexical scores.
	ModeHybrid Mode = "hybrid"
	// ModeSemantic returns dense nearest neighbours only.
	ModeSemantic Mode = "semantic"
)

// ParseMode validates a mode name. Empty means ModeHybrid.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeHybrid, nil
	case ModeHybrid, ModeSemantic:
		return Mode(s), nil
	default:
		return "", invalidMode(s)
	}
}

// Default search parameters.
const (
	DefaultTopK  = 10
	DefaultAlpha = 0.7
)

// SearchOptions configures a search query.
type SearchOptions struct {
	// TopK is the maximum number of results. It must be positive and is
	// clamped to the corpus size.
	TopK int

	// Mode defaults to ModeHybrid.
	Mode Mode

	// Alpha is the dense weight in hybrid mode, in [0, 1]. Nil uses the
	// engine default. Ignored in semantic mode.
	Alpha *float64
}

// RankedResult is one search hit.
//
// Semantic results carry SimilarityScore, which is the raw dense distance
// (lower is more similar). Hybrid results carry CombinedScore (higher is
// more relevant).
type RankedResult struct {
	Rank            int           `json:"rank"`
	PlayerID        string        `json:"player_id"`
	SimilarityScore *float64      `json:"similarity_score,omitempty"`
	CombinedScore   *float64      `json:"combined_score,omitempty"`
	PlayerData      player.Player `json:"player_data"`
}

// Score returns whichever score the result carries.
func (r RankedResult) Score() float64 {
	if r.CombinedScore != nil {
		return *r.CombinedScore
	}
	if r.SimilarityScore != nil {
		return *r.SimilarityScore
	}
	return 0
}

// BuildStats describes a completed index build.
type BuildStats struct {
	Records        int
	Indexed        int
	Skipped        int
	SkippedIDs     []string
	Dimensions     int
	VocabularySize int
	Model          string

	ProfileDuration time.Duration
	EmbedDuration   time.Duration
	DenseDuration   time.Duration
	LexicalDuration time.Duration
	Duration        time.Duration
}

// Stats is a point-in-time view of the engine.
type Stats struct {
	Ready          bool      `json:"ready"`
	Players        int       `json:"players"`
	Skipped        int       `json:"skipped"`
	Dimensions     int       `json:"dimensions"`
	VocabularySize int       `json:"vocabulary_size"`
	Model          string    `json:"model"`
	Generation     uint64    `json:"generation"`
	BuiltAt        time.Time `json:"built_at,omitzero"`
	DefaultAlpha   float64   `json:"default_alpha"`
}

// BuildStage names a phase of Engine.Build.
type BuildStage string

const (
	StageProfiles  BuildStage = "profiles"
	StageEmbedding BuildStage = "embedding"
	StageIndexing  BuildStage = "indexing"
	StageComplete  BuildStage = "complete"
)

// BuildEvent reports build progress.
type BuildEvent struct {
	Stage   BuildStage
	Current int
	Total   int
	Message string
}

// ProgressFunc receives build events. It is called from the build goroutines
// and must not block for long.
type ProgressFunc func(BuildEvent)

// Observer receives timing and outcome of engine operations.
type Observer interface {
	ObserveSearch(mode Mode, duration time.Duration, results int, err error)
	ObserveBuild(stats BuildStats, err error)
}
