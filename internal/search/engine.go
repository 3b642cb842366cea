package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/scoutsearch/internal/embed"
	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/player"
	"github.com/Aman-CERP/scoutsearch/internal/profile"
	"github.com/Aman-CERP/scoutsearch/internal/store"
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("required dependency is nil")

// snapshot is an immutable, fully built index generation. Queries load it
// once and never observe a half-built state.
type snapshot struct {
	generation uint64
	builtAt    time.Time
	model      string

	ids      []string
	players  []player.Player
	profiles []string
	byID     map[string]int

	dense   store.DenseIndex
	lexical *store.LexicalIndex
	stats   BuildStats
}

// Engine indexes player records and answers hybrid queries.
//
// Build may be called repeatedly; each call prepares a new snapshot off to
// the side and swaps it in atomically. Concurrent Search calls keep using the
// snapshot they started with.
type Engine struct {
	embedder embed.Embedder
	builder  *profile.Builder

	denseConfig   store.DenseConfig
	lexicalConfig store.LexicalConfig
	defaultAlpha  float64
	batchSize     int

	observer Observer
	progress ProgressFunc

	current    atomic.Pointer[snapshot]
	generation atomic.Uint64
	buildMu    sync.Mutex
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithProfileBuilder sets the profile builder (and so the missing-field policy).
func WithProfileBuilder(b *profile.Builder) EngineOption {
	return func(e *Engine) {
		if b != nil {
			e.builder = b
		}
	}
}

// WithDenseConfig sets HNSW parameters.
func WithDenseConfig(cfg store.DenseConfig) EngineOption {
	return func(e *Engine) {
		e.denseConfig = cfg
	}
}

// WithLexicalConfig sets TF-IDF parameters.
func WithLexicalConfig(cfg store.LexicalConfig) EngineOption {
	return func(e *Engine) {
		e.lexicalConfig = cfg
	}
}

// WithDefaultAlpha sets the alpha used when a query does not give one.
func WithDefaultAlpha(alpha float64) EngineOption {
	return func(e *Engine) {
		e.defaultAlpha = alpha
	}
}

// WithEmbedBatchSize sets how many profiles are embedded per request.
func WithEmbedBatchSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithObserver reports search and build outcomes, typically to metrics.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithProgress receives build progress events.
func WithProgress(fn ProgressFunc) EngineOption {
	return func(e *Engine) {
		e.progress = fn
	}
}

// NewEngine creates a new search engine. It is not ready until Build succeeds.
func NewEngine(embedder embed.Embedder, opts ...EngineOption) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder: %w", ErrNilDependency)
	}

	e := &Engine{
		embedder:      embedder,
		builder:       profile.NewBuilder(),
		denseConfig:   store.DefaultDenseConfig(),
		lexicalConfig: store.DefaultLexicalConfig(),
		defaultAlpha:  DefaultAlpha,
		batchSize:     embed.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := validateAlpha(e.defaultAlpha); err != nil {
		return nil, err
	}
	if err := e.lexicalConfig.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Ready reports whether a snapshot has been built.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Build generates profiles for players, embeds them, and builds both indexes.
// On success the new snapshot replaces the previous one; on failure the
// previous snapshot, if any, stays in service.
func (e *Engine) Build(ctx context.Context, players []player.Player) (stats BuildStats, err error) {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	start := time.Now()
	defer func() {
		stats.Duration = time.Since(start)
		if e.observer != nil {
			e.observer.ObserveBuild(stats, err)
		}
	}()

	stats.Records = len(players)
	if len(players) == 0 {
		return stats, store.ErrEmptyCorpus
	}

	snap, err := e.prepare(players, &stats)
	if err != nil {
		return stats, err
	}
	stats.ProfileDuration = time.Since(start)

	if err := e.buildIndexes(ctx, snap, &stats); err != nil {
		return stats, err
	}

	stats.Model = e.embedder.ModelName()
	snap.model = stats.Model
	snap.generation = e.generation.Add(1)
	snap.builtAt = time.Now()
	snap.stats = stats
	e.current.Store(snap)

	e.emit(BuildEvent{Stage: StageComplete, Current: stats.Indexed, Total: stats.Records,
		Message: fmt.Sprintf("indexed %d players", stats.Indexed)})
	slog.Info("index_built",
		slog.Uint64("generation", snap.generation),
		slog.Int("players", stats.Indexed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("dimensions", stats.Dimensions),
		slog.Int("vocabulary", stats.VocabularySize),
		slog.String("model", stats.Model),
		slog.Duration("duration", time.Since(start)))

	return stats, nil
}

// prepare validates identities and renders profiles, applying the builder's
// missing-field policy.
func (e *Engine) prepare(players []player.Player, stats *BuildStats) (*snapshot, error) {
	snap := &snapshot{
		ids:      make([]string, 0, len(players)),
		players:  make([]player.Player, 0, len(players)),
		profiles: make([]string, 0, len(players)),
		byID:     make(map[string]int, len(players)),
	}
	seen := make(map[string]struct{}, len(players))

	for i := range players {
		p := &players[i]
		id := string(p.PlayerID)
		if id == "" {
			return nil, serrors.Newf(serrors.ErrCodeInvalidInput, "record %d has no player_id", i).
				WithDetail("record", fmt.Sprint(i))
		}
		if _, dup := seen[id]; dup {
			return nil, serrors.New(serrors.ErrCodeDuplicatePlayer,
				fmt.Sprintf("player id %s appears more than once", id), ErrDuplicatePlayer).
				WithDetail("player_id", id)
		}
		seen[id] = struct{}{}

		text, err := e.builder.Build(p)
		if err != nil {
			var mf *profile.MissingFieldError
			if errors.As(err, &mf) && e.builder.Policy() == profile.PolicySkip {
				stats.Skipped++
				stats.SkippedIDs = append(stats.SkippedIDs, id)
				slog.Warn("player_skipped",
					slog.String("player_id", id),
					slog.String("field", mf.Field))
				continue
			}
			return nil, fmt.Errorf("build profile: %w", err)
		}

		snap.byID[id] = len(snap.ids)
		snap.ids = append(snap.ids, id)
		snap.players = append(snap.players, *p)
		snap.profiles = append(snap.profiles, text)

		if (i+1)%500 == 0 {
			e.emit(BuildEvent{Stage: StageProfiles, Current: i + 1, Total: len(players)})
		}
	}
	e.emit(BuildEvent{Stage: StageProfiles, Current: len(players), Total: len(players)})

	if len(snap.ids) == 0 {
		return nil, serrors.New(serrors.ErrCodeEmptyCorpus,
			fmt.Sprintf("all %d records were skipped for missing fields", len(players)), store.ErrEmptyCorpus).
			WithSuggestion("Use missing_field_policy: placeholder to index incomplete records")
	}
	stats.Indexed = len(snap.ids)
	return snap, nil
}

// buildIndexes builds the dense and lexical indexes in parallel.
func (e *Engine) buildIndexes(ctx context.Context, snap *snapshot, stats *BuildStats) error {
	lexical, err := store.NewLexicalIndex(e.lexicalConfig)
	if err != nil {
		return err
	}
	dense := store.NewHNSWIndex(e.denseConfig)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		embedStart := time.Now()
		vectors, err := e.embedProfiles(gctx, snap.profiles)
		if err != nil {
			return err
		}
		stats.EmbedDuration = time.Since(embedStart)

		e.emit(BuildEvent{Stage: StageIndexing, Current: 0, Total: len(vectors), Message: "building dense index"})
		denseStart := time.Now()
		if err := dense.Build(gctx, snap.ids, vectors); err != nil {
			return serrors.New(serrors.ErrCodeIndexFailed, "dense index build failed", err)
		}
		stats.DenseDuration = time.Since(denseStart)
		stats.Dimensions = dense.Dimensions()
		return nil
	})

	g.Go(func() error {
		lexStart := time.Now()
		if err := lexical.Build(snap.profiles); err != nil {
			return err
		}
		stats.LexicalDuration = time.Since(lexStart)
		stats.VocabularySize = lexical.VocabularySize()
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return err
	}

	snap.dense = dense
	snap.lexical = lexical
	return nil
}

func (e *Engine) embedProfiles(ctx context.Context, profiles []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(profiles))
	for start := 0; start < len(profiles); start += e.batchSize {
		end := min(start+e.batchSize, len(profiles))
		batch, err := e.embedder.EmbedBatch(ctx, profiles[start:end])
		if err != nil {
			return nil, serrors.New(serrors.ErrCodeEmbeddingFailed,
				fmt.Sprintf("embed profiles %d-%d", start, end), err)
		}
		vectors = append(vectors, batch...)
		e.emit(BuildEvent{Stage: StageEmbedding, Current: end, Total: len(profiles)})
	}
	return vectors, nil
}

func (e *Engine) emit(ev BuildEvent) {
	if e.progress != nil {
		e.progress(ev)
	}
}

// Search ranks indexed players against query.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) (results []RankedResult, err error) {
	start := time.Now()
	mode := opts.Mode
	defer func() {
		if e.observer != nil {
			e.observer.ObserveSearch(mode, time.Since(start), len(results), err)
		}
	}()

	snap := e.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}

	if mode, err = ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.TopK <= 0 {
		return nil, invalidParameter("top_k", "top_k must be positive, got %d", opts.TopK)
	}
	k := min(opts.TopK, len(snap.ids))

	alpha := e.defaultAlpha
	if opts.Alpha != nil {
		alpha = *opts.Alpha
	}
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}

	if mode == ModeSemantic {
		results, err = e.semanticSearch(ctx, snap, query, k)
	} else {
		results, err = e.hybridSearch(ctx, snap, query, k, alpha)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("search_complete",
		slog.String("query", query),
		slog.String("mode", string(mode)),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))
	return results, nil
}

func (e *Engine) semanticSearch(ctx context.Context, snap *snapshot, query string, k int) ([]RankedResult, error) {
	hits, err := e.denseQuery(ctx, snap, query, k)
	if err != nil {
		return nil, err
	}
	results := make([]RankedResult, len(hits))
	for i, h := range hits {
		distance := float64(h.Distance)
		results[i] = RankedResult{
			Rank:            i + 1,
			PlayerID:        h.ID,
			SimilarityScore: &distance,
			PlayerData:      snap.players[h.Row],
		}
	}
	return results, nil
}

func (e *Engine) hybridSearch(ctx context.Context, snap *snapshot, query string, k int, alpha float64) ([]RankedResult, error) {
	var (
		hits    []store.DenseHit
		lexical []float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hits, err = e.denseQuery(gctx, snap, query, k)
		return err
	})
	g.Go(func() error {
		var err error
		lexical, err = snap.lexical.Query(query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := Fuse(hits, lexical, snap.ids, alpha, k)
	results := make([]RankedResult, len(fused))
	for i, f := range fused {
		score := f.Score
		results[i] = RankedResult{
			Rank:          f.Rank,
			PlayerID:      f.ID,
			CombinedScore: &score,
			PlayerData:    snap.players[f.Row],
		}
	}
	return results, nil
}

func (e *Engine) denseQuery(ctx context.Context, snap *snapshot, query string, k int) ([]store.DenseHit, error) {
	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeEmbeddingFailed, "embed query", err)
	}
	return snap.dense.Query(ctx, vector, k)
}

// GetPlayer returns the indexed record for id.
func (e *Engine) GetPlayer(_ context.Context, id string) (player.Player, error) {
	snap := e.current.Load()
	if snap == nil {
		return player.Player{}, ErrNotReady
	}
	row, ok := snap.byID[id]
	if !ok {
		return player.Player{}, playerNotFound(id)
	}
	return snap.players[row], nil
}

// Profile returns the generated profile text for id.
func (e *Engine) Profile(_ context.Context, id string) (string, error) {
	snap := e.current.Load()
	if snap == nil {
		return "", ErrNotReady
	}
	row, ok := snap.byID[id]
	if !ok {
		return "", playerNotFound(id)
	}
	return snap.profiles[row], nil
}

// Stats returns engine statistics.
func (e *Engine) Stats() Stats {
	s := Stats{DefaultAlpha: e.defaultAlpha}
	snap := e.current.Load()
	if snap == nil {
		return s
	}
	s.Ready = true
	s.Players = len(snap.ids)
	s.Skipped = snap.stats.Skipped
	s.Dimensions = snap.stats.Dimensions
	s.VocabularySize = snap.stats.VocabularySize
	s.Model = snap.model
	s.Generation = snap.generation
	s.BuiltAt = snap.builtAt
	return s
}

// Close releases the embedder.
func (e *Engine) Close() error {
	return e.embedder.Close()
}

func validateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return invalidParameter("alpha", "alpha must be in [0, 1], got %v", alpha)
	}
	return nil
}

var _ Searcher = (*Engine)(nil)
