// Package store holds the two search indexes built over player profiles
// (an HNSW dense index and a TF-IDF lexical index) and the SQLite player
// catalog used as an alternative snapshot source.
//
// Indexes are built once and are read-only afterwards; a rebuild creates new
// instances rather than mutating existing ones.
package store

import (
	"context"
	"fmt"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
)

var (
	// ErrIndexNotReady is returned when an index is queried before Build.
	ErrIndexNotReady = serrors.New(serrors.ErrCodeIndexNotReady, "index not built", nil)

	// ErrEmptyCorpus is returned when building over zero documents.
	ErrEmptyCorpus = serrors.New(serrors.ErrCodeEmptyCorpus, "cannot build an index over zero documents", nil)

	// ErrEmptyVocabulary is returned when no term survives document-frequency pruning.
	ErrEmptyVocabulary = serrors.New(serrors.ErrCodeEmptyVocabulary, "no terms remain after pruning", nil)
)

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// Unwrap exposes the coded error.
func (e ErrDimensionMismatch) Unwrap() error {
	return serrors.New(serrors.ErrCodeDimensionMismatch, e.Error(), nil)
}

// DenseHit is one nearest-neighbour result.
type DenseHit struct {
	// Rank is 1-based and dense over the returned hits.
	Rank int
	// Row is the build-order position of the document.
	Row int
	// ID is the document identifier given at build time.
	ID string
	// Distance is the squared Euclidean distance; lower is more similar.
	Distance float32
}

// DenseIndex is an approximate nearest-neighbour index over fixed-size
// vectors.
type DenseIndex interface {
	// Build indexes vectors; ids[i] labels vectors[i].
	Build(ctx context.Context, ids []string, vectors [][]float32) error

	// Query returns up to k hits ordered by distance ascending.
	Query(ctx context.Context, vector []float32, k int) ([]DenseHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimensions returns the vector size, or 0 before Build.
	Dimensions() int
}

// DenseConfig configures an HNSWIndex.
type DenseConfig struct {
	// M is the maximum out-degree per node.
	M int
	// EfConstruction is the candidate width used while inserting.
	EfConstruction int
	// EfSearch is the candidate width used at query time.
	EfSearch int
	// Seed makes level assignment, and so the graph, reproducible.
	Seed int64
}

// DefaultDenseConfig returns M=32, efConstruction=200, efSearch=64.
func DefaultDenseConfig() DenseConfig {
	return DenseConfig{
		M:              32,
		EfConstruction: 200,
		EfSearch:       64,
		Seed:           42,
	}
}

// LexicalConfig configures a LexicalIndex.
type LexicalConfig struct {
	// MaxFeatures caps the vocabulary, keeping the most frequent terms.
	MaxFeatures int
	// MinDF is the minimum number of documents a term must appear in.
	MinDF int
	// MaxDF is the maximum fraction of documents a term may appear in.
	MaxDF float64
	// NGramMax is the longest n-gram indexed (1 or 2).
	NGramMax int
}

// DefaultLexicalConfig returns 5000 features, min_df=2, max_df=0.8, 1-2 grams.
func DefaultLexicalConfig() LexicalConfig {
	return LexicalConfig{
		MaxFeatures: 5000,
		MinDF:       2,
		MaxDF:       0.8,
		NGramMax:    2,
	}
}

// Validate checks the configuration.
func (c LexicalConfig) Validate() error {
	if c.MaxFeatures <= 0 {
		return serrors.Newf(serrors.ErrCodeConfigInvalid, "max_features must be positive, got %d", c.MaxFeatures)
	}
	if c.MinDF < 1 {
		return serrors.Newf(serrors.ErrCodeConfigInvalid, "min_df must be at least 1, got %d", c.MinDF)
	}
	if c.MaxDF <= 0 || c.MaxDF > 1 {
		return serrors.Newf(serrors.ErrCodeConfigInvalid, "max_df must be in (0, 1], got %v", c.MaxDF)
	}
	if c.NGramMax < 1 || c.NGramMax > 2 {
		return serrors.Newf(serrors.ErrCodeConfigInvalid, "ngram_max must be 1 or 2, got %d", c.NGramMax)
	}
	return nil
}
