// Package embed provides the sentence-embedding backends used to encode
// player profiles and queries into dense vectors.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultBatchSize is the number of texts sent per embedding request.
	DefaultBatchSize = 32

	// MaxBatchSize bounds configured batch sizes.
	MaxBatchSize = 256

	// DefaultTimeout bounds one embedding request.
	DefaultTimeout = 60 * time.Second

	// DefaultColdTimeout is used for the first request, which may load the model.
	DefaultColdTimeout = 120 * time.Second

	// DefaultMaxRetries is the retry budget for transient backend failures.
	DefaultMaxRetries = 3

	// StaticDimensions is the vector size of the static embedder.
	StaticDimensions = 256
)

// Embedder encodes text into fixed-size vectors. Implementations must be
// safe for concurrent use and return vectors of Dimensions() length.
type Embedder interface {
	// Embed encodes a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch encodes texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size.
	Dimensions() int

	// ModelName identifies the model; vectors from different models are not comparable.
	ModelName() string

	// Available reports whether the backend can serve requests.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// ProgressFunc receives (completed, total) after each embedded batch.
type ProgressFunc func(completed, total int)

// normalizeVector scales v to unit length. Zero vectors are returned as-is.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
