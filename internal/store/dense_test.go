package store

import (
	"context"
	"errors"
	"testing"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDense(t *testing.T, ids []string, vectors [][]float32) *HNSWIndex {
	t.Helper()
	idx := NewHNSWIndex(DenseConfig{})
	require.NoError(t, idx.Build(context.Background(), ids, vectors))
	return idx
}

func TestHNSWIndex_QueryBeforeBuild(t *testing.T) {
	// Given: an unbuilt index
	idx := NewHNSWIndex(DefaultDenseConfig())

	// When: querying
	_, err := idx.Query(context.Background(), []float32{1, 2}, 3)

	// Then: it reports not ready rather than an empty result
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexNotReady)
	assert.Equal(t, serrors.ErrCodeIndexNotReady, serrors.GetCode(err))
	assert.Zero(t, idx.Dimensions())
}

func TestHNSWIndex_QueryOrdersByDistance(t *testing.T) {
	// Given: four points in the plane
	idx := buildDense(t,
		[]string{"origin", "east", "north", "far"},
		[][]float32{{0, 0}, {1, 0}, {0, 2}, {3, 3}})

	// When: querying near "east"
	hits, err := idx.Query(context.Background(), []float32{0.9, 0}, 10)

	// Then: all points come back nearest first with dense ranks
	require.NoError(t, err)
	require.Len(t, hits, 4)
	gotIDs := []string{hits[0].ID, hits[1].ID, hits[2].ID, hits[3].ID}
	assert.Equal(t, []string{"east", "origin", "north", "far"}, gotIDs)
	for i, h := range hits {
		assert.Equal(t, i+1, h.Rank)
	}
	assert.InDelta(t, 0.01, hits[0].Distance, 1e-5)
	assert.InDelta(t, 0.81, hits[1].Distance, 1e-5)
	assert.Equal(t, 1, hits[0].Row)
}

func TestHNSWIndex_QueryTruncatesToK(t *testing.T) {
	idx := buildDense(t,
		[]string{"a", "b", "c"},
		[][]float32{{0, 0}, {1, 1}, {2, 2}})

	hits, err := idx.Query(context.Background(), []float32{0, 0}, 2)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "b", hits[1].ID)

	none, err := idx.Query(context.Background(), []float32{0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHNSWIndex_TiesBreakByRow(t *testing.T) {
	idx := buildDense(t,
		[]string{"first", "second", "third"},
		[][]float32{{1, 1}, {1, 1}, {5, 5}})

	hits, err := idx.Query(context.Background(), []float32{1, 1}, 2)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first", hits[0].ID)
	assert.Equal(t, "second", hits[1].ID)
	assert.Zero(t, hits[0].Distance)
}

func TestHNSWIndex_DimensionMismatch(t *testing.T) {
	// Given: vectors of different sizes at build time
	idx := NewHNSWIndex(DefaultDenseConfig())
	err := idx.Build(context.Background(), []string{"a", "b"}, [][]float32{{1, 2}, {1, 2, 3}})

	var dm ErrDimensionMismatch
	require.True(t, errors.As(err, &dm))
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 3, dm.Got)

	// And: a query of the wrong size after a good build
	idx = buildDense(t, []string{"a"}, [][]float32{{1, 2}})
	_, err = idx.Query(context.Background(), []float32{1}, 1)
	assert.Equal(t, serrors.ErrCodeDimensionMismatch, serrors.GetCode(err))
}

func TestHNSWIndex_BuildValidation(t *testing.T) {
	idx := NewHNSWIndex(DefaultDenseConfig())

	assert.ErrorIs(t, idx.Build(context.Background(), nil, nil), ErrEmptyCorpus)
	assert.Error(t, idx.Build(context.Background(), []string{"a"}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, idx.Build(ctx, []string{"a"}, [][]float32{{1}}), context.Canceled)
	assert.Zero(t, idx.Len())
}

func TestHNSWIndex_RebuildIsDeterministic(t *testing.T) {
	// Given: the same vectors built twice
	ids := make([]string, 40)
	vectors := make([][]float32, 40)
	for i := range ids {
		ids[i] = string(rune('A' + i%26)) + string(rune('a'+i/26))
		vectors[i] = []float32{float32(i % 7), float32(i % 5), float32(i % 3)}
	}
	first := buildDense(t, ids, vectors)
	second := buildDense(t, ids, vectors)

	// When: querying both
	q := []float32{2, 2, 1}
	a, err := first.Query(context.Background(), q, 10)
	require.NoError(t, err)
	b, err := second.Query(context.Background(), q, 10)
	require.NoError(t, err)

	// Then: the ranked ids match
	assert.Equal(t, a, b)
	assert.Equal(t, 40, first.Len())
	assert.Equal(t, 3, first.Dimensions())
}
