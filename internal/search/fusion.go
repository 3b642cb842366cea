package search

import (
	"slices"

	"github.com/Aman-CERP/scoutsearch/internal/store"
)

// FusedScore is one candidate after score fusion.
type FusedScore struct {
	Rank  int
	Row   int
	ID    string
	Score float64
}

// fusion accumulates combined scores keyed by document row, remembering the
// order in which rows were first seen.
type fusion struct {
	scores []FusedScore
	index  map[int]int
}

func newFusion(capacity int) *fusion {
	return &fusion{
		scores: make([]FusedScore, 0, capacity),
		index:  make(map[int]int, capacity),
	}
}

func (f *fusion) add(row int, id string, score float64) *fusion {
	if i, ok := f.index[row]; ok {
		f.scores[i].Score += score
		return f
	}
	f.index[row] = len(f.scores)
	f.scores = append(f.scores, FusedScore{Row: row, ID: id, Score: score})
	return f
}

func fold[T any](acc *fusion, xs []T, step func(*fusion, int, T) *fusion) *fusion {
	for i, x := range xs {
		acc = step(acc, i, x)
	}
	return acc
}

// SemanticSimilarity maps a dense distance to (0, 1], where 1 is identical.
func SemanticSimilarity(distance float32) float64 {
	return 1 / (1 + float64(distance))
}

// Fuse combines dense hits and per-document lexical scores into one ranking.
//
// Dense hits contribute alpha * 1/(1+distance); every document contributes
// (1-alpha) * its lexical score, so documents outside the dense top-k still
// compete on keywords. ids[row] names document row. The result is sorted by
// score descending; equal scores keep first-seen order (dense hits in rank
// order, then the remaining rows in build order). At most topK results are
// returned, ranked from 1.
func Fuse(dense []store.DenseHit, lexical []float64, ids []string, alpha float64, topK int) []FusedScore {
	acc := newFusion(len(ids))
	acc = fold(acc, dense, func(f *fusion, _ int, h store.DenseHit) *fusion {
		return f.add(h.Row, h.ID, alpha*SemanticSimilarity(h.Distance))
	})
	acc = fold(acc, lexical, func(f *fusion, row int, s float64) *fusion {
		if row >= len(ids) {
			return f
		}
		return f.add(row, ids[row], (1-alpha)*s)
	})

	out := acc.scores
	slices.SortStableFunc(out, func(a, b FusedScore) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if topK >= 0 && len(out) > topK {
		out = out[:topK]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
