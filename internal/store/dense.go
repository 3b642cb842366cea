package store

import (
	"cmp"
	"context"
	"fmt"
	"math/rand"
	"slices"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWIndex implements DenseIndex using coder/hnsw. Graph keys are build
// rows, so a key resolves to its id by index.
type HNSWIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config DenseConfig
	ids    []string
	dims   int
	built  bool
}

var _ DenseIndex = (*HNSWIndex)(nil)

// NewHNSWIndex creates an unbuilt index. Zero config fields take defaults.
func NewHNSWIndex(cfg DenseConfig) *HNSWIndex {
	def := DefaultDenseConfig()
	if cfg.M == 0 {
		cfg.M = def.M
	}
	if cfg.EfConstruction == 0 {
		cfg.EfConstruction = def.EfConstruction
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = def.EfSearch
	}
	return &HNSWIndex{config: cfg}
}

// squaredL2 is the squared Euclidean distance, the metric of a flat L2 HNSW
// index.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Build inserts all vectors. Calling Build again replaces the graph.
func (h *HNSWIndex) Build(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	if len(vectors) == 0 {
		return ErrEmptyCorpus
	}

	dims := len(vectors[0])
	if dims == 0 {
		return fmt.Errorf("vectors must not be empty")
	}
	for _, v := range vectors {
		if len(v) != dims {
			return ErrDimensionMismatch{Expected: dims, Got: len(v)}
		}
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = squaredL2
	graph.M = h.config.M
	graph.Ml = 0.25
	graph.Rng = rand.New(rand.NewSource(h.config.Seed))
	// coder/hnsw uses EfSearch for neighbour selection while inserting.
	graph.EfSearch = h.config.EfConstruction

	for i, v := range vectors {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		vec := make([]float32, dims)
		copy(vec, v)
		graph.Add(hnsw.MakeNode(uint64(i), vec))
	}
	graph.EfSearch = h.config.EfSearch

	owned := make([]string, len(ids))
	copy(owned, ids)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.graph = graph
	h.ids = owned
	h.dims = dims
	h.built = true
	return nil
}

// Query returns up to k hits sorted by distance, ties broken by row.
func (h *HNSWIndex) Query(ctx context.Context, vector []float32, k int) ([]DenseHit, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.built {
		return nil, ErrIndexNotReady
	}
	if len(vector) != h.dims {
		return nil, ErrDimensionMismatch{Expected: h.dims, Got: len(vector)}
	}
	if k <= 0 {
		return []DenseHit{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Never ask the graph for a smaller candidate list than efSearch.
	width := max(k, h.config.EfSearch)
	nodes := h.graph.Search(vector, width)

	hits := make([]DenseHit, 0, len(nodes))
	for _, node := range nodes {
		row := int(node.Key)
		if row < 0 || row >= len(h.ids) {
			continue
		}
		hits = append(hits, DenseHit{
			Row:      row,
			ID:       h.ids[row],
			Distance: squaredL2(vector, node.Value),
		})
	}

	slices.SortFunc(hits, func(a, b DenseHit) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Row, b.Row)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (h *HNSWIndex) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ids)
}

// Dimensions returns the vector size.
func (h *HNSWIndex) Dimensions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dims
}
