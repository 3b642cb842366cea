package store

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sync"
)

// sparseRow is an L2-normalised tf-idf row with term indices ascending.
type sparseRow struct {
	terms   []int
	weights []float64
}

// LexicalIndex is a TF-IDF term-document matrix scored by cosine similarity.
//
// Weighting: raw term counts, smoothed idf = ln((1+N)/(1+df)) + 1, rows
// L2-normalised. Terms are kept when MinDF <= df <= MaxDF*N, then the
// MaxFeatures most frequent across the corpus survive (ties alphabetical).
type LexicalIndex struct {
	mu       sync.RWMutex
	config   LexicalConfig
	analyzer *Analyzer

	vocab map[string]int
	terms []string
	idf   []float64
	rows  []sparseRow
	built bool
}

// NewLexicalIndex creates an unbuilt index.
func NewLexicalIndex(cfg LexicalConfig) (*LexicalIndex, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	analyzer, err := NewAnalyzer(cfg.NGramMax)
	if err != nil {
		return nil, err
	}
	return &LexicalIndex{config: cfg, analyzer: analyzer}, nil
}

// Build fits the vocabulary and weights over texts, in order.
func (l *LexicalIndex) Build(texts []string) error {
	n := len(texts)
	if n == 0 {
		return ErrEmptyCorpus
	}

	maxDocs := l.config.MaxDF * float64(n)
	if maxDocs < float64(l.config.MinDF) {
		return fmt.Errorf("%w: max_df=%v over %d documents allows fewer documents than min_df=%d",
			ErrEmptyVocabulary, l.config.MaxDF, n, l.config.MinDF)
	}

	docCounts := make([]map[string]int, n)
	df := make(map[string]int)
	tf := make(map[string]int)
	for i, text := range texts {
		counts := make(map[string]int)
		for _, term := range l.analyzer.Terms(text) {
			counts[term]++
		}
		for term, c := range counts {
			df[term]++
			tf[term] += c
		}
		docCounts[i] = counts
	}

	kept := make([]string, 0, len(df))
	for term, d := range df {
		if d >= l.config.MinDF && float64(d) <= maxDocs {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return ErrEmptyVocabulary
	}

	if len(kept) > l.config.MaxFeatures {
		slices.SortFunc(kept, func(a, b string) int {
			if c := cmp.Compare(tf[b], tf[a]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		kept = kept[:l.config.MaxFeatures]
	}
	slices.Sort(kept)

	vocab := make(map[string]int, len(kept))
	idf := make([]float64, len(kept))
	for i, term := range kept {
		vocab[term] = i
		idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	rows := make([]sparseRow, n)
	for i, counts := range docCounts {
		rows[i] = weigh(counts, vocab, idf)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.vocab = vocab
	l.terms = kept
	l.idf = idf
	l.rows = rows
	l.built = true
	return nil
}

// weigh builds the normalised tf-idf row of one document's term counts.
// Terms outside the vocabulary are dropped.
func weigh(counts map[string]int, vocab map[string]int, idf []float64) sparseRow {
	type entry struct {
		idx   int
		count int
	}
	entries := make([]entry, 0, len(counts))
	for term, c := range counts {
		if idx, ok := vocab[term]; ok {
			entries = append(entries, entry{idx, c})
		}
	}
	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.idx, b.idx) })

	row := sparseRow{
		terms:   make([]int, len(entries)),
		weights: make([]float64, len(entries)),
	}
	var norm float64
	for i, e := range entries {
		w := float64(e.count) * idf[e.idx]
		row.terms[i] = e.idx
		row.weights[i] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range row.weights {
			row.weights[i] /= norm
		}
	}
	return row
}

// Query returns the cosine similarity of text to every document, in build
// order. Unknown terms contribute nothing; a query with no known terms
// scores zero everywhere.
func (l *LexicalIndex) Query(text string) ([]float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.built {
		return nil, ErrIndexNotReady
	}

	counts := make(map[string]int)
	for _, term := range l.analyzer.Terms(text) {
		counts[term]++
	}
	q := weigh(counts, l.vocab, l.idf)

	scores := make([]float64, len(l.rows))
	if len(q.terms) == 0 {
		return scores, nil
	}
	for i, row := range l.rows {
		scores[i] = dot(q, row)
	}
	return scores, nil
}

// dot multiplies two sparse rows by merging their sorted term lists.
func dot(a, b sparseRow) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.terms) && j < len(b.terms) {
		switch {
		case a.terms[i] == b.terms[j]:
			sum += a.weights[i] * b.weights[j]
			i++
			j++
		case a.terms[i] < b.terms[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Len returns the number of documents.
func (l *LexicalIndex) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}

// VocabularySize returns the number of retained terms.
func (l *LexicalIndex) VocabularySize() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.terms)
}

// vocabulary returns the retained terms in alphabetical order.
func (l *LexicalIndex) vocabulary() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.terms)
}

// termIDF returns the idf weight of term and whether it is in the vocabulary.
func (l *LexicalIndex) termIDF(term string) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.vocab[term]
	if !ok {
		return 0, false
	}
	return l.idf[idx], true
}
