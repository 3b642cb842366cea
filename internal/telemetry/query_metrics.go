// Package telemetry keeps in-memory query analytics: which modes are used,
// which terms scouts search for, which queries find nothing, and how long
// searches take. Nothing leaves the process.
package telemetry

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket maps a duration to its bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch ms := d.Milliseconds(); {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// QueryEvent is one completed search.
type QueryEvent struct {
	Query       string
	Mode        string
	ResultCount int
	Latency     time.Duration
}

// CircularBuffer is a fixed-capacity FIFO that evicts the oldest item.
type CircularBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int
	size  int
}

// NewCircularBuffer creates a buffer; non-positive capacity means 100.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{items: make([]T, capacity)}
}

// Add appends item, evicting the oldest when full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % len(b.items)
	if b.size < len(b.items) {
		b.size++
	}
}

// Items returns the contents oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]T, 0, b.size)
	if b.size < len(b.items) {
		return append(out, b.items[:b.size]...)
	}
	out = append(out, b.items[b.head:]...)
	return append(out, b.items[:b.head]...)
}

// Size returns the number of items held.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// ExtractTerms lowercases query, splits it on anything but letters and
// digits, and keeps terms of three or more characters.
func ExtractTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var terms []string
	for _, f := range fields {
		if len([]rune(f)) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

// TermCount is a term and how often it was searched.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	TotalQueries      int64                   `json:"total_queries"`
	ModeCounts        map[string]int64        `json:"mode_counts"`
	TopTerms          []TermCount             `json:"top_terms"`
	ZeroResultCount   int64                   `json:"zero_result_count"`
	ZeroResultQueries []string                `json:"zero_result_queries"`
	Latency           map[LatencyBucket]int64 `json:"latency_distribution"`
	ExactRepeatCount  int64                   `json:"exact_repeat_count"`
	Since             time.Time               `json:"since"`
}

// ZeroResultPercentage is the share of queries that found nothing.
func (s Snapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

// RepeatRate is the share of queries seen before, in [0, 1].
func (s Snapshot) RepeatRate() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ExactRepeatCount) / float64(s.TotalQueries)
}

// Config bounds the collector's memory.
type Config struct {
	// TermsCapacity is how many distinct terms are counted; the least
	// recently searched are dropped first.
	TermsCapacity int
	// ZeroResultsCapacity is how many recent zero-result queries are kept.
	ZeroResultsCapacity int
	// RecentQueriesCapacity is the window for repeat detection.
	RecentQueriesCapacity int
}

// DefaultConfig returns the default capacities.
func DefaultConfig() Config {
	return Config{
		TermsCapacity:         500,
		ZeroResultsCapacity:   100,
		RecentQueriesCapacity: 500,
	}
}

// QueryMetrics collects query telemetry. It is safe for concurrent use.
type QueryMetrics struct {
	mu sync.Mutex

	modes           map[string]int64
	terms           *lru.Cache[string, int64]
	zeroResults     *CircularBuffer[string]
	latencies       map[LatencyBucket]int64
	recent          *lru.Cache[string, struct{}]
	total           int64
	zeroResultCount int64
	repeats         int64
	since           time.Time
}

// NewQueryMetrics creates a collector. Zero capacities take defaults.
func NewQueryMetrics(cfg Config) *QueryMetrics {
	defaults := DefaultConfig()
	cfg.TermsCapacity = cmp.Or(max(cfg.TermsCapacity, 0), defaults.TermsCapacity)
	cfg.ZeroResultsCapacity = cmp.Or(max(cfg.ZeroResultsCapacity, 0), defaults.ZeroResultsCapacity)
	cfg.RecentQueriesCapacity = cmp.Or(max(cfg.RecentQueriesCapacity, 0), defaults.RecentQueriesCapacity)

	// lru.New only fails for non-positive sizes.
	terms, _ := lru.New[string, int64](cfg.TermsCapacity)
	recent, _ := lru.New[string, struct{}](cfg.RecentQueriesCapacity)

	return &QueryMetrics{
		modes:       make(map[string]int64),
		terms:       terms,
		zeroResults: NewCircularBuffer[string](cfg.ZeroResultsCapacity),
		latencies:   make(map[LatencyBucket]int64),
		recent:      recent,
		since:       time.Now(),
	}
}

// Record adds one search.
func (m *QueryMetrics) Record(e QueryEvent) {
	normalized := strings.Join(strings.Fields(strings.ToLower(e.Query)), " ")
	sum := sha256.Sum256([]byte(normalized + "\x00" + e.Mode))
	key := hex.EncodeToString(sum[:8])

	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.modes[e.Mode]++
	m.latencies[LatencyToBucket(e.Latency)]++

	if m.recent.Contains(key) {
		m.repeats++
	}
	m.recent.Add(key, struct{}{})

	for _, term := range ExtractTerms(e.Query) {
		count, _ := m.terms.Get(term)
		m.terms.Add(term, count+1)
	}

	if e.ResultCount == 0 {
		m.zeroResultCount++
		m.zeroResults.Add(e.Query)
	}
}

// Snapshot copies the current metrics with at most topTerms terms, most
// searched first.
func (m *QueryMetrics) Snapshot(topTerms int) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		TotalQueries:      m.total,
		ModeCounts:        make(map[string]int64, len(m.modes)),
		ZeroResultCount:   m.zeroResultCount,
		ZeroResultQueries: m.zeroResults.Items(),
		Latency:           make(map[LatencyBucket]int64, len(m.latencies)),
		ExactRepeatCount:  m.repeats,
		Since:             m.since,
	}
	for k, v := range m.modes {
		s.ModeCounts[k] = v
	}
	for k, v := range m.latencies {
		s.Latency[k] = v
	}

	terms := make([]TermCount, 0, m.terms.Len())
	for _, term := range m.terms.Keys() {
		if count, ok := m.terms.Peek(term); ok {
			terms = append(terms, TermCount{Term: term, Count: count})
		}
	}
	slices.SortFunc(terms, func(a, b TermCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Term, b.Term)
	})
	if topTerms >= 0 && len(terms) > topTerms {
		terms = terms[:topTerms]
	}
	s.TopTerms = terms
	return s
}
