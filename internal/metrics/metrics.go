// Package metrics exposes Prometheus metrics for searches, index builds and
// HTTP requests. A Manager owns its registry, so several managers can live
// in one process (tests, embedded servers).
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/search"
)

// StatusOK labels successful operations.
const StatusOK = "ok"

// Manager holds the metric collectors.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	registry       *prometheus.Registry
	runtime        bool

	searches       *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	searchResults  prometheus.Histogram

	builds          *prometheus.CounterVec
	buildDuration   prometheus.Histogram
	stageDuration   *prometheus.HistogramVec
	indexedPlayers  prometheus.Gauge
	skippedPlayers  prometheus.Gauge
	vocabularySize  prometheus.Gauge
	lastBuildUnix   prometheus.Gauge
	embedDimensions prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ search.Observer = (*Manager)(nil)

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "scoutsearch",
		latencyBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	if m.runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.searches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "searches_total",
		Help:      "Search requests by mode and outcome.",
	}, []string{"mode", "status"})

	m.searchDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "search_duration_seconds",
		Help:      "Search latency by mode.",
		Buckets:   m.latencyBuckets,
	}, []string{"mode"})

	m.searchResults = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "search_results",
		Help:      "Number of results returned per successful search.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
	})

	m.builds = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_builds_total",
		Help:      "Index builds by outcome.",
	}, []string{"status"})

	m.buildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_build_duration_seconds",
		Help:      "Total index build time.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "index_build_stage_duration_seconds",
		Help:      "Index build time per stage.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"stage"})

	m.indexedPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "indexed_players",
		Help:      "Players in the serving index.",
	})

	m.skippedPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "skipped_players",
		Help:      "Records skipped by the last successful build.",
	})

	m.vocabularySize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lexical_vocabulary_size",
		Help:      "Terms in the serving lexical vocabulary.",
	})

	m.embedDimensions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "embedding_dimensions",
		Help:      "Dimensionality of the serving dense index.",
	})

	m.lastBuildUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_build_timestamp_seconds",
		Help:      "Unix time of the last successful build.",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   m.latencyBuckets,
	}, []string{"route", "method"})
}

// ObserveSearch records a search outcome.
func (m *Manager) ObserveSearch(mode search.Mode, duration time.Duration, results int, err error) {
	label := string(mode)
	if label == "" {
		label = "invalid"
	}
	m.searches.WithLabelValues(label, Status(err)).Inc()
	m.searchDuration.WithLabelValues(label).Observe(duration.Seconds())
	if err == nil {
		m.searchResults.Observe(float64(results))
	}
}

// ObserveBuild records an index build. Serving gauges only move on success,
// since a failed build leaves the previous index in place.
func (m *Manager) ObserveBuild(stats search.BuildStats, err error) {
	m.builds.WithLabelValues(Status(err)).Inc()
	if err != nil {
		return
	}
	m.buildDuration.Observe(stats.Duration.Seconds())
	for stage, d := range map[string]time.Duration{
		"profiles": stats.ProfileDuration,
		"embed":    stats.EmbedDuration,
		"dense":    stats.DenseDuration,
		"lexical":  stats.LexicalDuration,
	} {
		m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
	m.indexedPlayers.Set(float64(stats.Indexed))
	m.skippedPlayers.Set(float64(stats.Skipped))
	m.vocabularySize.Set(float64(stats.VocabularySize))
	m.embedDimensions.Set(float64(stats.Dimensions))
	m.lastBuildUnix.SetToCurrentTime()
}

// ObserveHTTP records a served request.
func (m *Manager) ObserveHTTP(route, method string, code int, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the manager's registry.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Status maps an error to a low-cardinality label: "ok", "canceled", or the
// lowercased error category.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	if category := serrors.GetCategory(err); category != "" {
		return strings.ToLower(string(category))
	}
	return "error"
}
