// Package async runs index builds in the background and tracks their
// progress for status endpoints.
package async

import (
	"sync"
	"time"

	"github.com/Aman-CERP/scoutsearch/internal/search"
)

// IndexingStatus is the overall build state.
type IndexingStatus string

const (
	StatusIndexing IndexingStatus = "indexing"
	StatusReady    IndexingStatus = "ready"
	StatusError    IndexingStatus = "error"
)

// IndexProgressSnapshot is an immutable copy of IndexProgress.
type IndexProgressSnapshot struct {
	Status         string  `json:"status"`
	Stage          string  `json:"stage"`
	Current        int     `json:"current"`
	Total          int     `json:"total"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// IndexProgress tracks one build. It is safe for concurrent use and its
// Observe method satisfies search.ProgressFunc.
type IndexProgress struct {
	mu sync.RWMutex

	status       IndexingStatus
	stage        search.BuildStage
	current      int
	total        int
	startTime    time.Time
	errorMessage string
}

// NewIndexProgress creates a tracker in the indexing state.
func NewIndexProgress() *IndexProgress {
	return &IndexProgress{
		status:    StatusIndexing,
		stage:     search.StageProfiles,
		startTime: time.Now(),
	}
}

// Observe records a build event.
func (p *IndexProgress) Observe(ev search.BuildEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = ev.Stage
	p.current = ev.Current
	p.total = ev.Total
}

// Restart resets the tracker for a new build.
func (p *IndexProgress) Restart() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusIndexing
	p.stage = search.StageProfiles
	p.current, p.total = 0, 0
	p.errorMessage = ""
	p.startTime = time.Now()
}

// SetError marks the build as failed.
func (p *IndexProgress) SetError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusError
	p.errorMessage = message
}

// SetReady marks the build as complete.
func (p *IndexProgress) SetReady() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusReady
	p.stage = search.StageComplete
}

// IsIndexing reports whether a build is in progress.
func (p *IndexProgress) IsIndexing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status == StatusIndexing
}

// Snapshot returns the current state.
func (p *IndexProgress) Snapshot() IndexProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var pct float64
	if p.total > 0 {
		pct = float64(p.current) / float64(p.total) * 100.0
	}
	if p.status == StatusReady {
		pct = 100
	}

	return IndexProgressSnapshot{
		Status:         string(p.status),
		Stage:          string(p.stage),
		Current:        p.current,
		Total:          p.total,
		ProgressPct:    pct,
		ElapsedSeconds: int(time.Since(p.startTime).Seconds()),
		ErrorMessage:   p.errorMessage,
	}
}
