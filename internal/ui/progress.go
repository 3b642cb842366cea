package ui

import (
	"sync"
	"time"

	"github.com/Aman-CERP/scoutsearch/internal/search"
)

// etaSmoothing is the weight of a new ETA sample.
const etaSmoothing = 0.3

// ProgressTracker folds build events into display state. It is safe for
// concurrent use.
type ProgressTracker struct {
	mu sync.Mutex

	stage      search.BuildStage
	current    int
	total      int
	message    string
	startTime  time.Time
	stageStart time.Time
	lastETA    time.Duration

	// per-stage throughput, items per second
	rate map[search.BuildStage]float64
}

// ProgressStats is a snapshot of tracker state.
type ProgressStats struct {
	Stage    search.BuildStage
	Current  int
	Total    int
	Message  string
	Progress float64
	Rate     float64
	ETA      time.Duration
	Elapsed  time.Duration
}

// NewProgressTracker creates a tracker in the profiles stage.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		stage:      search.StageProfiles,
		startTime:  now,
		stageStart: now,
		rate:       make(map[search.BuildStage]float64),
	}
}

// Observe applies an event. Events for an earlier stage than the current one
// are ignored, since the dense and lexical builds report concurrently.
func (p *ProgressTracker) Observe(ev search.BuildEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch r := stageRank(ev.Stage); {
	case r < stageRank(p.stage):
		return
	case r > stageRank(p.stage):
		p.stage = ev.Stage
		p.stageStart = time.Now()
		p.lastETA = 0
	}

	p.current = ev.Current
	p.total = ev.Total
	p.message = ev.Message
	if elapsed := time.Since(p.stageStart); ev.Current > 0 && elapsed > 0 {
		p.rate[ev.Stage] = float64(ev.Current) / elapsed.Seconds()
	}
}

// Stats returns the current state.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var progress float64
	if p.total > 0 {
		progress = min(float64(p.current)/float64(p.total), 1)
	}
	return ProgressStats{
		Stage:    p.stage,
		Current:  p.current,
		Total:    p.total,
		Message:  p.message,
		Progress: progress,
		Rate:     p.rate[p.stage],
		ETA:      p.eta(progress),
		Elapsed:  time.Since(p.startTime),
	}
}

// eta estimates the time left in the current stage, smoothed so batch
// jitter does not make it jump. Must be called with p.mu held.
func (p *ProgressTracker) eta(progress float64) time.Duration {
	if progress <= 0 || progress >= 1 {
		return 0
	}
	elapsed := time.Since(p.stageStart)
	raw := time.Duration(float64(elapsed)/progress) - elapsed
	if raw < 0 {
		return 0
	}
	if p.lastETA == 0 {
		p.lastETA = raw
		return raw
	}
	p.lastETA = time.Duration(etaSmoothing*float64(raw) + (1-etaSmoothing)*float64(p.lastETA))
	return p.lastETA
}
