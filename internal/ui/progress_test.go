package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/scoutsearch/internal/search"
)

func TestProgressTracker_Observe(t *testing.T) {
	// Given: a new tracker
	p := NewProgressTracker()
	assert.Equal(t, search.StageProfiles, p.Stats().Stage)

	// When: the build reaches the embedding stage
	p.Observe(search.BuildEvent{Stage: search.StageProfiles, Current: 10, Total: 10})
	p.Observe(search.BuildEvent{Stage: search.StageEmbedding, Current: 4, Total: 10})

	// Then: stats reflect the latest stage
	stats := p.Stats()
	assert.Equal(t, search.StageEmbedding, stats.Stage)
	assert.Equal(t, 4, stats.Current)
	assert.InDelta(t, 0.4, stats.Progress, 1e-9)
}

func TestProgressTracker_IgnoresEarlierStages(t *testing.T) {
	p := NewProgressTracker()
	p.Observe(search.BuildEvent{Stage: search.StageIndexing, Total: 10, Message: "building dense index"})

	p.Observe(search.BuildEvent{Stage: search.StageEmbedding, Current: 10, Total: 10})

	stats := p.Stats()
	assert.Equal(t, search.StageIndexing, stats.Stage)
	assert.Equal(t, "building dense index", stats.Message)
}

func TestProgressTracker_ProgressClamped(t *testing.T) {
	p := NewProgressTracker()
	p.Observe(search.BuildEvent{Stage: search.StageEmbedding, Current: 12, Total: 10})

	assert.Equal(t, 1.0, p.Stats().Progress)
	assert.Zero(t, p.Stats().ETA)
}

func TestProgressTracker_ETA(t *testing.T) {
	p := NewProgressTracker()
	p.Observe(search.BuildEvent{Stage: search.StageEmbedding, Current: 1, Total: 10})
	time.Sleep(20 * time.Millisecond)
	p.Observe(search.BuildEvent{Stage: search.StageEmbedding, Current: 5, Total: 10})

	stats := p.Stats()
	assert.Positive(t, stats.ETA)
	assert.Positive(t, stats.Rate)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1400 * time.Millisecond, "1s"},
		{90 * time.Second, "1m 30s"},
		{2 * time.Minute, "2m"},
		{3*time.Hour + 5*time.Minute, "3h 5m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}
