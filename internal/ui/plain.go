package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Aman-CERP/scoutsearch/internal/search"
)

// PlainRenderer writes one line per stage and per tenth of progress.
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	tracker *ProgressTracker

	stage search.BuildStage
	step  int
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output, tracker: NewProgressTracker(), step: -1}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(context.Context) error {
	return nil
}

// Observe implements Renderer.
func (r *PlainRenderer) Observe(ev search.BuildEvent) {
	if ev.Stage == search.StageComplete {
		return
	}
	r.tracker.Observe(ev)

	r.mu.Lock()
	defer r.mu.Unlock()

	step := 0
	if ev.Total > 0 {
		step = ev.Current * 10 / ev.Total
	}
	if ev.Stage == r.stage && step == r.step {
		return
	}
	if stageRank(ev.Stage) < stageRank(r.stage) {
		return
	}
	r.stage, r.step = ev.Stage, step

	switch {
	case ev.Message != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", StageIcon(ev.Stage), ev.Message)
	case ev.Total > 0:
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d\n", StageIcon(ev.Stage), ev.Current, ev.Total)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	writeSummary(r.out, stats)
}

func writeSummary(out io.Writer, stats CompletionStats) {
	b := stats.Build
	_, _ = fmt.Fprintf(out, "Indexed %d of %d players in %s", b.Indexed, b.Records, round(b.Duration))
	if b.Skipped > 0 {
		_, _ = fmt.Fprintf(out, " (%d skipped)", b.Skipped)
	}
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "  Vocabulary: %d terms\n", b.VocabularySize)
	_, _ = fmt.Fprintf(out, "  Dimensions: %d\n", b.Dimensions)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Stage Breakdown:")
	_, _ = fmt.Fprintf(out, "  Profiles: %s\n", round(b.ProfileDuration))
	if b.EmbedDuration > 0 && b.Indexed > 0 {
		_, _ = fmt.Fprintf(out, "  Embed:    %s (%.1f players/sec)\n",
			round(b.EmbedDuration), float64(b.Indexed)/b.EmbedDuration.Seconds())
	} else {
		_, _ = fmt.Fprintf(out, "  Embed:    %s\n", round(b.EmbedDuration))
	}
	_, _ = fmt.Fprintf(out, "  Dense:    %s\n", round(b.DenseDuration))
	_, _ = fmt.Fprintf(out, "  Lexical:  %s\n", round(b.LexicalDuration))

	if e := stats.Embedder; e.Model != "" {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintf(out, "Embedder: %s (%s, %d dims)\n", e.Provider, e.Model, e.Dimensions)
	}
	if len(b.SkippedIDs) > 0 {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintf(out, "Skipped players: %v\n", b.SkippedIDs)
	}
}

// Fail implements Renderer.
func (r *PlainRenderer) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, "ERROR: %v\n", err)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
