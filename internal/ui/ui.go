// Package ui renders index build progress in the terminal: a bubbletea view
// for interactive terminals and line-oriented text for pipes and CI.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/scoutsearch/internal/search"
)

// stageOrder is the display order of build stages.
var stageOrder = []search.BuildStage{
	search.StageProfiles,
	search.StageEmbedding,
	search.StageIndexing,
	search.StageComplete,
}

func stageRank(s search.BuildStage) int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// StageName returns the display name of a stage.
func StageName(s search.BuildStage) string {
	switch s {
	case search.StageProfiles:
		return "Profiles"
	case search.StageEmbedding:
		return "Embed"
	case search.StageIndexing:
		return "Index"
	case search.StageComplete:
		return "Done"
	default:
		return "Unknown"
	}
}

// StageIcon returns the bracketed tag used by plain output.
func StageIcon(s search.BuildStage) string {
	switch s {
	case search.StageProfiles:
		return "PROFILE"
	case search.StageEmbedding:
		return "EMBED"
	case search.StageIndexing:
		return "INDEX"
	case search.StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// EmbedderInfo describes the embedder used for a build.
type EmbedderInfo struct {
	Provider   string
	Model      string
	Dimensions int
}

// CompletionStats summarises a finished build.
type CompletionStats struct {
	Build    search.BuildStats
	Embedder EmbedderInfo
}

// Renderer displays build progress.
type Renderer interface {
	Start(ctx context.Context) error

	// Observe records a build event. It satisfies search.ProgressFunc.
	Observe(ev search.BuildEvent)

	// Complete shows the build summary.
	Complete(stats CompletionStats)

	// Fail shows a build error.
	Fail(err error)

	Stop() error
}

// Config configures renderer selection.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	// Title is shown in the TUI header, typically the snapshot path.
	Title string
}

// ConfigOption modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) { c.ForcePlain = force }
}

// WithNoColor disables colours.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) { c.NoColor = noColor }
}

// WithTitle sets the header title.
func WithTitle(title string) ConfigOption {
	return func(c *Config) { c.Title = title }
}

// NewConfig creates a Config writing to output.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output, NoColor: DetectNoColor()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns the TUI renderer on an interactive terminal and the
// plain renderer otherwise (forced, pipes, CI).
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}
	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor reports whether NO_COLOR is set.
func DetectNoColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// DetectCI reports whether a common CI variable is set.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"} {
		if _, ok := os.LookupEnv(v); ok {
			return true
		}
	}
	return false
}

func round(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(10 * time.Millisecond)
}
