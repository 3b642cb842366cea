package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/scoutsearch/internal/search"
)

// TUIRenderer shows build progress with bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *buildModel
	tracker *ProgressTracker
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewTUIRenderer fails when the output is not a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, errors.New("output is not a TTY")
	}
	tracker := NewProgressTracker()
	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   newBuildModel(tracker, cfg.Title, GetStyles(cfg.NoColor)),
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		return nil
	}

	var cctx context.Context
	cctx, r.cancel = context.WithCancel(ctx)
	opts := []tea.ProgramOption{tea.WithContext(cctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	r.program = tea.NewProgram(r.model, opts...)

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// Observe implements Renderer.
func (r *TUIRenderer) Observe(ev search.BuildEvent) {
	r.tracker.Observe(ev)
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.send(completeMsg(stats))
}

// Fail implements Renderer.
func (r *TUIRenderer) Fail(err error) {
	r.send(failMsg{err})
}

func (r *TUIRenderer) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p == nil {
		return
	}
	p.Send(msg)
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program == nil {
		return nil
	}
	r.program.Quit()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
	}
	r.cancel()
	return nil
}

type (
	completeMsg CompletionStats
	failMsg     struct{ err error }
	tickMsg     time.Time
)

// buildModel is the bubbletea model for an index build.
type buildModel struct {
	tracker *ProgressTracker
	title   string
	styles  Styles
	width   int

	spinner spinner.Model
	bar     progress.Model

	quitting bool
	summary  *CompletionStats
	err      error
}

func newBuildModel(tracker *ProgressTracker, title string, styles Styles) *buildModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Active

	return &buildModel{
		tracker: tracker,
		title:   title,
		styles:  styles,
		width:   80,
		spinner: s,
		bar: progress.New(
			progress.WithSolidFill(ColorPitch),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
	}
}

func (m *buildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-20, 20)
	case completeMsg:
		stats := CompletionStats(msg)
		m.summary = &stats
		return m, tea.Quit
	case failMsg:
		m.err = msg.err
		return m, tea.Quit
	case tickMsg:
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *buildModel) View() string {
	switch {
	case m.quitting:
		return "Cancelled.\n"
	case m.err != nil:
		return m.styles.Error.Render("✗ Build failed: "+m.err.Error()) + "\n"
	case m.summary != nil:
		return m.renderSummary()
	}

	title := "ScoutSearch Index"
	if m.title != "" {
		title += " • " + m.title
	}
	sections := []string{
		m.styles.Header.Render(title),
		m.renderStages(),
		m.renderProgress(),
		m.styles.Dim.Render("q to quit"),
	}
	return strings.Join(sections, "\n") + "\n"
}

func (m *buildModel) renderStages() string {
	current := stageRank(m.tracker.Stats().Stage)

	var parts []string
	for _, st := range stageOrder[:3] {
		name := StageName(st)
		switch r := stageRank(st); {
		case r < current:
			parts = append(parts, m.styles.Success.Render("● "+name))
		case r == current:
			parts = append(parts, m.styles.Active.Render(m.spinner.View()+" "+name))
		default:
			parts = append(parts, m.styles.Dim.Render("○ "+name))
		}
	}
	return strings.Join(parts, m.styles.Dim.Render(" → "))
}

func (m *buildModel) renderProgress() string {
	stats := m.tracker.Stats()
	if stats.Total == 0 {
		return m.styles.Label.Render("Preparing...")
	}

	line := fmt.Sprintf("%s  %s", m.bar.ViewAs(stats.Progress),
		m.styles.Active.Render(fmt.Sprintf("%3.0f%%", stats.Progress*100)))

	detail := fmt.Sprintf("%d / %d players", stats.Current, stats.Total)
	if stats.Message != "" {
		detail = stats.Message
	}
	if stats.Rate > 0 {
		detail += fmt.Sprintf("  •  %.0f/s", stats.Rate)
	}
	if stats.ETA > 0 {
		detail += "  •  ETA " + formatDuration(stats.ETA)
	}
	return line + "\n" + m.styles.Label.Render(detail)
}

func (m *buildModel) renderSummary() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Success.Render("✓ Index built"))
	sb.WriteString("\n\n")
	writeSummary(&sb, *m.summary)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorPitch)).
		Padding(1, 2).
		Width(max(m.width-4, 40)).
		Render(strings.TrimRight(sb.String(), "\n")) + "\n"
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		if s := int(d.Seconds()) % 60; s != 0 {
			return fmt.Sprintf("%dm %ds", int(d.Minutes()), s)
		}
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

var _ Renderer = (*TUIRenderer)(nil)
