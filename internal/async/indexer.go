package async

import (
	"context"
	"log/slog"
	"sync"
)

// IndexFunc performs one build, reporting into progress.
type IndexFunc func(ctx context.Context, progress *IndexProgress) error

// BackgroundIndexer runs an IndexFunc in a goroutine so a server can accept
// connections while the first index is built.
type BackgroundIndexer struct {
	progress *IndexProgress
	fn       IndexFunc

	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}

	mu      sync.Mutex
	started bool
	err     error
}

// NewBackgroundIndexer creates an indexer for fn.
func NewBackgroundIndexer(fn IndexFunc) *BackgroundIndexer {
	return &BackgroundIndexer{
		progress: NewIndexProgress(),
		fn:       fn,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Progress returns the tracker for this indexer.
func (b *BackgroundIndexer) Progress() *IndexProgress {
	return b.progress
}

// Start launches the build. Later calls are no-ops.
func (b *BackgroundIndexer) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	go b.run(ctx)
}

func (b *BackgroundIndexer) run(ctx context.Context) {
	defer close(b.doneCh)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-b.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if b.fn != nil {
		if err := b.fn(ctx, b.progress); err != nil {
			slog.Error("background_index_failed", slog.String("error", err.Error()))
			b.progress.SetError(err.Error())
			b.mu.Lock()
			b.err = err
			b.mu.Unlock()
			return
		}
	}
	b.progress.SetReady()
}

// Stop cancels a running build and waits for it.
func (b *BackgroundIndexer) Stop() {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()
	if !started {
		return
	}

	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.doneCh
}

// Wait blocks until the build finishes and returns its error.
func (b *BackgroundIndexer) Wait() error {
	<-b.doneCh
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Done is closed when the build finishes.
func (b *BackgroundIndexer) Done() <-chan struct{} {
	return b.doneCh
}
