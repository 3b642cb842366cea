package watcher

import (
	"context"
	"log/slog"
	"time"
)

// RebuildFunc rebuilds from the changed files.
type RebuildFunc func(ctx context.Context, batch []FileEvent) error

// OnChange calls rebuild for every batch from w until ctx is done or w
// stops. Batches in which every file was removed are skipped so the current
// index keeps serving. Rebuild errors are logged and do not stop the loop.
func OnChange(ctx context.Context, w *Watcher, rebuild RebuildFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			slog.Warn("watcher_error", slog.String("error", err.Error()))
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			if allRemoved(batch) {
				slog.Warn("snapshot_removed_keeping_index", slog.Int("files", len(batch)))
				continue
			}

			start := time.Now()
			slog.Info("snapshot_changed", slog.Int("files", len(batch)), slog.String("path", batch[0].Path))
			if err := rebuild(ctx, batch); err != nil {
				slog.Error("rebuild_failed",
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()))
				continue
			}
			slog.Info("rebuild_complete", slog.Duration("duration", time.Since(start)))
		}
	}
}

func allRemoved(batch []FileEvent) bool {
	for _, e := range batch {
		if !e.Removed() {
			return false
		}
	}
	return true
}
