// Package watcher detects changes to snapshot files and triggers index
// rebuilds.
//
// Files are watched through fsnotify on their parent directories, with a
// stat-polling fallback for filesystems where fsnotify is unavailable.
// Events are debounced so that a writer producing several events (truncate,
// write, rename into place) causes a single rebuild.
//
//	w, err := watcher.New(watcher.DefaultOptions(), snapshotPath)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	go w.Start(ctx)
//	return watcher.OnChange(ctx, w, rebuild)
package watcher
