package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
)

// DefaultSnapshotFile is the file name the enrichment pipeline writes.
const DefaultSnapshotFile = "summary_player_info.json"

// Source yields a full snapshot of enriched players. The engine is always
// rebuilt wholesale from one Load.
type Source interface {
	Load(ctx context.Context) ([]Player, error)
	String() string
}

// JSONSource loads players from a JSON array file.
type JSONSource struct {
	Path string
}

// Load reads the snapshot under a shared file lock.
func (s JSONSource) Load(ctx context.Context) ([]Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadSnapshot(s.Path)
}

func (s JSONSource) String() string {
	return "json:" + s.Path
}

// ReadSnapshot decodes a JSON array of players from path.
//
// The read holds a shared lock when the lock file can be created. In a
// read-only location the file is read without it; writers replace the
// snapshot by rename, so a reader still sees one complete version.
func ReadSnapshot(path string) ([]Player, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, serrors.Newf(serrors.ErrCodeFileNotFound, "snapshot not found: %s", path).
				WithSuggestion("Run 'scoutsearch enrich' to produce a snapshot, or set data.snapshot_path")
		}
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}

	lock := NewFileLock(path)
	if err := lock.RLock(); err != nil {
		if !lockUnavailable(err) {
			return nil, serrors.New(serrors.ErrCodeSnapshotLocked, "snapshot is locked", err)
		}
		slog.Debug("snapshot_read_unlocked",
			slog.String("path", path),
			slog.String("reason", err.Error()))
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var players []Player
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, serrors.New(serrors.ErrCodeSnapshotCorrupt,
			fmt.Sprintf("snapshot %s is not a JSON array of players", path), err)
	}
	return players, nil
}

// lockUnavailable reports whether a lock failed because its file could not
// be created, rather than because the lock is held.
func lockUnavailable(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EROFS)
}

// WriteSnapshot writes players as an indented JSON array. The file is
// replaced atomically while holding the exclusive lock.
func WriteSnapshot(path string, players []Player) error {
	if players == nil {
		players = []Player{}
	}
	data, err := json.MarshalIndent(players, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	lock := NewFileLock(path)
	if err := lock.Lock(); err != nil {
		return serrors.New(serrors.ErrCodeSnapshotLocked, "snapshot is locked", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
