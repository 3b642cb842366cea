package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/player"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// Catalog persists enriched player records in SQLite. It can serve as the
// snapshot source for an engine build, keeping build order stable through
// an explicit ordinal column.
type Catalog struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ player.Source = (*Catalog)(nil)

// OpenCatalog opens or creates the catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeCatalogFailed, "failed to open catalog", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// DSN params may be ignored by modernc.org/sqlite
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, serrors.New(serrors.ErrCodeCatalogFailed, "failed to set pragma", err)
		}
	}

	c := &Catalog{db: db, path: path}
	if err := c.initSchema(); err != nil {
		_ = db.Close()
		return nil, serrors.New(serrors.ErrCodeCatalogFailed, "failed to initialize catalog schema", err)
	}
	return c, nil
}

func (c *Catalog) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS players (
		player_id TEXT PRIMARY KEY,
		ordinal   INTEGER NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		club_name TEXT NOT NULL DEFAULT '',
		position  TEXT NOT NULL DEFAULT '',
		record    TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_players_ordinal ON players(ordinal);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Replace swaps the catalog contents for players in one transaction.
func (c *Catalog) Replace(ctx context.Context, players []player.Player) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("catalog is closed")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM players"); err != nil {
		return fmt.Errorf("failed to clear players: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO players (player_id, ordinal, full_name, club_name, position, record)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range players {
		p := &players[i]
		record, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode player %s: %w", p.PlayerID, err)
		}
		clubName := ""
		if p.CurrentClub != nil {
			clubName = p.CurrentClub.ClubName
		}
		if _, err := stmt.ExecContext(ctx, string(p.PlayerID), i, p.FullName, clubName, p.Position, string(record)); err != nil {
			return serrors.New(serrors.ErrCodeCatalogFailed,
				fmt.Sprintf("failed to insert player %s", p.PlayerID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Load returns every player in ordinal order.
func (c *Catalog) Load(ctx context.Context) ([]player.Player, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("catalog is closed")
	}

	rows, err := c.db.QueryContext(ctx, "SELECT record FROM players ORDER BY ordinal")
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeCatalogFailed, "failed to query players", err)
	}
	defer func() { _ = rows.Close() }()

	var players []player.Player
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		var p player.Player
		if err := json.Unmarshal([]byte(record), &p); err != nil {
			return nil, serrors.New(serrors.ErrCodeSnapshotCorrupt, "catalog holds an undecodable record", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Get returns one player. The bool is false when the id is unknown.
func (c *Catalog) Get(ctx context.Context, id player.ID) (player.Player, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return player.Player{}, false, fmt.Errorf("catalog is closed")
	}

	var record string
	err := c.db.QueryRowContext(ctx, "SELECT record FROM players WHERE player_id = ?", string(id)).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return player.Player{}, false, nil
	}
	if err != nil {
		return player.Player{}, false, fmt.Errorf("failed to query player: %w", err)
	}

	var p player.Player
	if err := json.Unmarshal([]byte(record), &p); err != nil {
		return player.Player{}, false, serrors.New(serrors.ErrCodeSnapshotCorrupt, "catalog holds an undecodable record", err)
	}
	return p, true, nil
}

// Count returns the number of stored players.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, fmt.Errorf("catalog is closed")
	}

	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM players").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return n, nil
}

func (c *Catalog) String() string {
	return "sqlite:" + c.path
}

// Close checkpoints the WAL and closes the database.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	_, _ = c.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return c.db.Close()
}
