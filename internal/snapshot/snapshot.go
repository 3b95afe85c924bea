// Package snapshot persists walk results in SQLite so later walks can be
// compared against them. Writes are serialized across processes with a
// file lock next to the database.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO
)

// ErrNotFound is returned when a named snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Entry is one recorded walk result.
type Entry struct {
	Rel     string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Info describes a stored snapshot.
type Info struct {
	ID         int64
	Name       string
	Root       string
	Patterns   []string
	CreatedAt  time.Time
	EntryCount int
}

// Store is a snapshot database. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	lock   *flock.Flock
	path   string
	closed bool
}

// Open opens or creates the snapshot database at path. An empty path opens
// an in-memory database for testing.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: modernc.org/sqlite serializes writes anyway, and
	// an in-memory database is per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL must be set via PRAGMA for modernc.org/sqlite.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path}
	if path != "" {
		s.lock = flock.New(path + ".lock")
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the snapshot tables.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		root TEXT NOT NULL,
		patterns TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		entry_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS entries (
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		rel TEXT NOT NULL,
		is_dir INTEGER NOT NULL,
		size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		PRIMARY KEY (snapshot_id, rel)
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save stores entries under name, replacing any snapshot with the same
// name. The write is guarded by a cross-process file lock.
func (s *Store) Save(ctx context.Context, name, root string, patterns []string, entries []Entry) (*Info, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("snapshot name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	if s.lock != nil {
		if err := s.lock.Lock(); err != nil {
			return nil, fmt.Errorf("failed to acquire snapshot lock: %w", err)
		}
		defer func() { _ = s.lock.Unlock() }()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Same-name saves replace the old snapshot; entries cascade.
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return nil, fmt.Errorf("failed to replace snapshot %s: %w", name, err)
	}

	createdAt := time.Now()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots(name, root, patterns, created_at, entry_count) VALUES (?, ?, ?, ?, ?)`,
		name, root, strings.Join(patterns, "\n"), createdAt.Unix(), len(entries))
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshot %s: %w", name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot id: %w", err)
	}

	insertStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries(snapshot_id, rel, is_dir, size, mod_time) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare entry statement: %w", err)
	}
	defer insertStmt.Close()

	for _, e := range entries {
		if _, err := insertStmt.ExecContext(ctx, id, e.Rel, boolToInt(e.IsDir), e.Size, e.ModTime.UnixNano()); err != nil {
			return nil, fmt.Errorf("failed to insert entry %s: %w", e.Rel, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot %s: %w", name, err)
	}

	return &Info{
		ID:         id,
		Name:       name,
		Root:       root,
		Patterns:   patterns,
		CreatedAt:  createdAt,
		EntryCount: len(entries),
	}, nil
}

// List returns all snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, root, patterns, created_at, entry_count
		 FROM snapshots ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var infos []*Info
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Get returns the snapshot with the given name.
func (s *Store) Get(ctx context.Context, name string) (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	return s.get(ctx, name)
}

// get looks up one snapshot. Must be called with the lock held.
func (s *Store) get(ctx context.Context, name string) (*Info, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, root, patterns, created_at, entry_count
		 FROM snapshots WHERE name = ?`, name)

	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return info, err
}

// Entries returns the recorded entries of the named snapshot, ordered by
// path.
func (s *Store) Entries(ctx context.Context, name string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	info, err := s.get(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rel, is_dir, size, mod_time FROM entries
		 WHERE snapshot_id = ? ORDER BY rel`, info.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var isDir int
		var modNanos int64
		if err := rows.Scan(&e.Rel, &isDir, &e.Size, &modNanos); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.IsDir = isDir != 0
		e.ModTime = time.Unix(0, modNanos)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the named snapshot and its entries.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	if s.lock != nil {
		if err := s.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire snapshot lock: %w", err)
		}
		defer func() { _ = s.lock.Unlock() }()
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Close closes the database. Safe to call multiple times.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanInfo reads one snapshots row.
func scanInfo(row rowScanner) (*Info, error) {
	var info Info
	var patterns string
	var createdAt int64
	if err := row.Scan(&info.ID, &info.Name, &info.Root, &patterns, &createdAt, &info.EntryCount); err != nil {
		return nil, err
	}
	info.CreatedAt = time.Unix(createdAt, 0)
	if patterns != "" {
		info.Patterns = strings.Split(patterns, "\n")
	}
	return &info, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
