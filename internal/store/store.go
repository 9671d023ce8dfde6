package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Kind mirrors the three notification categories.
type Kind string

const (
	KindHistory Kind = "history"
	KindSession Kind = "session"
	KindProject Kind = "project"
)

// Activity is one delivered notification.
type Activity struct {
	ID        int64
	Kind      Kind
	ProjectID string
	SessionID string
	Path      string
	Detail    string // first prompt, last history display, etc.
	At        time.Time
}

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// DataDir is where cwatch keeps its database and log file.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "cwatch")
	}
	home, _ := os.UserHomeDir()
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "cwatch")
	}
	return filepath.Join(home, ".local", "share", "cwatch")
}

func DBPath() string {
	return filepath.Join(DataDir(), "activity.db")
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL so a second cwatch can read while this one writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version == 0 {
		return s.createSchema()
	}
	return nil
}

func (s *Store) createSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS activity (
    id          INTEGER PRIMARY KEY,
    kind        TEXT    NOT NULL,
    project_id  TEXT    DEFAULT '',
    session_id  TEXT    DEFAULT '',
    path        TEXT    DEFAULT '',
    detail      TEXT    DEFAULT '',
    at          INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activity_at ON activity(at);
CREATE INDEX IF NOT EXISTS idx_activity_kind ON activity(kind);
CREATE INDEX IF NOT EXISTS idx_activity_project ON activity(project_id);

PRAGMA user_version = 1;
`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a. A zero At is set to now. The assigned ID is returned.
func (s *Store) Record(ctx context.Context, a Activity) (int64, error) {
	if a.At.IsZero() {
		a.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO activity (kind, project_id, session_id, path, detail, at) VALUES (?, ?, ?, ?, ?, ?)",
		string(a.Kind), a.ProjectID, a.SessionID, a.Path, a.Detail, a.At.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("record activity: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit activities, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, project_id, session_id, path, detail, at
		FROM activity ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var (
			a    Activity
			kind string
			at   int64
		)
		if err := rows.Scan(&a.ID, &kind, &a.ProjectID, &a.SessionID, &a.Path, &a.Detail, &at); err != nil {
			return nil, err
		}
		a.Kind = Kind(kind)
		a.At = time.UnixMilli(at)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Counts returns the number of stored activities per kind.
func (s *Store) Counts(ctx context.Context) (map[Kind]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM activity GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("count activity: %w", err)
	}
	defer rows.Close()

	counts := make(map[Kind]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[Kind(kind)] = n
	}
	return counts, rows.Err()
}

// Prune keeps the newest keep activities and deletes the rest. It returns
// the number of deleted rows.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM activity WHERE id NOT IN (
			SELECT id FROM activity ORDER BY at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune activity: %w", err)
	}
	return res.RowsAffected()
}

// Reset deletes every stored activity.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM activity")
	return err
}
