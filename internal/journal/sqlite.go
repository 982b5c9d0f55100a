package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (and if needed creates) the journal database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pass_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		app_id TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		detail TEXT NOT NULL DEFAULT '',
		at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pass_id ON records(pass_id);
	CREATE INDEX IF NOT EXISTS idx_at ON records(at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a record to the journal.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (pass_id, kind, app_id, state, duration_ms, detail, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.PassID, string(rec.Kind), rec.AppID, rec.State, rec.DurationMS, rec.Detail, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert journal record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pass_id, kind, app_id, state, duration_ms, detail, at
		 FROM records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ByPass returns all records for one pass id, oldest first.
func (s *SQLiteStore) ByPass(ctx context.Context, passID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pass_id, kind, app_id, state, duration_ms, detail, at
		 FROM records WHERE pass_id = ? ORDER BY id ASC`, passID)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		var kind string
		var atMillis int64
		if err := rows.Scan(&rec.ID, &rec.PassID, &kind, &rec.AppID, &rec.State, &rec.DurationMS, &rec.Detail, &atMillis); err != nil {
			return nil, fmt.Errorf("scan journal record: %w", err)
		}
		rec.Kind = Kind(kind)
		rec.At = time.UnixMilli(atMillis)
		out = append(out, rec)
	}
	return out, rows.Err()
}
