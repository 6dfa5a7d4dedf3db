// Package ledger indexes stored clips in SQLite so the server can report
// per-word collection counts.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS clips (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	object_name  TEXT NOT NULL UNIQUE,
	word         TEXT NOT NULL,
	session_id   TEXT NOT NULL,
	content_type TEXT NOT NULL,
	size_bytes   INTEGER NOT NULL,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clips_word ON clips(word);
CREATE INDEX IF NOT EXISTS idx_clips_session ON clips(session_id);
`

// Entry is one stored clip.
type Entry struct {
	ObjectName  string
	Word        string
	SessionID   string
	ContentType string
	SizeBytes   int
	CreatedAt   time.Time
}

// Ledger is the clip index.
type Ledger struct {
	db *sql.DB
}

// Open opens (and migrates) the index at path. ":memory:" is accepted.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %q: %w", path, err)
	}
	// One connection keeps in-memory databases shared and serializes writes.
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate ledger %q: %w", path, err)
	}
	return &Ledger{db: db}, nil
}

func migrate(db *sql.DB) error {
	for _, stmt := range strings.Split(migrationsSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts one entry.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.ObjectName) == "" || strings.TrimSpace(e.Word) == "" {
		return errors.New("object name and word must be non-empty")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO clips (object_name, word, session_id, content_type, size_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ObjectName, e.Word, e.SessionID, e.ContentType, e.SizeBytes, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record clip %q: %w", e.ObjectName, err)
	}
	return nil
}

// CountByWord returns how many clips are stored per word.
func (l *Ledger) CountByWord(ctx context.Context) (map[string]int, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT word, COUNT(*) FROM clips GROUP BY word`)
	if err != nil {
		return nil, fmt.Errorf("count clips: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			word  string
			count int
		)
		if err := rows.Scan(&word, &count); err != nil {
			return nil, fmt.Errorf("scan clip count: %w", err)
		}
		counts[word] = count
	}
	return counts, rows.Err()
}

// Sessions returns the number of distinct sessions that uploaded clips.
func (l *Ledger) Sessions(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT session_id) FROM clips`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
