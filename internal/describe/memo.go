package describe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const memoSchema = `
CREATE TABLE IF NOT EXISTS descriptions (
	source      TEXT NOT NULL,
	query_key   TEXT NOT NULL,
	summary     TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	boxart      TEXT NOT NULL DEFAULT '',
	fetched_at  TEXT NOT NULL,
	PRIMARY KEY (source, query_key)
)`

// Memo persists secondary source results between runs.
type Memo struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenMemo opens or creates the memo database at path.
func OpenMemo(path string) (*Memo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create memo directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(memoSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create memo schema: %w", err)
	}
	return &Memo{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file location.
func (m *Memo) Path() string {
	if m == nil {
		return ""
	}
	return m.path
}

// Close closes the underlying database connection.
func (m *Memo) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

// Get returns the memoized result for (source, key).
func (m *Memo) Get(ctx context.Context, source, key string) (Descriptions, bool, error) {
	var d Descriptions
	row := m.db.QueryRowContext(ctx,
		`SELECT summary, description, boxart FROM descriptions WHERE source = ? AND query_key = ?`,
		source, key)
	if err := row.Scan(&d.Summary, &d.Description, &d.BoxArt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Descriptions{}, false, nil
		}
		return Descriptions{}, false, fmt.Errorf("read memo: %w", err)
	}
	return d, true, nil
}

// Put stores the result for (source, key), replacing any earlier one. Empty
// results are stored too so misses are not repeated.
func (m *Memo) Put(ctx context.Context, source, key string, d Descriptions) error {
	return retryOnBusy(ctx, func() error {
		_, err := m.db.ExecContext(ctx,
			`INSERT INTO descriptions (source, query_key, summary, description, boxart, fetched_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(source, query_key) DO UPDATE SET
			   summary = excluded.summary,
			   description = excluded.description,
			   boxart = excluded.boxart,
			   fetched_at = excluded.fetched_at`,
			source, key, d.Summary, d.Description, d.BoxArt, m.now().UTC().Format(time.RFC3339))
		return err
	})
}

// Count returns the number of memoized results.
func (m *Memo) Count(ctx context.Context) (int, error) {
	var n int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM descriptions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count memo: %w", err)
	}
	return n, nil
}

// Clear removes every memoized result.
func (m *Memo) Clear(ctx context.Context) error {
	return retryOnBusy(ctx, func() error {
		_, err := m.db.ExecContext(ctx, `DELETE FROM descriptions`)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
