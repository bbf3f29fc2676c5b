package cachestore

import (
	"database/sql"
	"errors"
	"fmt"
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

// SQLiteBackend persists cache entries in a single SQLite table, giving the
// store durability across process restarts.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite initializes or connects to the cache database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
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

	schema := `CREATE TABLE IF NOT EXISTS cache_entries (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &SQLiteBackend{db: db, path: path}, nil
}

// Path returns the database file location.
func (b *SQLiteBackend) Path() string { return b.path }

func (b *SQLiteBackend) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := retryOnBusy(func() error {
		return b.db.QueryRow("SELECT value FROM cache_entries WHERE key = ?", key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	return value, true, nil
}

func (b *SQLiteBackend) Set(key string, value []byte) error {
	err := retryOnBusy(func() error {
		_, execErr := b.db.Exec(
			"INSERT INTO cache_entries (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(key string) error {
	err := retryOnBusy(func() error {
		_, execErr := b.db.Exec("DELETE FROM cache_entries WHERE key = ?", key)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Keys() ([]string, error) {
	var keys []string
	err := retryOnBusy(func() error {
		rows, queryErr := b.db.Query("SELECT key FROM cache_entries ORDER BY key")
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		keys = keys[:0]
		for rows.Next() {
			var key string
			if scanErr := rows.Scan(&key); scanErr != nil {
				return scanErr
			}
			keys = append(keys, key)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list cache keys: %w", err)
	}
	return keys, nil
}

func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
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

func retryOnBusy(op func() error) error {
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
		time.Sleep(delay)
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
