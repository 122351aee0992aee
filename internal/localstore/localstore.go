// Package localstore persists client state as JSON blobs keyed by string,
// backed by a single SQLite file.
//
// Each key holds one whole value and every Put replaces it in a single
// statement. There is no cross-process lock: two processes writing the same
// key race and the last writer wins.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/evcraddock/rent-finder/internal/apperr"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultQuota matches the usual browser local storage budget.
const DefaultQuota int64 = 5 << 20

// Store is a key/value store of JSON documents.
type Store struct {
	db    *sql.DB
	quota int64
}

// Option configures a Store.
type Option func(*Store)

// WithQuota caps the total number of stored bytes. Zero or less disables the cap.
func WithQuota(bytes int64) Option {
	return func(s *Store) { s.quota = bytes }
}

// DefaultPath returns ~/.config/rf/local.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "rf", "local.db"), nil
}

// Open opens (or creates) the store at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating local store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS local_state (
		key        TEXT     PRIMARY KEY,
		value      TEXT     NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating local_state table: %w", err)
	}

	s := &Store{db: db, quota: DefaultQuota}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get decodes the value stored under key into v. found is false when the
// key has never been written.
func (s *Store) Get(ctx context.Context, key string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_state WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// Put replaces the value under key. When the write would take the store
// over its quota nothing is written and a *apperr.PersistenceError wrapping
// apperr.ErrQuotaExceeded is returned.
func (s *Store) Put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &apperr.PersistenceError{Key: key, Err: fmt.Errorf("encoding: %w", err)}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &apperr.PersistenceError{Key: key, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if s.quota > 0 {
		var others int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0) FROM local_state WHERE key != ?`, key,
		).Scan(&others)
		if err != nil {
			return &apperr.PersistenceError{Key: key, Err: err}
		}
		if others+int64(len(key)+len(raw)) > s.quota {
			return &apperr.PersistenceError{Key: key, Err: apperr.ErrQuotaExceeded}
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw),
	)
	if err != nil {
		return &apperr.PersistenceError{Key: key, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &apperr.PersistenceError{Key: key, Err: err}
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM local_state ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
