// Package db opens the API server's SQLite database. It holds accounts,
// tokens and every marketplace table: listings, favorites, applications,
// saved searches, inquiries and reviews.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// PathEnv overrides the default database location.
const PathEnv = "RF_DB_PATH"

// DefaultPath returns $RF_DB_PATH, or ~/.config/rf/server.db.
func DefaultPath() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "rf", "server.db"), nil
}

// dsn carries every pragma, since database/sql may open fresh connections
// at any time and per-connection settings must apply to all of them.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", "5000")
	q.Set("_synchronous", "NORMAL")
	return path + "?" + q.Encode()
}

// Open creates the directory for path if needed, opens the database and
// brings its schema up to date.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	d, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := d.Ping(); err != nil {
		return nil, closeWith(d, fmt.Errorf("opening database %s: %w", path, err))
	}
	if err := migrate(d); err != nil {
		return nil, closeWith(d, fmt.Errorf("running migrations: %w", err))
	}
	return d, nil
}

func closeWith(d *sql.DB, err error) error {
	if cerr := d.Close(); cerr != nil {
		return errors.Join(err, fmt.Errorf("closing database: %w", cerr))
	}
	return err
}
