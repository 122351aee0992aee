package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT     PRIMARY KEY,
		email         TEXT     NOT NULL UNIQUE,
		name          TEXT     NOT NULL DEFAULT '',
		password_hash TEXT     NOT NULL,
		role          TEXT     NOT NULL DEFAULT 'tenant' CHECK (role IN ('tenant', 'landlord', 'admin')),
		verified      INTEGER  NOT NULL DEFAULT 0,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT     NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash TEXT     NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked    INTEGER  NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS verification_tokens (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		token      TEXT     NOT NULL UNIQUE,
		user_id    TEXT     NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		used       INTEGER  DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT     PRIMARY KEY,
		user_id         TEXT     NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name            TEXT     NOT NULL DEFAULT '',
		credential_json TEXT     NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id            TEXT     PRIMARY KEY,
		owner_id      TEXT     NOT NULL REFERENCES users(id),
		title         TEXT     NOT NULL,
		description   TEXT     NOT NULL DEFAULT '',
		price_cents   INTEGER  NOT NULL CHECK (price_cents >= 0),
		street        TEXT     NOT NULL DEFAULT '',
		city          TEXT     NOT NULL DEFAULT '',
		state         TEXT     NOT NULL DEFAULT '',
		zip           TEXT     NOT NULL DEFAULT '',
		property_type TEXT     NOT NULL DEFAULT '',
		bedrooms      INTEGER  NOT NULL DEFAULT 0 CHECK (bedrooms >= 0),
		bathrooms     REAL     NOT NULL DEFAULT 0 CHECK (bathrooms >= 0),
		square_feet   INTEGER  NOT NULL DEFAULT 0 CHECK (square_feet >= 0),
		images_json   TEXT     NOT NULL DEFAULT '[]',
		status        TEXT     NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'pending', 'archived')),
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		user_id     TEXT     NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		property_id TEXT     NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, property_id)
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id              TEXT     PRIMARY KEY,
		property_id     TEXT     NOT NULL REFERENCES properties(id),
		user_id         TEXT     NOT NULL REFERENCES users(id),
		step            INTEGER  NOT NULL DEFAULT 1 CHECK (step >= 1),
		status          TEXT     NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
		personal_info   TEXT     NOT NULL DEFAULT '{}',
		rental_history  TEXT     NOT NULL DEFAULT '{}',
		employment      TEXT     NOT NULL DEFAULT '{}',
		references_json TEXT     NOT NULL DEFAULT '{}',
		disclosures     TEXT     NOT NULL DEFAULT '{}',
		documents_json  TEXT     NOT NULL DEFAULT '[]',
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS saved_searches (
		id           TEXT     PRIMARY KEY,
		user_id      TEXT     NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name         TEXT     NOT NULL,
		filters_json TEXT     NOT NULL DEFAULT '{}',
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS inquiries (
		id          TEXT     PRIMARY KEY,
		property_id TEXT     NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		agent_id    TEXT     NOT NULL,
		sender_id   TEXT     NOT NULL DEFAULT '',
		name        TEXT     NOT NULL DEFAULT '',
		email       TEXT     NOT NULL DEFAULT '',
		message     TEXT     NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id          TEXT     PRIMARY KEY,
		property_id TEXT     NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		author_id   TEXT     NOT NULL,
		author_name TEXT     NOT NULL DEFAULT '',
		rating      INTEGER  NOT NULL CHECK (rating >= 1 AND rating <= 5),
		text        TEXT     NOT NULL DEFAULT '',
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_user ON applications(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_inquiries_agent ON inquiries(agent_id)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions; each checks whether the column exists first.
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"inquiries", "phone", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}

	found := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating columns: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing rows: %w", err)
	}
	if found {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
