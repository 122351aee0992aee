// Package savedsearch stores named property searches for a user.
package savedsearch

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/property"
	"github.com/evcraddock/rent-finder/internal/validate"
	"github.com/google/uuid"
)

// SavedSearch is a named set of filters owned by one user.
type SavedSearch struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Name      string           `json:"name"`
	Filters   property.Filters `json:"filters"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Validate checks the search has a name.
func (s *SavedSearch) Validate() error {
	return validate.Required("name", s.Name)
}

// Repository provides data access for saved searches.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a saved search repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const columns = "id, user_id, name, filters_json, created_at, updated_at"

func scan(row interface{ Scan(...interface{}) error }) (*SavedSearch, error) {
	var s SavedSearch
	var filters string
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &filters, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(filters), &s.Filters); err != nil {
		return nil, fmt.Errorf("decoding filters: %w", err)
	}
	return &s, nil
}

// Create stores a new search for s.UserID.
func (r *Repository) Create(s *SavedSearch) (*SavedSearch, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	filters, err := json.Marshal(s.Filters)
	if err != nil {
		return nil, fmt.Errorf("encoding filters: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.Exec(
		"INSERT INTO saved_searches (id, user_id, name, filters_json) VALUES (?, ?, ?, ?)",
		id, s.UserID, s.Name, string(filters),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting saved search: %w", err)
	}
	return r.Get(s.UserID, id)
}

// Get returns one of userID's searches.
func (r *Repository) Get(userID, id string) (*SavedSearch, error) {
	s, err := scan(r.db.QueryRow(
		"SELECT "+columns+" FROM saved_searches WHERE id = ? AND user_id = ?", id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("saved search %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying saved search: %w", err)
	}
	return s, nil
}

// List returns userID's searches, oldest first.
func (r *Repository) List(userID string) (searches []*SavedSearch, err error) {
	rows, err := r.db.Query(
		"SELECT "+columns+" FROM saved_searches WHERE user_id = ? ORDER BY created_at, rowid", userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing saved searches: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	searches = []*SavedSearch{}
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning saved search: %w", err)
		}
		searches = append(searches, s)
	}
	return searches, rows.Err()
}

// Update renames a search and replaces its filters. Only the owner's rows
// are touched.
func (r *Repository) Update(s *SavedSearch) (*SavedSearch, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	filters, err := json.Marshal(s.Filters)
	if err != nil {
		return nil, fmt.Errorf("encoding filters: %w", err)
	}

	result, err := r.db.Exec(
		"UPDATE saved_searches SET name = ?, filters_json = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?",
		s.Name, string(filters), s.ID, s.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating saved search: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("saved search %s: %w", s.ID, apperr.ErrNotFound)
	}
	return r.Get(s.UserID, s.ID)
}

// Delete removes one of userID's searches.
func (r *Repository) Delete(userID, id string) error {
	result, err := r.db.Exec("DELETE FROM saved_searches WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("deleting saved search: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("saved search %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
