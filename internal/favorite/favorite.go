// Package favorite stores the set of listings each user has saved.
package favorite

import (
	"database/sql"
	"fmt"
	"time"
)

// Favorite links a user to a listing. A pair appears at most once.
type Favorite struct {
	UserID     string    `json:"user_id"`
	PropertyID string    `json:"property_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository provides data access for favorites.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a favorite repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add marks propertyID as a favorite of userID. Adding an existing favorite
// is a no-op.
func (r *Repository) Add(userID, propertyID string) error {
	_, err := r.db.Exec(
		"INSERT INTO favorites (user_id, property_id) VALUES (?, ?) ON CONFLICT(user_id, property_id) DO NOTHING",
		userID, propertyID,
	)
	if err != nil {
		return fmt.Errorf("adding favorite: %w", err)
	}
	return nil
}

// Remove unmarks a favorite. Removing a missing favorite is a no-op.
func (r *Repository) Remove(userID, propertyID string) error {
	if _, err := r.db.Exec("DELETE FROM favorites WHERE user_id = ? AND property_id = ?", userID, propertyID); err != nil {
		return fmt.Errorf("removing favorite: %w", err)
	}
	return nil
}

// PropertyIDs returns the ids favorited by userID in the order they were added.
func (r *Repository) PropertyIDs(userID string) (ids []string, err error) {
	rows, err := r.db.Query(
		"SELECT property_id FROM favorites WHERE user_id = ? ORDER BY created_at, rowid", userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	ids = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
