package review

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository provides data access for reviews.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a review repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const columns = "id, property_id, author_id, author_name, rating, text, created_at"

// Add stores a new review.
func (r *Repository) Add(rv *Review) (*Review, error) {
	if err := rv.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err := r.db.Exec(
		"INSERT INTO reviews (id, property_id, author_id, author_name, rating, text) VALUES (?, ?, ?, ?, ?, ?)",
		id, rv.PropertyID, rv.AuthorID, rv.AuthorName, rv.Rating, rv.Text,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting review: %w", err)
	}

	var out Review
	err = r.db.QueryRow("SELECT "+columns+" FROM reviews WHERE id = ?", id).
		Scan(&out.ID, &out.PropertyID, &out.AuthorID, &out.AuthorName, &out.Rating, &out.Text, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading back review: %w", err)
	}
	return &out, nil
}

// ListByPropertyID returns all reviews for a listing, newest first.
func (r *Repository) ListByPropertyID(propertyID string) (reviews []*Review, err error) {
	rows, err := r.db.Query(
		"SELECT "+columns+" FROM reviews WHERE property_id = ? ORDER BY created_at DESC, rowid DESC",
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	reviews = []*Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.PropertyID, &rv.AuthorID, &rv.AuthorName, &rv.Rating, &rv.Text, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, &rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reviews: %w", err)
	}
	return reviews, nil
}
