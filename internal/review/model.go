// Package review provides property reviews and their data access.
package review

import (
	"time"

	"github.com/evcraddock/rent-finder/internal/apperr"
)

// Review is a rating left on a listing.
type Review struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the rating range.
func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return apperr.Invalid("rating", apperr.KindRange, "rating must be 1-5, got %d", r.Rating)
	}
	return nil
}
