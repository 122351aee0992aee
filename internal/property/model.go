// Package property provides the rental listing model, search filters and
// data access.
package property

import (
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/validate"
)

// Status is where a listing is in its lifecycle.
type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusArchived  Status = "archived"
)

// ValidStatus returns true if s is a known listing status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusAvailable, StatusPending, StatusArchived:
		return true
	}
	return false
}

// Address is a postal address.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// String formats the address on one line.
func (a Address) String() string {
	var parts []string
	for _, s := range []string{a.Street, a.City, strings.TrimSpace(a.State + " " + a.Zip)} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Property is a rental listing.
type Property struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	PriceCents   int64     `json:"price_cents"`
	Address      Address   `json:"address"`
	PropertyType string    `json:"property_type,omitempty"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    float64   `json:"bathrooms"`
	SquareFeet   int       `json:"square_feet"`
	Images       []string  `json:"images"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the listing before it is saved anywhere.
func (p *Property) Validate() error {
	if err := validate.Required("title", p.Title); err != nil {
		return err
	}
	if err := validate.NonNegative("price", p.PriceCents); err != nil {
		return err
	}
	if err := validate.NonNegative("bedrooms", p.Bedrooms); err != nil {
		return err
	}
	if err := validate.NonNegative("bathrooms", p.Bathrooms); err != nil {
		return err
	}
	if err := validate.NonNegative("square_feet", p.SquareFeet); err != nil {
		return err
	}
	if p.Status != "" && !ValidStatus(string(p.Status)) {
		return apperr.Invalid("status", apperr.KindRange, "unknown status %q", p.Status)
	}
	return nil
}

// FormatPrice renders cents as a monthly rent, e.g. "$1,850/mo".
func FormatPrice(cents int64) string {
	dollars := cents / 100
	s := withCommas(dollars)
	if rem := cents % 100; rem != 0 {
		s = fmt.Sprintf("%s.%02d", s, rem)
	}
	return "$" + s + "/mo"
}

func withCommas(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
