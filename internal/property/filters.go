package property

import (
	"net/url"
	"strconv"
	"strings"
)

// Filters narrows a property search. Zero values mean "any".
type Filters struct {
	City          string   `json:"city,omitempty"`
	PropertyType  string   `json:"property_type,omitempty"`
	MinPriceCents *int64   `json:"min_price_cents,omitempty"`
	MaxPriceCents *int64   `json:"max_price_cents,omitempty"`
	MinBedrooms   *int     `json:"min_bedrooms,omitempty"`
	MinBathrooms  *float64 `json:"min_bathrooms,omitempty"`
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f == Filters{}
}

// Match reports whether p satisfies every set filter. Archived listings
// never match.
func (f Filters) Match(p *Property) bool {
	if p.Status == StatusArchived {
		return false
	}
	if f.City != "" && !strings.EqualFold(f.City, p.Address.City) {
		return false
	}
	if f.PropertyType != "" && !strings.EqualFold(f.PropertyType, p.PropertyType) {
		return false
	}
	if f.MinPriceCents != nil && p.PriceCents < *f.MinPriceCents {
		return false
	}
	if f.MaxPriceCents != nil && p.PriceCents > *f.MaxPriceCents {
		return false
	}
	if f.MinBedrooms != nil && p.Bedrooms < *f.MinBedrooms {
		return false
	}
	if f.MinBathrooms != nil && p.Bathrooms < *f.MinBathrooms {
		return false
	}
	return true
}

// Query encodes the filters as URL query parameters.
func (f Filters) Query() url.Values {
	q := url.Values{}
	if f.City != "" {
		q.Set("city", f.City)
	}
	if f.PropertyType != "" {
		q.Set("type", f.PropertyType)
	}
	if f.MinPriceCents != nil {
		q.Set("min_price", strconv.FormatInt(*f.MinPriceCents, 10))
	}
	if f.MaxPriceCents != nil {
		q.Set("max_price", strconv.FormatInt(*f.MaxPriceCents, 10))
	}
	if f.MinBedrooms != nil {
		q.Set("min_beds", strconv.Itoa(*f.MinBedrooms))
	}
	if f.MinBathrooms != nil {
		q.Set("min_baths", strconv.FormatFloat(*f.MinBathrooms, 'f', -1, 64))
	}
	return q
}

// ParseQuery is the inverse of Query. Malformed numbers are ignored.
func ParseQuery(q url.Values) Filters {
	f := Filters{
		City:         q.Get("city"),
		PropertyType: q.Get("type"),
	}
	if v, err := strconv.ParseInt(q.Get("min_price"), 10, 64); err == nil {
		f.MinPriceCents = &v
	}
	if v, err := strconv.ParseInt(q.Get("max_price"), 10, 64); err == nil {
		f.MaxPriceCents = &v
	}
	if v, err := strconv.Atoi(q.Get("min_beds")); err == nil {
		f.MinBedrooms = &v
	}
	if v, err := strconv.ParseFloat(q.Get("min_baths"), 64); err == nil {
		f.MinBathrooms = &v
	}
	return f
}
