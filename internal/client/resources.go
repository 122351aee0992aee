package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/evcraddock/rent-finder/internal/application"
	"github.com/evcraddock/rent-finder/internal/inquiry"
	"github.com/evcraddock/rent-finder/internal/media"
	"github.com/evcraddock/rent-finder/internal/property"
	"github.com/evcraddock/rent-finder/internal/review"
	"github.com/evcraddock/rent-finder/internal/savedsearch"
)

// ListProperties returns available listings matching f.
func (c *Client) ListProperties(ctx context.Context, f property.Filters) ([]*property.Property, error) {
	path := "/api/properties"
	if q := f.Query(); len(q) > 0 {
		path += "?" + q.Encode()
	}
	var props []*property.Property
	if err := c.call(ctx, http.MethodGet, path, nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// GetProperty returns one listing.
func (c *Client) GetProperty(ctx context.Context, id string) (*property.Property, error) {
	var p property.Property
	if err := c.call(ctx, http.MethodGet, "/api/properties/"+escape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListMyProperties returns the caller's listings, archived ones included.
func (c *Client) ListMyProperties(ctx context.Context) ([]*property.Property, error) {
	var props []*property.Property
	if err := c.call(ctx, http.MethodGet, "/api/me/properties", nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// CreateProperty publishes a new listing.
func (c *Client) CreateProperty(ctx context.Context, p *property.Property) (*property.Property, error) {
	var out property.Property
	if err := c.call(ctx, http.MethodPost, "/api/properties", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProperty replaces listing p.ID.
func (c *Client) UpdateProperty(ctx context.Context, p *property.Property) (*property.Property, error) {
	var out property.Property
	if err := c.call(ctx, http.MethodPut, "/api/properties/"+escape(p.ID), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ArchiveProperty archives a listing and returns it.
func (c *Client) ArchiveProperty(ctx context.Context, id string) (*property.Property, error) {
	var out property.Property
	if err := c.call(ctx, http.MethodDelete, "/api/properties/"+escape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListFavorites returns the ids of the caller's favorite listings.
func (c *Client) ListFavorites(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := c.call(ctx, http.MethodGet, "/api/favorites", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AddFavorite marks a listing as favorite.
func (c *Client) AddFavorite(ctx context.Context, propertyID string) error {
	return c.call(ctx, http.MethodPost, "/api/favorites", map[string]string{"property_id": propertyID}, nil)
}

// RemoveFavorite unmarks a listing.
func (c *Client) RemoveFavorite(ctx context.Context, propertyID string) error {
	return c.call(ctx, http.MethodDelete, "/api/favorites/"+escape(propertyID), nil, nil)
}

// ListApplications returns the caller's applications.
func (c *Client) ListApplications(ctx context.Context) ([]*application.Application, error) {
	var apps []*application.Application
	if err := c.call(ctx, http.MethodGet, "/api/applications", nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ListOwnerApplications returns applications on the caller's listings.
func (c *Client) ListOwnerApplications(ctx context.Context) ([]*application.Application, error) {
	var apps []*application.Application
	if err := c.call(ctx, http.MethodGet, "/api/owner/applications", nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// CreateApplication starts an application. The server returns the caller's
// pending application for the same listing if there is one.
func (c *Client) CreateApplication(ctx context.Context, a *application.Application) (*application.Application, error) {
	var out application.Application
	if err := c.call(ctx, http.MethodPost, "/api/applications", a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplicationUpdate advances an application.
type ApplicationUpdate struct {
	Step int `json:"step"`
	application.Sections
	Documents []string `json:"documents,omitempty"`
}

// UpdateApplication advances application id.
func (c *Client) UpdateApplication(ctx context.Context, id string, u ApplicationUpdate) (*application.Application, error) {
	var out application.Application
	if err := c.call(ctx, http.MethodPut, "/api/applications/"+escape(id), u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WithdrawApplication deletes a pending application.
func (c *Client) WithdrawApplication(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/applications/"+escape(id), nil, nil)
}

// SetApplicationStatus records the owner's decision.
func (c *Client) SetApplicationStatus(ctx context.Context, id string, status application.Status) (*application.Application, error) {
	var out application.Application
	path := fmt.Sprintf("/api/applications/%s/status", escape(id))
	if err := c.call(ctx, http.MethodPost, path, map[string]application.Status{"status": status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSavedSearches returns the caller's saved searches.
func (c *Client) ListSavedSearches(ctx context.Context) ([]*savedsearch.SavedSearch, error) {
	var list []*savedsearch.SavedSearch
	if err := c.call(ctx, http.MethodGet, "/api/saved-searches", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateSavedSearch stores a search.
func (c *Client) CreateSavedSearch(ctx context.Context, s *savedsearch.SavedSearch) (*savedsearch.SavedSearch, error) {
	var out savedsearch.SavedSearch
	if err := c.call(ctx, http.MethodPost, "/api/saved-searches", s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSavedSearch replaces search s.ID.
func (c *Client) UpdateSavedSearch(ctx context.Context, s *savedsearch.SavedSearch) (*savedsearch.SavedSearch, error) {
	var out savedsearch.SavedSearch
	if err := c.call(ctx, http.MethodPut, "/api/saved-searches/"+escape(s.ID), s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSavedSearch removes a search.
func (c *Client) DeleteSavedSearch(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/saved-searches/"+escape(id), nil, nil)
}

// CreateInquiry sends a message to a listing's agent.
func (c *Client) CreateInquiry(ctx context.Context, q *inquiry.Inquiry) (*inquiry.Inquiry, error) {
	var out inquiry.Inquiry
	if err := c.call(ctx, http.MethodPost, "/api/inquiries", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInquiries returns the caller's inbox as an agent.
func (c *Client) ListInquiries(ctx context.Context) ([]*inquiry.Inquiry, error) {
	var list []*inquiry.Inquiry
	if err := c.call(ctx, http.MethodGet, "/api/inquiries", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListSentInquiries returns inquiries the caller has sent.
func (c *Client) ListSentInquiries(ctx context.Context) ([]*inquiry.Inquiry, error) {
	var list []*inquiry.Inquiry
	if err := c.call(ctx, http.MethodGet, "/api/inquiries/sent", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListReviews returns reviews for a listing.
func (c *Client) ListReviews(ctx context.Context, propertyID string) ([]*review.Review, error) {
	var list []*review.Review
	if err := c.call(ctx, http.MethodGet, "/api/properties/"+escape(propertyID)+"/reviews", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateReview rates a listing.
func (c *Client) CreateReview(ctx context.Context, propertyID string, rating int, text string) (*review.Review, error) {
	body := review.Review{Rating: rating, Text: text}
	var out review.Review
	if err := c.call(ctx, http.MethodPost, "/api/properties/"+escape(propertyID)+"/reviews", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadCredential asks the server to sign a direct image upload.
func (c *Client) UploadCredential(ctx context.Context, req media.Request) (*media.Credential, error) {
	var cred media.Credential
	if err := c.call(ctx, http.MethodPost, "/api/uploads/credential", req, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}
