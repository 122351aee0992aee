package web

import (
	"net/http"

	"github.com/evcraddock/rent-finder/internal/auth"
	"github.com/evcraddock/rent-finder/internal/property"
	"github.com/evcraddock/rent-finder/internal/review"
)

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := s.properties.List(property.ParseQuery(r.URL.Query()))
	if err != nil {
		apiFail(w, err, "listing properties")
		return
	}
	apiData(w, props, http.StatusOK)
}

// handleGetProperty returns a listing. Archived listings are only visible to
// their owner and admins.
func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.GetByID(r.PathValue("id"))
	if err != nil {
		apiFail(w, err, "property")
		return
	}
	if p.Status == property.StatusArchived && !canManage(claims(r), p.OwnerID) {
		apiError(w, "property not found", http.StatusNotFound)
		return
	}
	apiData(w, p, http.StatusOK)
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	c := claims(r)
	if !c.Role.CanList() {
		apiError(w, "Only landlords can create listings", http.StatusForbidden)
		return
	}

	var p property.Property
	if !decodeBody(w, r, &p) {
		return
	}
	p.OwnerID = c.UserID

	created, err := s.properties.Insert(&p)
	if err != nil {
		apiFail(w, err, "creating property")
		return
	}
	apiData(w, created, http.StatusCreated)
}

// ownedProperty loads a listing the caller may change, answering the
// request itself when not.
func (s *Server) ownedProperty(w http.ResponseWriter, r *http.Request) (*property.Property, bool) {
	p, err := s.properties.GetByID(r.PathValue("id"))
	if err != nil {
		apiFail(w, err, "property")
		return nil, false
	}
	if !canManage(claims(r), p.OwnerID) {
		apiError(w, "You do not own this listing", http.StatusForbidden)
		return nil, false
	}
	return p, true
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.ownedProperty(w, r)
	if !ok {
		return
	}

	var p property.Property
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = existing.ID
	p.OwnerID = existing.OwnerID

	updated, err := s.properties.Update(&p)
	if err != nil {
		apiFail(w, err, "property")
		return
	}
	apiData(w, updated, http.StatusOK)
}

// handleArchiveProperty is the DELETE route. Listings are archived, not
// removed, and the archived listing is returned.
func (s *Server) handleArchiveProperty(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.ownedProperty(w, r)
	if !ok {
		return
	}
	archived, err := s.properties.Archive(existing.ID)
	if err != nil {
		apiFail(w, err, "property")
		return
	}
	apiData(w, archived, http.StatusOK)
}

func (s *Server) handleMyProperties(w http.ResponseWriter, r *http.Request) {
	props, err := s.properties.ListByOwner(claims(r).UserID)
	if err != nil {
		apiFail(w, err, "listing properties")
		return
	}
	apiData(w, props, http.StatusOK)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.reviews.ListByPropertyID(r.PathValue("id"))
	if err != nil {
		apiFail(w, err, "listing reviews")
		return
	}
	apiData(w, reviews, http.StatusOK)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	p, err := s.properties.GetByID(r.PathValue("id"))
	if err != nil {
		apiFail(w, err, "property")
		return
	}

	var rv review.Review
	if !decodeBody(w, r, &rv) {
		return
	}

	c := claims(r)
	rv.PropertyID = p.ID
	rv.AuthorID = c.UserID
	rv.AuthorName = s.displayName(c)

	created, err := s.reviews.Add(&rv)
	if err != nil {
		apiFail(w, err, "adding review")
		return
	}
	apiData(w, created, http.StatusCreated)
}

func (s *Server) displayName(c *auth.Claims) string {
	if u, err := s.users.GetByID(c.UserID); err == nil && u.Name != "" {
		return u.Name
	}
	return c.Email
}
