package web

import (
	"net/http"

	"github.com/evcraddock/rent-finder/internal/application"
	"github.com/evcraddock/rent-finder/internal/property"
)

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.applications.ListByUser(claims(r).UserID)
	if err != nil {
		apiFail(w, err, "listing applications")
		return
	}
	apiData(w, apps, http.StatusOK)
}

// handleCreateApplication starts an application, or returns the caller's
// pending one for the same listing.
func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var a application.Application
	if !decodeBody(w, r, &a) {
		return
	}

	if a.PropertyID != "" {
		p, err := s.properties.GetByID(a.PropertyID)
		if err != nil {
			apiFail(w, err, "property")
			return
		}
		if p.Status == property.StatusArchived {
			apiError(w, "This listing is no longer available", http.StatusConflict)
			return
		}
	}
	a.UserID = claims(r).UserID

	created, err := s.applications.Create(&a)
	if err != nil {
		apiFail(w, err, "creating application")
		return
	}
	apiData(w, created, http.StatusCreated)
}

// ownApplication loads one of the caller's applications. Other users'
// applications are reported as missing.
func (s *Server) ownApplication(w http.ResponseWriter, r *http.Request) (*application.Application, bool) {
	a, err := s.applications.GetByID(r.PathValue("id"))
	if err != nil {
		apiFail(w, err, "application")
		return nil, false
	}
	if a.UserID != claims(r).UserID {
		apiError(w, "application not found", http.StatusNotFound)
		return nil, false
	}
	return a, true
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.ownApplication(w, r)
	if !ok {
		return
	}

	var req struct {
		Step int `json:"step"`
		application.Sections
		Documents []string `json:"documents"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Step == 0 {
		req.Step = existing.Step
	}

	updated, err := s.applications.Advance(existing.ID, req.Step, req.Sections, req.Documents)
	if err != nil {
		apiFail(w, err, "application")
		return
	}
	apiData(w, updated, http.StatusOK)
}

func (s *Server) handleWithdrawApplication(w http.ResponseWriter, r *http.Request) {
	if err := s.applications.Withdraw(claims(r).UserID, r.PathValue("id")); err != nil {
		apiFail(w, err, "pending application")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOwnerApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.applications.ListByOwner(claims(r).UserID)
	if err != nil {
		apiFail(w, err, "listing applications")
		return
	}
	apiData(w, apps, http.StatusOK)
}

// handleApplicationStatus records the listing owner's decision.
func (s *Server) handleApplicationStatus(w http.ResponseWriter, r *http.Request) {
	a, err := s.applications.GetByID(r.PathValue("id"))
	if err != nil {
		apiFail(w, err, "application")
		return
	}
	p, err := s.properties.GetByID(a.PropertyID)
	if err != nil {
		apiFail(w, err, "property")
		return
	}
	if !canManage(claims(r), p.OwnerID) {
		apiError(w, "Only the listing owner can decide on applications", http.StatusForbidden)
		return
	}

	var req struct {
		Status application.Status `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := s.applications.SetStatus(a.ID, req.Status)
	if err != nil {
		apiFail(w, err, "application")
		return
	}
	apiData(w, updated, http.StatusOK)
}
