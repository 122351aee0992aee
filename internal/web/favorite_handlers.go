package web

import (
	"net/http"
	"strings"
)

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	ids, err := s.favorites.PropertyIDs(claims(r).UserID)
	if err != nil {
		apiFail(w, err, "listing favorites")
		return
	}
	apiData(w, ids, http.StatusOK)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PropertyID string `json:"property_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	id := strings.TrimSpace(req.PropertyID)
	if id == "" {
		apiError(w, "property_id is required", http.StatusBadRequest)
		return
	}
	if _, err := s.properties.GetByID(id); err != nil {
		apiFail(w, err, "property")
		return
	}

	if err := s.favorites.Add(claims(r).UserID, id); err != nil {
		apiFail(w, err, "adding favorite")
		return
	}
	apiData(w, map[string]string{"property_id": id}, http.StatusCreated)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if err := s.favorites.Remove(claims(r).UserID, r.PathValue("propertyID")); err != nil {
		apiFail(w, err, "removing favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
