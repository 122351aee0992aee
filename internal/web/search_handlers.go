package web

import (
	"net/http"

	"github.com/evcraddock/rent-finder/internal/savedsearch"
)

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := s.searches.List(claims(r).UserID)
	if err != nil {
		apiFail(w, err, "listing saved searches")
		return
	}
	apiData(w, searches, http.StatusOK)
}

func (s *Server) handleCreateSearch(w http.ResponseWriter, r *http.Request) {
	var ss savedsearch.SavedSearch
	if !decodeBody(w, r, &ss) {
		return
	}
	ss.UserID = claims(r).UserID

	created, err := s.searches.Create(&ss)
	if err != nil {
		apiFail(w, err, "saving search")
		return
	}
	apiData(w, created, http.StatusCreated)
}

func (s *Server) handleUpdateSearch(w http.ResponseWriter, r *http.Request) {
	var ss savedsearch.SavedSearch
	if !decodeBody(w, r, &ss) {
		return
	}
	ss.ID = r.PathValue("id")
	ss.UserID = claims(r).UserID

	updated, err := s.searches.Update(&ss)
	if err != nil {
		apiFail(w, err, "saved search")
		return
	}
	apiData(w, updated, http.StatusOK)
}

func (s *Server) handleDeleteSearch(w http.ResponseWriter, r *http.Request) {
	if err := s.searches.Delete(claims(r).UserID, r.PathValue("id")); err != nil {
		apiFail(w, err, "saved search")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
