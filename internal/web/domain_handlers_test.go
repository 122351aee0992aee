package web

import (
	"net/http"
	"testing"

	"github.com/evcraddock/rent-finder/internal/application"
	"github.com/evcraddock/rent-finder/internal/auth"
	"github.com/evcraddock/rent-finder/internal/property"
	"github.com/evcraddock/rent-finder/internal/review"
	"github.com/evcraddock/rent-finder/internal/savedsearch"
)

func TestCreatePropertyRequiresLandlord(t *testing.T) {
	srv := testServer(t)
	_, token := newUser(t, srv, "renter@example.com", auth.RoleTenant)

	w := apiRequest(t, srv, "POST", "/api/properties", token, property.Property{Title: "Loft"})
	expectStatus(t, w, http.StatusForbidden)
}

func TestCreatePropertyValidation(t *testing.T) {
	srv := testServer(t)
	_, token := newUser(t, srv, "lord@example.com", auth.RoleLandlord)

	w := apiRequest(t, srv, "POST", "/api/properties", token, property.Property{Title: "Loft", Bedrooms: -1})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestPropertyLifecycle(t *testing.T) {
	srv := testServer(t)
	lord, token := newUser(t, srv, "lord@example.com", auth.RoleLandlord)
	_, otherToken := newUser(t, srv, "other@example.com", auth.RoleLandlord)

	p := createListing(t, srv, token, "Sunny loft")
	if p.OwnerID != lord.ID || p.Status != property.StatusAvailable {
		t.Fatalf("created = %+v", p)
	}

	w := apiRequest(t, srv, "GET", "/api/properties?city=austin&min_beds=2", "", nil)
	expectStatus(t, w, http.StatusOK)
	var list []property.Property
	decodeData(t, w, &list)
	if len(list) != 1 {
		t.Fatalf("filtered list has %d, want 1", len(list))
	}

	p.Title = "Sunnier loft"
	w = apiRequest(t, srv, "PUT", "/api/properties/"+p.ID, otherToken, p)
	expectStatus(t, w, http.StatusForbidden)

	w = apiRequest(t, srv, "PUT", "/api/properties/"+p.ID, token, p)
	expectStatus(t, w, http.StatusOK)
	var updated property.Property
	decodeData(t, w, &updated)
	if updated.Title != "Sunnier loft" || updated.ID != p.ID {
		t.Errorf("updated = %+v", updated)
	}

	w = apiRequest(t, srv, "DELETE", "/api/properties/"+p.ID, token, nil)
	expectStatus(t, w, http.StatusOK)
	var archived property.Property
	decodeData(t, w, &archived)
	if archived.Status != property.StatusArchived {
		t.Errorf("status = %q", archived.Status)
	}

	w = apiRequest(t, srv, "GET", "/api/properties/"+p.ID, "", nil)
	expectStatus(t, w, http.StatusNotFound)
	w = apiRequest(t, srv, "GET", "/api/properties/"+p.ID, token, nil)
	expectStatus(t, w, http.StatusOK)

	w = apiRequest(t, srv, "GET", "/api/me/properties", token, nil)
	expectStatus(t, w, http.StatusOK)
	var mine []property.Property
	decodeData(t, w, &mine)
	if len(mine) != 1 {
		t.Errorf("my properties = %d, want 1", len(mine))
	}
}

func TestGetPropertyNotFound(t *testing.T) {
	srv := testServer(t)
	w := apiRequest(t, srv, "GET", "/api/properties/missing", "", nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestFavorites(t *testing.T) {
	srv := testServer(t)
	_, lordToken := newUser(t, srv, "lord@example.com", auth.RoleLandlord)
	_, token := newUser(t, srv, "renter@example.com", auth.RoleTenant)
	p := createListing(t, srv, lordToken, "Loft")

	w := apiRequest(t, srv, "POST", "/api/favorites", token, map[string]string{"property_id": p.ID})
	expectStatus(t, w, http.StatusCreated)
	w = apiRequest(t, srv, "POST", "/api/favorites", token, map[string]string{"property_id": p.ID})
	expectStatus(t, w, http.StatusCreated)

	w = apiRequest(t, srv, "GET", "/api/favorites", token, nil)
	expectStatus(t, w, http.StatusOK)
	var ids []string
	decodeData(t, w, &ids)
	if len(ids) != 1 || ids[0] != p.ID {
		t.Errorf("favorites = %v", ids)
	}

	w = apiRequest(t, srv, "DELETE", "/api/favorites/"+p.ID, token, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = apiRequest(t, srv, "GET", "/api/favorites", token, nil)
	decodeData(t, w, &ids)
	if len(ids) != 0 {
		t.Errorf("favorites after remove = %v", ids)
	}

	w = apiRequest(t, srv, "POST", "/api/favorites", token, map[string]string{"property_id": "missing"})
	expectStatus(t, w, http.StatusNotFound)
}

func TestApplicationFlow(t *testing.T) {
	srv := testServer(t)
	_, lordToken := newUser(t, srv, "lord@example.com", auth.RoleLandlord)
	_, renterToken := newUser(t, srv, "renter@example.com", auth.RoleTenant)
	p := createListing(t, srv, lordToken, "Loft")

	start := map[string]any{
		"property_id":   p.ID,
		"personal_info": map[string]any{"full_name": "Rita"},
	}
	w := apiRequest(t, srv, "POST", "/api/applications", renterToken, start)
	expectStatus(t, w, http.StatusCreated)
	var app application.Application
	decodeData(t, w, &app)
	if app.Step != 1 || app.Status != application.StatusPending {
		t.Fatalf("started = %+v", app)
	}

	w = apiRequest(t, srv, "POST", "/api/applications", renterToken, start)
	var again application.Application
	decodeData(t, w, &again)
	if again.ID != app.ID {
		t.Error("second start should return the pending application")
	}

	w = apiRequest(t, srv, "PUT", "/api/applications/"+app.ID, renterToken, map[string]any{
		"step":       2,
		"employment": map[string]any{"employer": "Acme"},
	})
	expectStatus(t, w, http.StatusOK)
	var advanced application.Application
	decodeData(t, w, &advanced)
	if advanced.ID != app.ID || advanced.Step != 2 || advanced.Employment["employer"] != "Acme" {
		t.Errorf("advanced = %+v", advanced)
	}
	if advanced.PersonalInfo["full_name"] != "Rita" {
		t.Error("earlier sections should be kept")
	}

	w = apiRequest(t, srv, "PUT", "/api/applications/"+app.ID, renterToken, map[string]any{"step": 1})
	expectStatus(t, w, http.StatusConflict)

	w = apiRequest(t, srv, "PUT", "/api/applications/"+app.ID, lordToken, map[string]any{"step": 3})
	expectStatus(t, w, http.StatusNotFound)

	w = apiRequest(t, srv, "GET", "/api/owner/applications", lordToken, nil)
	expectStatus(t, w, http.StatusOK)
	var incoming []application.Application
	decodeData(t, w, &incoming)
	if len(incoming) != 1 {
		t.Fatalf("owner applications = %d, want 1", len(incoming))
	}

	w = apiRequest(t, srv, "POST", "/api/applications/"+app.ID+"/status", renterToken, map[string]string{"status": "approved"})
	expectStatus(t, w, http.StatusForbidden)

	w = apiRequest(t, srv, "POST", "/api/applications/"+app.ID+"/status", lordToken, map[string]string{"status": "approved"})
	expectStatus(t, w, http.StatusOK)
	var decided application.Application
	decodeData(t, w, &decided)
	if decided.Status != application.StatusApproved {
		t.Errorf("status = %q", decided.Status)
	}

	w = apiRequest(t, srv, "POST", "/api/applications/"+app.ID+"/status", lordToken, map[string]string{"status": "rejected"})
	expectStatus(t, w, http.StatusConflict)

	w = apiRequest(t, srv, "DELETE", "/api/applications/"+app.ID, renterToken, nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestWithdrawApplication(t *testing.T) {
	srv := testServer(t)
	_, lordToken := newUser(t, srv, "lord@example.com", auth.RoleLandlord)
	_, renterToken := newUser(t, srv, "renter@example.com", auth.RoleTenant)
	p := createListing(t, srv, lordToken, "Loft")

	w := apiRequest(t, srv, "POST", "/api/applications", renterToken, map[string]any{"property_id": p.ID})
	var app application.Application
	decodeData(t, w, &app)

	w = apiRequest(t, srv, "DELETE", "/api/applications/"+app.ID, renterToken, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = apiRequest(t, srv, "GET", "/api/applications", renterToken, nil)
	var apps []application.Application
	decodeData(t, w, &apps)
	if len(apps) != 0 {
		t.Errorf("applications = %d, want 0", len(apps))
	}
}

func TestApplyToArchivedListing(t *testing.T) {
	srv := testServer(t)
	_, lordToken := newUser(t, srv, "lord@example.com", auth.RoleLandlord)
	_, renterToken := newUser(t, srv, "renter@example.com", auth.RoleTenant)
	p := createListing(t, srv, lordToken, "Loft")
	apiRequest(t, srv, "DELETE", "/api/properties/"+p.ID, lordToken, nil)

	w := apiRequest(t, srv, "POST", "/api/applications", renterToken, map[string]any{"property_id": p.ID})
	expectStatus(t, w, http.StatusConflict)
}

func TestSavedSearches(t *testing.T) {
	srv := testServer(t)
	_, token := newUser(t, srv, "renter@example.com", auth.RoleTenant)
	_, otherToken := newUser(t, srv, "other@example.com", auth.RoleTenant)

	beds := 2
	w := apiRequest(t, srv, "POST", "/api/saved-searches", token, savedsearch.SavedSearch{
		Name: "Austin 2br", Filters: property.Filters{City: "Austin", MinBedrooms: &beds},
	})
	expectStatus(t, w, http.StatusCreated)
	var ss savedsearch.SavedSearch
	decodeData(t, w, &ss)

	w = apiRequest(t, srv, "POST", "/api/saved-searches", token, savedsearch.SavedSearch{})
	expectStatus(t, w, http.StatusBadRequest)

	ss.Name = "Austin, 2+ beds"
	w = apiRequest(t, srv, "PUT", "/api/saved-searches/"+ss.ID, otherToken, ss)
	expectStatus(t, w, http.StatusNotFound)

	w = apiRequest(t, srv, "PUT", "/api/saved-searches/"+ss.ID, token, ss)
	expectStatus(t, w, http.StatusOK)
	var updated savedsearch.SavedSearch
	decodeData(t, w, &updated)
	if updated.Name != "Austin, 2+ beds" || updated.Filters.MinBedrooms == nil || *updated.Filters.MinBedrooms != 2 {
		t.Errorf("updated = %+v", updated)
	}

	w = apiRequest(t, srv, "DELETE", "/api/saved-searches/"+ss.ID, token, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = apiRequest(t, srv, "GET", "/api/saved-searches", token, nil)
	var list []savedsearch.SavedSearch
	decodeData(t, w, &list)
	if len(list) != 0 {
		t.Errorf("searches = %d, want 0", len(list))
	}
}

func TestReviews(t *testing.T) {
	srv := testServer(t)
	_, lordToken := newUser(t, srv, "lord@example.com", auth.RoleLandlord)
	_, token := newUser(t, srv, "renter@example.com", auth.RoleTenant)
	p := createListing(t, srv, lordToken, "Loft")

	w := apiRequest(t, srv, "POST", "/api/properties/"+p.ID+"/reviews", token, review.Review{Rating: 6})
	expectStatus(t, w, http.StatusBadRequest)

	w = apiRequest(t, srv, "POST", "/api/properties/"+p.ID+"/reviews", token, review.Review{Rating: 4, Text: "Quiet street"})
	expectStatus(t, w, http.StatusCreated)
	var rv review.Review
	decodeData(t, w, &rv)
	if rv.AuthorName != "renter" || rv.PropertyID != p.ID {
		t.Errorf("review = %+v", rv)
	}

	w = apiRequest(t, srv, "GET", "/api/properties/"+p.ID+"/reviews", "", nil)
	expectStatus(t, w, http.StatusOK)
	var list []review.Review
	decodeData(t, w, &list)
	if len(list) != 1 {
		t.Errorf("reviews = %d, want 1", len(list))
	}
}
