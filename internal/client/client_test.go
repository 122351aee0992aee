package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/evcraddock/rent-finder/internal/application"
	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/media"
	"github.com/evcraddock/rent-finder/internal/property"
)

type staticTokens struct {
	token     string
	next      string
	refreshes int
	err       error
}

func (s *staticTokens) AccessToken() string { return s.token }

func (s *staticTokens) RefreshAccessToken(context.Context) (string, error) {
	s.refreshes++
	if s.err != nil {
		return "", s.err
	}
	s.token = s.next
	return s.next, nil
}

func writeJSON(t *testing.T, w http.ResponseWriter, code int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestListPropertiesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/properties" {
			t.Errorf("path = %q, want /api/properties", r.URL.Path)
		}
		if r.URL.Query().Get("city") != "Austin" || r.URL.Query().Get("min_beds") != "2" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Error("expected Bearer tok")
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"data": []*property.Property{{ID: "p1", Title: "Loft"}}})
	}))
	defer srv.Close()

	beds := 2
	c := New(srv.URL, WithTokenSource(&staticTokens{token: "tok"}))
	props, err := c.ListProperties(context.Background(), property.Filters{City: "Austin", MinBedrooms: &beds})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(props) != 1 || props[0].Title != "Loft" {
		t.Errorf("props = %+v", props)
	}
}

func TestBarePayloadAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []string{"p1", "p2"})
	}))
	defer srv.Close()

	ids, err := New(srv.URL).ListFavorites(context.Background())
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if diff := cmp.Diff([]string{"p1", "p2"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "property not found"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetProperty(context.Background(), "nope")
	var re *apperr.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Status != http.StatusNotFound || re.Message != "property not found" {
		t.Errorf("remote error = %+v", re)
	}
}

func TestServerErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL).AddFavorite(context.Background(), "p1")
	var re *apperr.RemoteError
	if !errors.As(err, &re) || re.Message != "Bad Gateway" {
		t.Errorf("err = %v", err)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).ListApplications(context.Background())
	var re *apperr.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Status != 0 || re.Err == nil {
		t.Errorf("remote error = %+v", re)
	}
}

func TestMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListSavedSearches(context.Background())
	var re *apperr.RemoteError
	if !errors.As(err, &re) || re.Status != 0 || re.Message != "malformed response" {
		t.Errorf("err = %v", err)
	}
}

func TestRefreshOnceOn401(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired access token"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"data": []string{"p1"}})
	}))
	defer srv.Close()

	ts := &staticTokens{token: "stale", next: "fresh"}
	ids, err := New(srv.URL, WithTokenSource(ts)).ListFavorites(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ts.refreshes != 1 || calls != 2 {
		t.Errorf("ids=%v refreshes=%d calls=%d", ids, ts.refreshes, calls)
	}
}

func TestRefreshFailureReturnsOriginal401(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired access token"})
	}))
	defer srv.Close()

	ts := &staticTokens{token: "stale", err: errors.New("session expired")}
	err := New(srv.URL, WithTokenSource(ts)).RemoveFavorite(context.Background(), "p1")
	var re *apperr.RemoteError
	if !errors.As(err, &re) || re.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 || ts.refreshes != 1 {
		t.Errorf("calls=%d refreshes=%d", calls, ts.refreshes)
	}
}

func TestAuthCallsDoNotRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not send a bearer token")
		}
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
	}))
	defer srv.Close()

	ts := &staticTokens{token: "tok", next: "other"}
	_, err := New(srv.URL, WithTokenSource(ts)).Login(context.Background(), "a@example.com", "pw")
	if apperr.Message(err) != "Invalid email or password" {
		t.Errorf("err = %v", err)
	}
	if ts.refreshes != 0 {
		t.Error("login should not trigger a refresh")
	}
}

func TestMeUsesExplicitToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer given" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]string{"id": "u1", "email": "a@example.com", "role": "tenant"}})
	}))
	defer srv.Close()

	u, err := New(srv.URL).Me(context.Background(), "given")
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if u.ID != "u1" || u.Role != "tenant" {
		t.Errorf("user = %+v", u)
	}
}

func TestUpdateApplicationBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/applications/a1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["step"] != float64(3) || body["employment"] == nil {
			t.Errorf("body = %v", body)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{"id": "a1", "step": 3, "status": "pending"}})
	}))
	defer srv.Close()

	app, err := New(srv.URL).UpdateApplication(context.Background(), "a1", ApplicationUpdate{
		Step:     3,
		Sections: application.Sections{Employment: application.Section{"employer": "Acme"}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if app.Step != 3 {
		t.Errorf("step = %d", app.Step)
	}
}

func TestDeleteNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/saved-searches/s1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := New(srv.URL).DeleteSavedSearch(context.Background(), "s1"); err != nil {
		t.Errorf("delete: %v", err)
	}
}

func TestUploadCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req media.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.FileName != "porch.jpg" {
			t.Errorf("request = %+v", req)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"data": media.Credential{Method: "POST", Token: "t", Signature: "s", Expire: 42}})
	}))
	defer srv.Close()

	cred, err := New(srv.URL).UploadCredential(context.Background(), media.Request{FileName: "porch.jpg", ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if cred.Token != "t" || cred.Expire != 42 {
		t.Errorf("credential = %+v", cred)
	}
}
