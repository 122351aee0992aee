package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/rent-finder/internal/auth"
	"github.com/evcraddock/rent-finder/internal/db"
	"github.com/evcraddock/rent-finder/internal/email"
	"github.com/evcraddock/rent-finder/internal/media"
	"github.com/evcraddock/rent-finder/internal/property"
)

func testConfig() auth.Config {
	return auth.Config{
		AdminEmail: "admin@example.com",
		JWTSecret:  "test-secret",
		DevMode:    true,
		BaseURL:    "http://localhost:8080",
	}
}

func testServerWith(t *testing.T, cfg auth.Config, signer media.Signer) (*Server, *sql.DB) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	srv, err := NewServer(d, cfg, signer)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, d
}

func testServer(t *testing.T) *Server {
	t.Helper()
	srv, _ := testServerWith(t, testConfig(), nil)
	return srv
}

// newUser creates an account directly and returns it with an access token.
func newUser(t *testing.T, srv *Server, addr string, role auth.Role) (*auth.User, string) {
	t.Helper()
	u, err := srv.users.Create(addr, strings.Split(addr, "@")[0], "password123", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, _, err := srv.issuer.Issue(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return u, token
}

func apiRequest(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

// decodeData unwraps the {"data": ...} envelope into v.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp["error"]
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

func createListing(t *testing.T, srv *Server, token, title string) *property.Property {
	t.Helper()
	w := apiRequest(t, srv, "POST", "/api/properties", token, property.Property{
		Title:      title,
		PriceCents: 185000,
		Address:    property.Address{Street: "1 Elm St", City: "Austin", State: "TX", Zip: "78701"},
		Bedrooms:   2,
		Bathrooms:  1.5,
	})
	expectStatus(t, w, http.StatusCreated)
	var p property.Property
	decodeData(t, w, &p)
	return &p
}

func TestNewServerRequiresSecretOutsideDevMode(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	cfg := testConfig()
	cfg.JWTSecret = ""
	cfg.DevMode = false
	if _, err := NewServer(d, cfg, nil); err == nil {
		t.Error("expected error without JWT secret")
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(t)
	w := apiRequest(t, srv, "GET", "/health", "", nil)
	expectStatus(t, w, http.StatusOK)
	var got map[string]string
	decodeData(t, w, &got)
	if got["status"] != "ok" {
		t.Errorf("health = %v", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := testServer(t)
	w := apiRequest(t, srv, "GET", "/api/properties", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}

type fakeSigner struct {
	got media.Request
}

func (f *fakeSigner) Sign(_ context.Context, req media.Request) (*media.Credential, error) {
	f.got = req
	return &media.Credential{Method: media.MethodPost, Endpoint: "https://upload.example/api", Token: "tok", Signature: "sig", Expire: 1700000000, PublicKey: "pub"}, nil
}

func TestUploadCredential(t *testing.T) {
	signer := &fakeSigner{}
	srv, _ := testServerWith(t, testConfig(), signer)
	_, token := newUser(t, srv, "lord@example.com", auth.RoleLandlord)

	w := apiRequest(t, srv, "POST", "/api/uploads/credential", "", media.Request{FileName: "a.jpg"})
	expectStatus(t, w, http.StatusUnauthorized)

	w = apiRequest(t, srv, "POST", "/api/uploads/credential", token, media.Request{FileName: "a.pdf", ContentType: "application/pdf"})
	expectStatus(t, w, http.StatusBadRequest)

	w = apiRequest(t, srv, "POST", "/api/uploads/credential", token, media.Request{FileName: "a.jpg", ContentType: "image/jpeg"})
	expectStatus(t, w, http.StatusOK)
	var cred media.Credential
	decodeData(t, w, &cred)
	if cred.Signature != "sig" || cred.Token != "tok" {
		t.Errorf("credential = %+v", cred)
	}
	if signer.got.FileName != "a.jpg" {
		t.Errorf("signer got %+v", signer.got)
	}
}

func TestUploadCredentialNotConfigured(t *testing.T) {
	srv := testServer(t)
	_, token := newUser(t, srv, "lord@example.com", auth.RoleLandlord)

	w := apiRequest(t, srv, "POST", "/api/uploads/credential", token, media.Request{FileName: "a.jpg"})
	expectStatus(t, w, http.StatusServiceUnavailable)
}

func TestInquiryForwardedToAgent(t *testing.T) {
	cfg := testConfig()
	cfg.DevMode = false
	cfg.SMTP = email.SMTPConfig{Host: "smtp.example.com", Port: "587", User: "u", Pass: "p", From: "rf@example.com"}
	srv, _ := testServerWith(t, cfg, nil)

	var sentTo []string
	var sentBody string
	srv.sendEmail = func(_ email.SMTPConfig, to []string, subject, body string) error {
		sentTo = to
		sentBody = body
		return nil
	}

	_, lordToken := newUser(t, srv, "lord@example.com", auth.RoleLandlord)
	p := createListing(t, srv, lordToken, "Sunny loft")

	w := apiRequest(t, srv, "POST", "/api/inquiries", "", map[string]string{
		"property_id": p.ID,
		"name":        "Rita",
		"email":       "rita@example.com",
		"message":     "Is it available in May?",
	})
	expectStatus(t, w, http.StatusCreated)

	if len(sentTo) != 1 || sentTo[0] != "lord@example.com" {
		t.Errorf("sent to %v", sentTo)
	}
	if !strings.Contains(sentBody, "Is it available in May?") {
		t.Errorf("body = %q", sentBody)
	}
}

func TestInquiries(t *testing.T) {
	srv := testServer(t)
	lord, lordToken := newUser(t, srv, "lord@example.com", auth.RoleLandlord)
	renter, renterToken := newUser(t, srv, "renter@example.com", auth.RoleTenant)
	p := createListing(t, srv, lordToken, "Sunny loft")

	w := apiRequest(t, srv, "POST", "/api/inquiries", renterToken, map[string]string{
		"property_id": p.ID, "name": "Rita", "email": "rita@example.com", "message": "Hi",
	})
	expectStatus(t, w, http.StatusCreated)
	var q struct {
		AgentID  string `json:"agent_id"`
		SenderID string `json:"sender_id"`
	}
	decodeData(t, w, &q)
	if q.AgentID != lord.ID || q.SenderID != renter.ID {
		t.Errorf("inquiry agent=%q sender=%q", q.AgentID, q.SenderID)
	}

	w = apiRequest(t, srv, "POST", "/api/inquiries", "", map[string]string{"property_id": p.ID, "name": "Rita"})
	expectStatus(t, w, http.StatusBadRequest)

	w = apiRequest(t, srv, "GET", "/api/inquiries", lordToken, nil)
	expectStatus(t, w, http.StatusOK)
	var inbox []map[string]any
	decodeData(t, w, &inbox)
	if len(inbox) != 1 {
		t.Errorf("inbox has %d, want 1", len(inbox))
	}

	w = apiRequest(t, srv, "GET", "/api/inquiries/sent", renterToken, nil)
	expectStatus(t, w, http.StatusOK)
	var sent []map[string]any
	decodeData(t, w, &sent)
	if len(sent) != 1 {
		t.Errorf("sent has %d, want 1", len(sent))
	}
}
