// Package web provides the rent-finder JSON API server.
package web

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/evcraddock/rent-finder/internal/application"
	"github.com/evcraddock/rent-finder/internal/auth"
	"github.com/evcraddock/rent-finder/internal/email"
	"github.com/evcraddock/rent-finder/internal/favorite"
	"github.com/evcraddock/rent-finder/internal/inquiry"
	"github.com/evcraddock/rent-finder/internal/logging"
	"github.com/evcraddock/rent-finder/internal/media"
	"github.com/evcraddock/rent-finder/internal/property"
	"github.com/evcraddock/rent-finder/internal/review"
	"github.com/evcraddock/rent-finder/internal/savedsearch"
)

// Server is the API HTTP server.
type Server struct {
	config        auth.Config
	users         *auth.UserStore
	issuer        *auth.Issuer
	refresh       *auth.RefreshStore
	verifications *auth.VerificationStore
	mailer        *auth.Mailer
	limiter       *auth.RateLimiter
	passkey       *passkeyHandlers

	properties   *property.Repository
	favorites    *favorite.Repository
	applications *application.Repository
	searches     *savedsearch.Repository
	inquiries    *inquiry.Repository
	reviews      *review.Repository

	signer    media.Signer
	sendEmail func(cfg email.SMTPConfig, to []string, subject, body string) error

	mux *http.ServeMux
}

// NewServer creates the API server. signer may be nil, in which case upload
// credentials are refused.
func NewServer(db *sql.DB, cfg auth.Config, signer media.Signer) (*Server, error) {
	if cfg.JWTSecret == "" {
		if !cfg.DevMode {
			return nil, fmt.Errorf("RF_JWT_SECRET is required outside dev mode")
		}
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
		slog.Warn("using a random JWT secret; tokens will not survive a restart")
	}

	users := auth.NewUserStore(db, cfg.AdminEmail)
	passkeys := auth.NewPasskeyStore(db)

	s := &Server{
		config:        cfg,
		users:         users,
		issuer:        auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTL),
		refresh:       auth.NewRefreshStore(db, cfg.RefreshTTL),
		verifications: auth.NewVerificationStore(db),
		mailer:        auth.NewMailer(cfg),
		limiter:       auth.NewRateLimiter(),
		properties:    property.NewRepository(db),
		favorites:     favorite.NewRepository(db),
		applications:  application.NewRepository(db),
		searches:      savedsearch.NewRepository(db),
		inquiries:     inquiry.NewRepository(db),
		reviews:       review.NewRepository(db),
		signer:        signer,
		sendEmail:     email.Send,
		mux:           http.NewServeMux(),
	}

	pk, err := newPasskeyHandlers(s, passkeys)
	if err != nil {
		return nil, fmt.Errorf("configuring passkeys: %w", err)
	}
	s.passkey = pk

	s.routes()
	return s, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Server) requireUser(h http.HandlerFunc) http.Handler {
	return auth.RequireUser(s.issuer, s.limiter, h)
}

func (s *Server) optionalUser(h http.HandlerFunc) http.Handler {
	return auth.OptionalUser(s.issuer, h)
}

func (s *Server) routes() {
	m := s.mux

	m.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		apiData(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	m.HandleFunc("POST /api/auth/signup", s.handleSignup)
	m.HandleFunc("POST /api/auth/login", s.handleLogin)
	m.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	m.HandleFunc("POST /api/auth/logout", s.handleLogout)
	m.Handle("GET /api/auth/me", s.requireUser(s.handleMe))
	m.Handle("POST /api/auth/verification", s.requireUser(s.handleResendVerification))
	m.HandleFunc("GET /api/auth/verify", s.handleVerify)
	m.Handle("POST /api/auth/passkey/register/begin", s.requireUser(s.passkey.handleBeginRegistration))
	m.Handle("POST /api/auth/passkey/register/finish", s.requireUser(s.passkey.handleFinishRegistration))
	m.HandleFunc("POST /api/auth/passkey/login/begin", s.passkey.handleBeginLogin)
	m.HandleFunc("POST /api/auth/passkey/login/finish", s.passkey.handleFinishLogin)

	m.HandleFunc("GET /api/properties", s.handleListProperties)
	m.Handle("GET /api/properties/{id}", s.optionalUser(s.handleGetProperty))
	m.Handle("POST /api/properties", s.requireUser(s.handleCreateProperty))
	m.Handle("PUT /api/properties/{id}", s.requireUser(s.handleUpdateProperty))
	m.Handle("DELETE /api/properties/{id}", s.requireUser(s.handleArchiveProperty))
	m.Handle("GET /api/me/properties", s.requireUser(s.handleMyProperties))
	m.HandleFunc("GET /api/properties/{id}/reviews", s.handleListReviews)
	m.Handle("POST /api/properties/{id}/reviews", s.requireUser(s.handleCreateReview))

	m.Handle("GET /api/favorites", s.requireUser(s.handleListFavorites))
	m.Handle("POST /api/favorites", s.requireUser(s.handleAddFavorite))
	m.Handle("DELETE /api/favorites/{propertyID}", s.requireUser(s.handleRemoveFavorite))

	m.Handle("GET /api/applications", s.requireUser(s.handleListApplications))
	m.Handle("POST /api/applications", s.requireUser(s.handleCreateApplication))
	m.Handle("PUT /api/applications/{id}", s.requireUser(s.handleUpdateApplication))
	m.Handle("DELETE /api/applications/{id}", s.requireUser(s.handleWithdrawApplication))
	m.Handle("GET /api/owner/applications", s.requireUser(s.handleOwnerApplications))
	m.Handle("POST /api/applications/{id}/status", s.requireUser(s.handleApplicationStatus))

	m.Handle("GET /api/saved-searches", s.requireUser(s.handleListSearches))
	m.Handle("POST /api/saved-searches", s.requireUser(s.handleCreateSearch))
	m.Handle("PUT /api/saved-searches/{id}", s.requireUser(s.handleUpdateSearch))
	m.Handle("DELETE /api/saved-searches/{id}", s.requireUser(s.handleDeleteSearch))

	m.Handle("POST /api/inquiries", s.optionalUser(s.handleCreateInquiry))
	m.Handle("GET /api/inquiries", s.requireUser(s.handleInbox))
	m.Handle("GET /api/inquiries/sent", s.requireUser(s.handleSentInquiries))

	m.Handle("POST /api/uploads/credential", s.requireUser(s.handleUploadCredential))
}

// ServeHTTP implements http.Handler. Every request is logged.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logging.RequestLogger(s.mux).ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	slog.Info("starting API server", "addr", addr, "base_url", s.config.BaseURL)
	return http.ListenAndServe(addr, s)
}
