package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/auth"
)

type tokenResponse struct {
	User         *auth.User `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// issueTokens answers with a fresh access/refresh pair for u.
func (s *Server) issueTokens(w http.ResponseWriter, u *auth.User, code int) {
	access, expires, err := s.issuer.Issue(u)
	if err != nil {
		apiFail(w, err, "issuing access token")
		return
	}
	refresh, err := s.refresh.Create(u.ID)
	if err != nil {
		apiFail(w, err, "issuing refresh token")
		return
	}
	apiData(w, tokenResponse{User: u, AccessToken: access, RefreshToken: refresh, ExpiresAt: expires}, code)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string    `json:"email"`
		Name     string    `json:"name"`
		Password string    `json:"password"`
		Role     auth.Role `json:"role"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.users.Create(req.Email, req.Name, req.Password, req.Role)
	if errors.Is(err, auth.ErrEmailTaken) {
		apiError(w, "An account with that email already exists", http.StatusConflict)
		return
	}
	if err != nil {
		apiFail(w, err, "creating account")
		return
	}

	s.sendVerification(u)
	slog.Info("signup", "user", u.ID, "role", u.Role)
	s.issueTokens(w, u, http.StatusCreated)
}

// sendVerification emails a verification link. Failures are logged; the
// user can ask for another link.
func (s *Server) sendVerification(u *auth.User) {
	token, err := s.verifications.Create(u.ID)
	if err != nil {
		slog.Error("creating verification token", "user", u.ID, "err", err)
		return
	}
	if _, err := s.mailer.SendVerification(u, token); err != nil {
		slog.Error("sending verification email", "user", u.ID, "err", err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ip := auth.ClientIP(r)
	if s.limiter.Blocked(ip) {
		apiError(w, "Too many login attempts, try again later", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.users.Authenticate(req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.limiter.RecordFailure(ip)
		slog.Warn("login failed", "ip", ip)
		apiError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		apiFail(w, err, "authenticating")
		return
	}

	slog.Info("login success", "user", u.ID, "method", "password")
	s.issueTokens(w, u, http.StatusOK)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	userID, next, err := s.refresh.Rotate(req.RefreshToken)
	if errors.Is(err, auth.ErrInvalidRefreshToken) {
		apiError(w, "Session expired, please log in again", http.StatusUnauthorized)
		return
	}
	if err != nil {
		apiFail(w, err, "rotating refresh token")
		return
	}

	u, err := s.users.GetByID(userID)
	if err != nil {
		apiError(w, "Session expired, please log in again", http.StatusUnauthorized)
		return
	}
	access, expires, err := s.issuer.Issue(u)
	if err != nil {
		apiFail(w, err, "issuing access token")
		return
	}
	apiData(w, tokenResponse{User: u, AccessToken: access, RefreshToken: next, ExpiresAt: expires}, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.refresh.Revoke(req.RefreshToken); err != nil {
		slog.Error("revoking refresh token", "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.GetByID(claims(r).UserID)
	if err != nil {
		apiFail(w, err, "user")
		return
	}
	apiData(w, u, http.StatusOK)
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.GetByID(claims(r).UserID)
	if err != nil {
		apiFail(w, err, "user")
		return
	}
	if u.Verified {
		apiError(w, "Email is already verified", http.StatusConflict)
		return
	}

	token, err := s.verifications.Create(u.ID)
	if err != nil {
		apiFail(w, err, "creating verification token")
		return
	}
	if _, err := s.mailer.SendVerification(u, token); err != nil {
		slog.Error("sending verification email", "user", u.ID, "err", err)
		apiError(w, "Could not send verification email", http.StatusBadGateway)
		return
	}
	apiData(w, map[string]string{"status": "sent"}, http.StatusAccepted)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		apiError(w, "Invalid verification link", http.StatusBadRequest)
		return
	}

	userID, err := s.verifications.Consume(token)
	if err != nil {
		apiError(w, "Invalid or expired verification link", http.StatusBadRequest)
		return
	}
	if err := s.users.MarkVerified(userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apiError(w, "Invalid verification link", http.StatusBadRequest)
			return
		}
		apiFail(w, err, "verifying email")
		return
	}
	apiData(w, map[string]bool{"verified": true}, http.StatusOK)
}
