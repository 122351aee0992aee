package client

import (
	"context"
	"net/http"
	"time"

	"github.com/evcraddock/rent-finder/internal/auth"
)

// AuthResponse is returned by signup, login and refresh.
type AuthResponse struct {
	User         *auth.User `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// SignupRequest registers a new account.
type SignupRequest struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role,omitempty"`
}

// The auth calls below never use the token source: they carry their own
// credentials and are not retried.

// Signup creates an account and returns its first token pair.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges an email and password for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh rotates a refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the account that accessToken belongs to.
func (c *Client) Me(ctx context.Context, accessToken string) (*auth.User, error) {
	var u auth.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", accessToken, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout revokes a refresh token.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return c.do(ctx, http.MethodPost, "/api/auth/logout", "", body, nil)
}

// ResendVerification asks the server to email a new verification link.
func (c *Client) ResendVerification(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/verification", accessToken, nil, nil)
}
