// Package session holds the signed-in identity for a running process. A
// Context is created once at startup and handed to everything that needs
// to know who the user is.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/auth"
	"github.com/evcraddock/rent-finder/internal/client"
	"github.com/evcraddock/rent-finder/internal/validate"
)

// Session is the signed-in identity. The zero value is anonymous.
type Session struct {
	UserID       string
	Email        string
	Name         string
	Token        string
	RefreshToken string
	Role         auth.Role
	Verified     bool
}

// Present reports whether a user is signed in.
func (s Session) Present() bool {
	return s.UserID != ""
}

// Authenticator performs the remote auth calls. *client.Client implements it.
type Authenticator interface {
	Signup(ctx context.Context, req client.SignupRequest) (*client.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*client.AuthResponse, error)
	Me(ctx context.Context, accessToken string) (*auth.User, error)
	Logout(ctx context.Context, refreshToken string) error
	ResendVerification(ctx context.Context, accessToken string) error
}

// Context tracks the current session.
type Context struct {
	auth  Authenticator
	creds CredentialStore

	mu      sync.RWMutex
	current Session
	loading bool
	ready   chan struct{}
	restore sync.Once

	refreshMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]func(Session)
	nextSub int
}

// New creates a Context that is loading until Restore is called.
func New(a Authenticator, creds CredentialStore) *Context {
	return &Context{
		auth:    a,
		creds:   creds,
		loading: true,
		ready:   make(chan struct{}),
		subs:    make(map[int]func(Session)),
	}
}

// Restore loads the persisted credential and checks it with the server,
// refreshing once if the access token was rejected. The credential is
// cleared only when the server rejects it; if the server cannot be reached
// the stored identity is used and later calls fall back to local data.
// Loading always ends, and calling Restore again does nothing.
func (c *Context) Restore(ctx context.Context) error {
	var err error
	c.restore.Do(func() {
		defer c.finishLoading()
		err = c.doRestore(ctx)
	})
	return err
}

func (c *Context) doRestore(ctx context.Context) error {
	cred, err := c.creds.LoadCredential()
	if err != nil {
		return err
	}
	if cred == nil || cred.Token == "" {
		return nil
	}

	u, err := c.auth.Me(ctx, cred.Token)
	if isUnauthorized(err) && cred.RefreshToken != "" {
		resp, rerr := c.auth.Refresh(ctx, cred.RefreshToken)
		switch {
		case rerr == nil && resp.User != nil:
			cred = &Credential{Token: resp.AccessToken, RefreshToken: resp.RefreshToken}
			u, err = resp.User, nil
		case rerr != nil:
			err = rerr
		}
	}

	switch {
	case err == nil && u != nil:
		next := credentialFor(u, cred.Token, cred.RefreshToken)
		if err := c.creds.SaveCredential(next); err != nil {
			slog.Warn("saving refreshed credential", "err", err)
		}
		c.set(sessionFor(u, cred.Token, cred.RefreshToken))
	case isUnauthorized(err) || err == nil:
		slog.Info("stored session was rejected", "err", err)
		if cerr := c.creds.ClearCredential(); cerr != nil {
			slog.Warn("clearing stored credential", "err", cerr)
		}
	default:
		snap := cred.user()
		if snap == nil {
			slog.Warn("server unreachable, stored session kept but not restored", "err", err)
			return nil
		}
		slog.Warn("server unreachable, using stored session", "user", snap.ID, "err", err)
		c.set(sessionFor(snap, cred.Token, cred.RefreshToken))
	}
	return nil
}

func (c *Context) finishLoading() {
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	close(c.ready)
}

// Wait blocks until Restore has finished.
func (c *Context) Wait(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns a copy of the session.
func (c *Context) Current() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// User returns the signed-in user, or nil when anonymous.
func (c *Context) User() *auth.User {
	s := c.Current()
	if !s.Present() {
		return nil
	}
	return &auth.User{ID: s.UserID, Email: s.Email, Name: s.Name, Role: s.Role, Verified: s.Verified}
}

// IsLoggedIn reports whether a user is signed in.
func (c *Context) IsLoggedIn() bool {
	return c.Current().Present()
}

// IsLoading reports whether Restore has not finished yet.
func (c *Context) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Login signs in with a password. Input is checked before any network call.
// A rejected login is an *apperr.AuthError carrying the server's message.
func (c *Context) Login(ctx context.Context, email, password string) error {
	if err := validate.Email(email); err != nil {
		return err
	}
	if err := validate.Required("password", password); err != nil {
		return err
	}

	resp, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return &apperr.AuthError{Message: apperr.Message(err), Err: err}
	}
	return c.install(resp)
}

// Signup creates an account and signs in to it.
func (c *Context) Signup(ctx context.Context, email, name, password string, role auth.Role) error {
	if err := validate.Email(email); err != nil {
		return err
	}
	if err := validate.Required("name", name); err != nil {
		return err
	}
	if err := validate.Password(password); err != nil {
		return err
	}

	resp, err := c.auth.Signup(ctx, client.SignupRequest{Email: email, Name: name, Password: password, Role: role})
	if err != nil {
		return &apperr.AuthError{Message: apperr.Message(err), Err: err}
	}
	return c.install(resp)
}

func (c *Context) install(resp *client.AuthResponse) error {
	if resp.User == nil || resp.AccessToken == "" {
		return &apperr.AuthError{Message: "The server returned an incomplete session"}
	}
	if err := c.creds.SaveCredential(credentialFor(resp.User, resp.AccessToken, resp.RefreshToken)); err != nil {
		return &apperr.PersistenceError{Key: "credential", Err: err}
	}
	c.set(sessionFor(resp.User, resp.AccessToken, resp.RefreshToken))
	return nil
}

// Logout ends the session locally right away, then revokes the refresh
// token on the server. Local data kept for anonymous use is not touched.
func (c *Context) Logout(ctx context.Context) error {
	prev := c.Current()
	c.set(Session{})
	if err := c.creds.ClearCredential(); err != nil {
		slog.Warn("clearing stored credential", "err", err)
	}

	if prev.RefreshToken != "" {
		if err := c.auth.Logout(ctx, prev.RefreshToken); err != nil {
			slog.Warn("revoking refresh token", "err", err)
		}
	}
	return nil
}

// ResendVerificationEmail asks for a new verification link.
func (c *Context) ResendVerificationEmail(ctx context.Context) error {
	s := c.Current()
	if !s.Present() {
		return &apperr.AuthError{Message: "You must be logged in to verify your email"}
	}
	err := c.auth.ResendVerification(ctx, s.Token)
	if isUnauthorized(err) {
		token, rerr := c.RefreshAccessToken(ctx)
		if rerr != nil {
			return rerr
		}
		err = c.auth.ResendVerification(ctx, token)
	}
	if err != nil {
		return &apperr.AuthError{Message: apperr.Message(err), Err: err}
	}
	return nil
}

// Subscribe calls fn whenever the signed-in identity changes. The returned
// function stops the notifications.
func (c *Context) Subscribe(fn func(Session)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// AccessToken implements client.TokenSource.
func (c *Context) AccessToken() string {
	return c.Current().Token
}

// RefreshAccessToken implements client.TokenSource. If the refresh token is
// rejected the session is destroyed; a transport failure leaves it intact.
func (c *Context) RefreshAccessToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	s := c.Current()
	if !s.Present() || s.RefreshToken == "" {
		return "", &apperr.AuthError{Message: "Not logged in"}
	}

	resp, err := c.auth.Refresh(ctx, s.RefreshToken)
	if isUnauthorized(err) {
		c.invalidate()
		return "", &apperr.AuthError{Message: "Your session has expired, please log in again", Err: err}
	}
	if err != nil {
		return "", err
	}
	if err := c.install(resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (c *Context) invalidate() {
	c.set(Session{})
	if err := c.creds.ClearCredential(); err != nil {
		slog.Warn("clearing stored credential", "err", err)
	}
}

// set replaces the session. Subscribers are told only when the user
// changes; a token refresh for the same user is silent.
func (c *Context) set(s Session) {
	c.mu.Lock()
	changed := c.current.UserID != s.UserID
	c.current = s
	c.mu.Unlock()

	if !changed {
		return
	}
	c.subMu.Lock()
	subs := make([]func(Session), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

func sessionFor(u *auth.User, token, refresh string) Session {
	return Session{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Token:        token,
		RefreshToken: refresh,
		Role:         u.Role,
		Verified:     u.Verified,
	}
}

func isUnauthorized(err error) bool {
	var re *apperr.RemoteError
	return errors.As(err, &re) && re.Status == http.StatusUnauthorized
}
