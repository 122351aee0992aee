package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/evcraddock/rent-finder/internal/auth"
)

// ceremonyTTL bounds how long a begun passkey ceremony may be finished.
const ceremonyTTL = 5 * time.Minute

type ceremony struct {
	session *webauthn.SessionData
	userID  string // empty for login
	expires time.Time
}

// passkeyHandlers holds WebAuthn-related HTTP handlers. In-flight
// ceremonies are kept in memory, keyed by an id returned from begin and
// passed back to finish as ?ceremony=.
type passkeyHandlers struct {
	srv      *Server
	wan      *webauthn.WebAuthn
	passkeys *auth.PasskeyStore

	mu         sync.Mutex
	ceremonies map[string]ceremony
}

func newPasskeyHandlers(srv *Server, passkeys *auth.PasskeyStore) (*passkeyHandlers, error) {
	parsed, err := url.Parse(srv.config.BaseURL)
	if err != nil {
		return nil, err
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Rent Finder",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{srv.config.BaseURL},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		srv:        srv,
		wan:        wan,
		passkeys:   passkeys,
		ceremonies: make(map[string]ceremony),
	}, nil
}

func (h *passkeyHandlers) start(session *webauthn.SessionData, userID string) string {
	id := uuid.NewString()
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()
	for k, c := range h.ceremonies {
		if now.After(c.expires) {
			delete(h.ceremonies, k)
		}
	}
	h.ceremonies[id] = ceremony{session: session, userID: userID, expires: now.Add(ceremonyTTL)}
	return id
}

// take removes and returns a ceremony. Expired ceremonies are not returned.
func (h *passkeyHandlers) take(id string) (ceremony, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.ceremonies[id]
	if ok {
		delete(h.ceremonies, id)
	}
	if !ok || time.Now().After(c.expires) {
		return ceremony{}, false
	}
	return c, true
}

func (h *passkeyHandlers) passkeyUser(userID string) (*auth.PasskeyUser, error) {
	u, err := h.srv.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	creds, err := h.passkeys.WebAuthnCredentials(userID)
	if err != nil {
		return nil, err
	}
	return auth.NewPasskeyUser(u, creds), nil
}

// handleBeginRegistration starts adding a passkey to the caller's account.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	c := claims(r)
	user, err := h.passkeyUser(c.UserID)
	if err != nil {
		apiFail(w, err, "loading passkeys")
		return
	}

	// Exclude existing credentials so the same key is not registered twice.
	existing := user.WebAuthnCredentials()
	exclude := make([]protocol.CredentialDescriptor, len(existing))
	for i, cred := range existing {
		exclude[i] = cred.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(user, webauthn.WithExclusions(exclude))
	if err != nil {
		apiFail(w, err, "beginning passkey registration")
		return
	}

	apiData(w, map[string]any{
		"ceremony_id": h.start(session, c.UserID),
		"options":     creation,
	}, http.StatusOK)
}

// handleFinishRegistration completes passkey registration.
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	c := claims(r)
	cer, ok := h.take(r.URL.Query().Get("ceremony"))
	if !ok || cer.userID != c.UserID {
		apiError(w, "No registration in progress", http.StatusBadRequest)
		return
	}

	user, err := h.passkeyUser(c.UserID)
	if err != nil {
		apiFail(w, err, "loading passkeys")
		return
	}

	credential, err := h.wan.FinishRegistration(user, *cer.session, r)
	if err != nil {
		slog.Warn("finishing passkey registration", "user", c.UserID, "err", err)
		apiError(w, "Registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}
	if err := h.passkeys.Save(c.UserID, name, credential); err != nil {
		apiFail(w, err, "saving passkey")
		return
	}

	apiData(w, map[string]string{"status": "ok", "name": name}, http.StatusCreated)
}

// handleBeginLogin starts a discoverable passkey login.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		apiFail(w, err, "beginning passkey login")
		return
	}

	apiData(w, map[string]any{
		"ceremony_id": h.start(session, ""),
		"options":     assertion,
	}, http.StatusOK)
}

// handleFinishLogin completes a passkey login and issues tokens.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	ip := auth.ClientIP(r)
	if h.srv.limiter.Blocked(ip) {
		apiError(w, "Too many login attempts, try again later", http.StatusTooManyRequests)
		return
	}

	cer, ok := h.take(r.URL.Query().Get("ceremony"))
	if !ok || cer.userID != "" {
		apiError(w, "No login in progress", http.StatusBadRequest)
		return
	}

	var loggedIn *auth.PasskeyUser
	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		// The user handle is the account id.
		user, err := h.passkeyUser(string(userHandle))
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		loggedIn = user
		return user, nil
	}

	if _, _, err := h.wan.FinishPasskeyLogin(handler, *cer.session, r); err != nil {
		h.srv.limiter.RecordFailure(ip)
		slog.Warn("finishing passkey login", "ip", ip, "err", err)
		apiError(w, "Login failed", http.StatusUnauthorized)
		return
	}

	slog.Info("login success", "user", loggedIn.User().ID, "method", "passkey")
	h.srv.issueTokens(w, loggedIn.User(), http.StatusOK)
}
