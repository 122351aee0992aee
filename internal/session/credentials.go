package session

import (
	"sync"

	"github.com/evcraddock/rent-finder/internal/auth"
)

// Credential is what survives a restart. The identity fields are a snapshot
// of the user taken when the tokens were issued, used when the server
// cannot be reached at startup.
type Credential struct {
	Token        string    `yaml:"token" json:"token"`
	RefreshToken string    `yaml:"refresh_token" json:"refresh_token"`
	UserID       string    `yaml:"user_id,omitempty" json:"user_id,omitempty"`
	Email        string    `yaml:"email,omitempty" json:"email,omitempty"`
	Name         string    `yaml:"name,omitempty" json:"name,omitempty"`
	Role         auth.Role `yaml:"role,omitempty" json:"role,omitempty"`
	Verified     bool      `yaml:"verified,omitempty" json:"verified,omitempty"`
}

func credentialFor(u *auth.User, token, refresh string) Credential {
	return Credential{
		Token:        token,
		RefreshToken: refresh,
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		Verified:     u.Verified,
	}
}

// user returns the snapshot, or nil if the credential predates it.
func (c Credential) user() *auth.User {
	if c.UserID == "" {
		return nil
	}
	return &auth.User{ID: c.UserID, Email: c.Email, Name: c.Name, Role: c.Role, Verified: c.Verified}
}

// CredentialStore persists the credential between runs. LoadCredential
// returns nil when nothing is stored.
type CredentialStore interface {
	LoadCredential() (*Credential, error)
	SaveCredential(Credential) error
	ClearCredential() error
}

// MemoryCredentials keeps the credential in memory.
type MemoryCredentials struct {
	mu   sync.Mutex
	cred *Credential
}

// NewMemoryCredentials returns a store holding cred, which may be nil.
func NewMemoryCredentials(cred *Credential) *MemoryCredentials {
	return &MemoryCredentials{cred: cred}
}

// LoadCredential implements CredentialStore.
func (m *MemoryCredentials) LoadCredential() (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return nil, nil
	}
	c := *m.cred
	return &c, nil
}

// SaveCredential implements CredentialStore.
func (m *MemoryCredentials) SaveCredential(c Credential) error {
	m.mu.Lock()
	m.cred = &c
	m.mu.Unlock()
	return nil
}

// ClearCredential implements CredentialStore.
func (m *MemoryCredentials) ClearCredential() error {
	m.mu.Lock()
	m.cred = nil
	m.mu.Unlock()
	return nil
}
