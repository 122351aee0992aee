package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// DefaultRefreshTTL is how long a refresh token is valid.
const DefaultRefreshTTL = 30 * 24 * time.Hour

const refreshTokenBytes = 32 // 256-bit tokens

// ErrInvalidRefreshToken is returned for an unknown, revoked or expired token.
var ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

// RefreshStore manages opaque refresh tokens. Only their SHA-256 hash is
// stored; the raw token is shown to the client once.
type RefreshStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewRefreshStore creates a refresh token store. A zero ttl means
// DefaultRefreshTTL.
func NewRefreshStore(db *sql.DB, ttl time.Duration) *RefreshStore {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	return &RefreshStore{db: db, ttl: ttl}
}

// Create issues a new refresh token for userID.
func (s *RefreshStore) Create(userID string) (string, error) {
	raw, err := generateRefreshToken()
	if err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}

	if _, err := s.db.Exec(
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)",
		userID, hashToken(raw), time.Now().Add(s.ttl),
	); err != nil {
		return "", fmt.Errorf("storing refresh token: %w", err)
	}
	return raw, nil
}

// Rotate revokes raw and issues a replacement for the same user. A token
// can be rotated once.
func (s *RefreshStore) Rotate(raw string) (userID, next string, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	var revoked int
	var expiresAt time.Time
	err = tx.QueryRow(
		"SELECT id, user_id, revoked, expires_at FROM refresh_tokens WHERE token_hash = ?", hashToken(raw),
	).Scan(&id, &userID, &revoked, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrInvalidRefreshToken
	}
	if err != nil {
		return "", "", fmt.Errorf("querying refresh token: %w", err)
	}
	if revoked != 0 || time.Now().After(expiresAt) {
		return "", "", ErrInvalidRefreshToken
	}

	if _, err := tx.Exec("UPDATE refresh_tokens SET revoked = 1 WHERE id = ?", id); err != nil {
		return "", "", fmt.Errorf("revoking refresh token: %w", err)
	}

	next, err = generateRefreshToken()
	if err != nil {
		return "", "", fmt.Errorf("generating refresh token: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)",
		userID, hashToken(next), time.Now().Add(s.ttl),
	); err != nil {
		return "", "", fmt.Errorf("storing refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", "", fmt.Errorf("committing rotation: %w", err)
	}
	return userID, next, nil
}

// Revoke invalidates raw. Revoking an unknown token is not an error.
func (s *RefreshStore) Revoke(raw string) error {
	if _, err := s.db.Exec("UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?", hashToken(raw)); err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	return nil
}

// Cleanup removes expired and revoked tokens.
func (s *RefreshStore) Cleanup() error {
	if _, err := s.db.Exec("DELETE FROM refresh_tokens WHERE revoked = 1 OR expires_at < ?", time.Now()); err != nil {
		return fmt.Errorf("cleaning up refresh tokens: %w", err)
	}
	return nil
}

func generateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "rf_" + hex.EncodeToString(b), nil
}

func hashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
