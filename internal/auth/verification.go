package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const verificationExpiry = 24 * time.Hour

// VerificationStore manages single-use email verification tokens.
type VerificationStore struct {
	db *sql.DB
}

// NewVerificationStore creates a verification token store.
func NewVerificationStore(db *sql.DB) *VerificationStore {
	return &VerificationStore{db: db}
}

// Create generates a new verification token for userID.
func (s *VerificationStore) Create(userID string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	if _, err := s.db.Exec(
		"INSERT INTO verification_tokens (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, time.Now().Add(verificationExpiry),
	); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return token, nil
}

// Consume checks a token and returns the associated user id. The token is
// marked as used and cannot be reused.
func (s *VerificationStore) Consume(token string) (string, error) {
	var userID string
	var used int
	var expiresAt time.Time

	err := s.db.QueryRow(
		"SELECT user_id, used, expires_at FROM verification_tokens WHERE token = ?", token,
	).Scan(&userID, &used, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("invalid token")
	}
	if err != nil {
		return "", fmt.Errorf("querying token: %w", err)
	}

	if used != 0 {
		return "", fmt.Errorf("token already used")
	}
	if time.Now().After(expiresAt) {
		return "", fmt.Errorf("token expired")
	}

	if _, err := s.db.Exec("UPDATE verification_tokens SET used = 1 WHERE token = ?", token); err != nil {
		return "", fmt.Errorf("marking token used: %w", err)
	}
	return userID, nil
}

// Cleanup removes expired tokens.
func (s *VerificationStore) Cleanup() error {
	if _, err := s.db.Exec("DELETE FROM verification_tokens WHERE expires_at < ?", time.Now()); err != nil {
		return fmt.Errorf("cleaning up tokens: %w", err)
	}
	return nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
