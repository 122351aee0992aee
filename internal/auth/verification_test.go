package auth

import (
	"testing"
	"time"
)

func testVerificationStore(t *testing.T) *VerificationStore {
	t.Helper()
	d := testDB(t)
	if _, err := d.Exec(`INSERT INTO users (id, email, password_hash) VALUES ('u-1', 'u@example.com', 'x')`); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return NewVerificationStore(d)
}

func TestVerificationCreateAndConsume(t *testing.T) {
	store := testVerificationStore(t)

	token, err := store.Create("u-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	userID, err := store.Consume(token)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if userID != "u-1" {
		t.Errorf("user id = %q, want u-1", userID)
	}

	if _, err := store.Consume(token); err == nil {
		t.Fatal("expected error on second use")
	}
}

func TestVerificationInvalid(t *testing.T) {
	store := testVerificationStore(t)

	if _, err := store.Consume("nonexistent"); err == nil {
		t.Fatal("expected error for invalid token")
	}
}

func TestVerificationExpired(t *testing.T) {
	store := testVerificationStore(t)

	if _, err := store.db.Exec(
		"INSERT INTO verification_tokens (token, user_id, expires_at) VALUES (?, ?, ?)",
		"expired-token", "u-1", time.Now().Add(-time.Hour),
	); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := store.Consume("expired-token"); err == nil {
		t.Fatal("expected error for expired token")
	}
	if err := store.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM verification_tokens").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected expired token removed, got %d", count)
	}
}
