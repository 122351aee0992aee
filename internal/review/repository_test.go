package review

import (
	"path/filepath"
	"testing"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/db"
)

func TestAddAndList(t *testing.T) {
	repo := testRepo(t)

	for i, text := range []string{"Great light", "Noisy street"} {
		_, err := repo.Add(&Review{PropertyID: "p-1", AuthorID: "u-1", AuthorName: "Sam", Rating: 4 - i, Text: text})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	reviews, err := repo.ListByPropertyID("p-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(reviews))
	}
	if reviews[0].Text != "Noisy street" {
		t.Errorf("expected newest first, got %q", reviews[0].Text)
	}

	empty, err := repo.ListByPropertyID("p-2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("got %d reviews, want 0", len(empty))
	}
}

func TestAddRejectsRating(t *testing.T) {
	repo := testRepo(t)

	for _, rating := range []int{0, 6} {
		_, err := repo.Add(&Review{PropertyID: "p-1", AuthorID: "u-1", Rating: rating})
		if !apperr.IsValidation(err) {
			t.Errorf("rating %d: expected validation error, got %v", rating, err)
		}
	}
}

func testRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	for _, s := range []string{
		`INSERT INTO users (id, email, password_hash) VALUES ('u-1', 'u1@example.com', 'x')`,
		`INSERT INTO properties (id, owner_id, title, price_cents) VALUES ('p-1', 'u-1', 'One', 1)`,
		`INSERT INTO properties (id, owner_id, title, price_cents) VALUES ('p-2', 'u-1', 'Two', 1)`,
	} {
		if _, err := d.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return NewRepository(d)
}
