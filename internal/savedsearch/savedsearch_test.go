package savedsearch

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/db"
	"github.com/evcraddock/rent-finder/internal/property"
	"github.com/google/go-cmp/cmp"
)

func TestCreateListUpdateDelete(t *testing.T) {
	repo := testRepo(t)

	beds := 2
	saved, err := repo.Create(&SavedSearch{
		UserID:  "u-1",
		Name:    "Austin 2br",
		Filters: property.Filters{City: "Austin", MinBedrooms: &beds},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if diff := cmp.Diff(property.Filters{City: "Austin", MinBedrooms: &beds}, saved.Filters); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}

	saved.Name = "Austin 2br+"
	saved.Filters.City = "Round Rock"
	updated, err := repo.Update(saved)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Austin 2br+" || updated.Filters.City != "Round Rock" {
		t.Errorf("unexpected search: %+v", updated)
	}

	list, err := repo.List("u-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d searches, want 1", len(list))
	}

	if err := repo.Delete("u-1", saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete("u-1", saved.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestOwnerScoping(t *testing.T) {
	repo := testRepo(t)

	saved, err := repo.Create(&SavedSearch{UserID: "u-1", Name: "Mine"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.Get("u-2", saved.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("other user should not see search, got %v", err)
	}
	_, err = repo.Update(&SavedSearch{ID: saved.ID, UserID: "u-2", Name: "Stolen"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("other user should not update search, got %v", err)
	}
	if err := repo.Delete("u-2", saved.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("other user should not delete search, got %v", err)
	}
}

func TestCreateRequiresName(t *testing.T) {
	repo := testRepo(t)

	if _, err := repo.Create(&SavedSearch{UserID: "u-1"}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func testRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	for _, id := range []string{"u-1", "u-2"} {
		if _, err := d.Exec(`INSERT INTO users (id, email, password_hash) VALUES (?, ?, 'x')`, id, id+"@example.com"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return NewRepository(d)
}
