package localstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/evcraddock/rent-finder/internal/application"
	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/inquiry"
	"github.com/evcraddock/rent-finder/internal/property"
	"github.com/evcraddock/rent-finder/internal/savedsearch"
	"github.com/google/go-cmp/cmp"
)

func TestGetMissing(t *testing.T) {
	s := openTest(t)

	var ids []string
	found, err := s.Get(context.Background(), "favorites", &ids)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Error("expected missing key")
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	beds := 2
	maxPrice := int64(200000)

	tests := []struct {
		key  string
		in   any
		into func() any
	}{
		{
			key:  "favorites",
			in:   []string{"p1", "p2"},
			into: func() any { return &[]string{} },
		},
		{
			key: "owned_properties",
			in: []property.Property{{
				ID: "p1", OwnerID: "u1", Title: "Loft", PriceCents: 185000,
				Address: property.Address{Street: "1 Elm", City: "Austin", State: "TX", Zip: "78701"},
				Bedrooms: 2, Bathrooms: 1.5, SquareFeet: 900, Images: []string{"b.jpg", "a.jpg"},
				Status: property.StatusPending, CreatedAt: now, UpdatedAt: now,
			}},
			into: func() any { return &[]property.Property{} },
		},
		{
			key: "applications",
			in: []application.Application{{
				ID: "a1", PropertyID: "p1", Step: 3, Status: application.StatusPending,
				Sections: application.Sections{
					PersonalInfo: application.Section{"name": "Robin", "pets": true},
					References:   application.Section{"landlord": "Ann"},
				},
				Documents: []string{"id.pdf"}, CreatedAt: now, UpdatedAt: now,
			}},
			into: func() any { return &[]application.Application{} },
		},
		{
			key: "saved_searches",
			in: []savedsearch.SavedSearch{{
				ID: "s1", Name: "Austin", CreatedAt: now, UpdatedAt: now,
				Filters: property.Filters{City: "Austin", MinBedrooms: &beds, MaxPriceCents: &maxPrice},
			}},
			into: func() any { return &[]savedsearch.SavedSearch{} },
		},
		{
			key: "contact_messages",
			in: []inquiry.Inquiry{{
				ID: "q1", PropertyID: "p1", AgentID: "u1", Name: "Robin", Email: "r@example.com",
				Message: "Hello", CreatedAt: now,
			}},
			into: func() any { return &[]inquiry.Inquiry{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := s.Put(ctx, tt.key, tt.in); err != nil {
				t.Fatalf("put: %v", err)
			}
			out := tt.into()
			found, err := s.Get(ctx, tt.key, out)
			if err != nil || !found {
				t.Fatalf("get: found=%v err=%v", found, err)
			}
			got := deref(out)
			if diff := cmp.Diff(tt.in, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// deref unwraps the pointers returned by into.
func deref(v any) any {
	switch p := v.(type) {
	case *[]string:
		return *p
	case *[]property.Property:
		return *p
	case *[]application.Application:
		return *p
	case *[]savedsearch.SavedSearch:
		return *p
	case *[]inquiry.Inquiry:
		return *p
	}
	return v
}

func TestPutReplacesWholeValue(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	if err := s.Put(ctx, "favorites", []string{"p1", "p2"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "favorites", []string{}); err != nil {
		t.Fatalf("put: %v", err)
	}

	var ids []string
	if _, err := s.Get(ctx, "favorites", &ids); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want empty", ids)
	}
}

func TestQuotaExceeded(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, WithQuota(64))

	if err := s.Put(ctx, "favorites", []string{"p1"}); err != nil {
		t.Fatalf("small put: %v", err)
	}

	err := s.Put(ctx, "favorites", []string{strings.Repeat("x", 100)})
	var pe *apperr.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded, got %v", err)
	}
	if pe.Key != "favorites" {
		t.Errorf("key = %q", pe.Key)
	}

	var ids []string
	if _, err := s.Get(ctx, "favorites", &ids); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(ids) != 1 || ids[0] != "p1" {
		t.Errorf("failed put must not change the stored value, got %v", ids)
	}
}

func TestQuotaCountsOtherKeys(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, WithQuota(80))

	if err := s.Put(ctx, "a", strings.Repeat("x", 50)); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if err := s.Put(ctx, "b", strings.Repeat("y", 50)); !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Errorf("expected quota error, got %v", err)
	}
	if err := s.Put(ctx, "a", strings.Repeat("x", 60)); err != nil {
		t.Errorf("rewriting a key should not count its old value: %v", err)
	}
}

func TestDeleteAndKeys(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	for _, k := range []string{"saved_searches", "favorites"} {
		if err := s.Put(ctx, k, []string{}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if diff := cmp.Diff([]string{"favorites", "saved_searches"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	if err := s.Delete(ctx, "favorites"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "favorites"); err != nil {
		t.Fatalf("deleting a missing key: %v", err)
	}
	keys, err = s.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("keys = %v", keys)
	}
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(ctx, "favorites", []string{"p1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()

	var ids []string
	found, err := s.Get(ctx, "favorites", &ids)
	if err != nil || !found || len(ids) != 1 {
		t.Errorf("found=%v ids=%v err=%v", found, ids, err)
	}
}

func openTest(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "local.db"), opts...)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
