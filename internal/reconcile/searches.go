package reconcile

import (
	"context"
	"time"

	"github.com/evcraddock/rent-finder/internal/property"
	"github.com/evcraddock/rent-finder/internal/savedsearch"
)

// SearchRemote is the API used by SavedSearches.
type SearchRemote interface {
	ListSavedSearches(ctx context.Context) ([]*savedsearch.SavedSearch, error)
	CreateSavedSearch(ctx context.Context, s *savedsearch.SavedSearch) (*savedsearch.SavedSearch, error)
	UpdateSavedSearch(ctx context.Context, s *savedsearch.SavedSearch) (*savedsearch.SavedSearch, error)
	DeleteSavedSearch(ctx context.Context, id string) error
}

// SavedSearches is the user's named searches.
type SavedSearches struct {
	*Collection[savedsearch.SavedSearch]
	remote SearchRemote
}

// NewSavedSearches creates the hook.
func NewSavedSearches(d Deps, remote SearchRemote) *SavedSearches {
	list := func(ctx context.Context) ([]savedsearch.SavedSearch, error) {
		ss, err := remote.ListSavedSearches(ctx)
		return deref(ss), err
	}
	return &SavedSearches{
		Collection: NewCollection(d, KeySavedSearches, func(s savedsearch.SavedSearch) string { return s.ID }, list),
		remote:     remote,
	}
}

// Create saves a search.
func (h *SavedSearches) Create(ctx context.Context, name string, filters property.Filters) (savedsearch.SavedSearch, error) {
	const summary = "Search saved"
	in := savedsearch.SavedSearch{Name: name, Filters: filters}
	if err := in.Validate(); err != nil {
		h.fail(summary, err)
		return savedsearch.SavedSearch{}, err
	}

	out := in
	if !h.sess.IsLoggedIn() {
		now := time.Now().UTC()
		out.ID = h.newLocalID()
		out.CreatedAt, out.UpdatedAt = now, now
	}

	err := h.mutate(ctx, summary,
		func(items []savedsearch.SavedSearch) ([]savedsearch.SavedSearch, error) {
			return append(items, out), nil
		},
		func(ctx context.Context) (savedsearch.SavedSearch, error) {
			created, err := h.remote.CreateSavedSearch(ctx, &in)
			if err != nil {
				return savedsearch.SavedSearch{}, err
			}
			out = *created
			return out, nil
		},
		h.upsert,
	)
	return out, err
}

// Update renames a search and replaces its filters.
func (h *SavedSearches) Update(ctx context.Context, s savedsearch.SavedSearch) (savedsearch.SavedSearch, error) {
	const summary = "Search updated"
	if err := s.Validate(); err != nil {
		h.fail(summary, err)
		return savedsearch.SavedSearch{}, err
	}
	if err := h.ensureLoaded(ctx); err != nil {
		return savedsearch.SavedSearch{}, err
	}
	existing, err := h.lookup("saved search", s.ID)
	if err != nil {
		h.fail(summary, err)
		return savedsearch.SavedSearch{}, err
	}

	out := existing
	out.Name = s.Name
	out.Filters = s.Filters
	out.UpdatedAt = time.Now().UTC()

	err = h.mutate(ctx, summary,
		func(items []savedsearch.SavedSearch) ([]savedsearch.SavedSearch, error) {
			return h.replaceLocal(items, out)
		},
		func(ctx context.Context) (savedsearch.SavedSearch, error) {
			updated, err := h.remote.UpdateSavedSearch(ctx, &out)
			if err != nil {
				return savedsearch.SavedSearch{}, err
			}
			out = *updated
			return out, nil
		},
		h.upsert,
	)
	return out, err
}

// Delete removes a search.
func (h *SavedSearches) Delete(ctx context.Context, id string) error {
	const summary = "Search deleted"
	if err := h.ensureLoaded(ctx); err != nil {
		return err
	}
	existing, err := h.lookup("saved search", id)
	if err != nil {
		h.fail(summary, err)
		return err
	}

	return h.mutate(ctx, summary,
		func(items []savedsearch.SavedSearch) ([]savedsearch.SavedSearch, error) {
			return h.without(items, id), nil
		},
		func(ctx context.Context) (savedsearch.SavedSearch, error) {
			return existing, h.remote.DeleteSavedSearch(ctx, id)
		},
		func(items []savedsearch.SavedSearch, _ savedsearch.SavedSearch) []savedsearch.SavedSearch {
			return h.without(items, id)
		},
	)
}
