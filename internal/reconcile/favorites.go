package reconcile

import (
	"context"
	"slices"
	"sync"
)

// FavoriteRemote is the API used by Favorites.
type FavoriteRemote interface {
	ListFavorites(ctx context.Context) ([]string, error)
	AddFavorite(ctx context.Context, propertyID string) error
	RemoveFavorite(ctx context.Context, propertyID string) error
}

// Favorites is the set of listing ids the user has saved.
type Favorites struct {
	*Collection[string]
	remote FavoriteRemote
	locks  keyedLock
}

// NewFavorites creates the hook.
func NewFavorites(d Deps, remote FavoriteRemote) *Favorites {
	return &Favorites{
		Collection: NewCollection(d, KeyFavorites, func(id string) string { return id }, remote.ListFavorites),
		remote:     remote,
	}
}

// IDs returns the favorite listing ids.
func (f *Favorites) IDs() []string {
	return f.Items()
}

// Has reports whether id is a favorite in the last loaded set.
func (f *Favorites) Has(id string) bool {
	_, ok := f.Find(id)
	return ok
}

// Toggle adds or removes id and returns whether it is now a favorite.
// Toggles of the same id run one at a time: a second toggle waits for the
// first to settle and then reads membership again. Different ids do not
// wait on each other.
func (f *Favorites) Toggle(ctx context.Context, id string) (bool, error) {
	unlock, err := f.locks.lock(ctx, id)
	if err != nil {
		return false, err
	}
	defer unlock()

	if err := f.ensureLoaded(ctx); err != nil {
		return false, err
	}

	if f.Has(id) {
		err := f.mutate(ctx, "Removed from favorites",
			func(ids []string) ([]string, error) {
				return slices.DeleteFunc(ids, func(s string) bool { return s == id }), nil
			},
			func(ctx context.Context) (string, error) {
				return id, f.remote.RemoveFavorite(ctx, id)
			},
			f.without,
		)
		if err != nil {
			return true, err
		}
		return false, nil
	}

	err = f.mutate(ctx, "Added to favorites",
		func(ids []string) ([]string, error) {
			return append(ids, id), nil
		},
		func(ctx context.Context) (string, error) {
			return id, f.remote.AddFavorite(ctx, id)
		},
		f.upsert,
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

// keyedLock serializes work per key.
type keyedLock struct {
	mu       sync.Mutex
	inflight map[string]chan struct{}
}

func (k *keyedLock) lock(ctx context.Context, key string) (func(), error) {
	for {
		k.mu.Lock()
		if k.inflight == nil {
			k.inflight = make(map[string]chan struct{})
		}
		done, busy := k.inflight[key]
		if !busy {
			done = make(chan struct{})
			k.inflight[key] = done
			k.mu.Unlock()
			return func() {
				k.mu.Lock()
				delete(k.inflight, key)
				k.mu.Unlock()
				close(done)
			}, nil
		}
		k.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
