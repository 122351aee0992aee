// Package reconcile keeps in-memory lists of user data in step with either
// the local store (anonymous use) or the API (signed in).
//
// Each list is loaded from exactly one source. A signed-in user's list comes
// from the API; if that call fails, the locally stored list is served instead
// and Err reports why. Local and remote copies are never merged, and an
// identity change discards the list so it is reloaded from the right source.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/notify"
	"github.com/evcraddock/rent-finder/internal/session"
)

// Local store keys.
const (
	KeyFavorites         = "favorites"
	KeyOwnedProperties   = "owned_properties"
	KeyOwnerApplications = "owner_applications"
	KeySavedSearches     = "saved_searches"
	KeyApplications      = "applications"
	KeyContactMessages   = "contact_messages"
)

// State describes where the items came from.
type State int

const (
	Uninitialized State = iota
	Loading
	ReadyLocal
	ReadyRemote
	ReadyFallback
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case ReadyLocal:
		return "local"
	case ReadyRemote:
		return "remote"
	case ReadyFallback:
		return "fallback"
	}
	return "uninitialized"
}

// Store is the local key/value persistence. *localstore.Store implements it.
type Store interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Put(ctx context.Context, key string, v any) error
}

// Identity is the part of the session a collection depends on.
// *session.Context implements it.
type Identity interface {
	Wait(ctx context.Context) error
	IsLoggedIn() bool
	Subscribe(fn func(session.Session)) (cancel func())
}

// Deps are shared by every hook.
type Deps struct {
	Session  Identity
	Store    Store
	Notifier notify.Notifier
}

// Collection is a list of T reconciled against one local key and one
// remote list call.
type Collection[T any] struct {
	key      string
	id       func(T) string
	list     func(ctx context.Context) ([]T, error)
	sess     Identity
	store    Store
	notifier notify.Notifier

	mu    sync.Mutex
	state State
	items []T
	err   error
	gen   uint64
	// loaded is closed when the load in flight settles.
	loaded chan struct{}

	// localMu serializes read-modify-write of the local key.
	localMu sync.Mutex

	unsubscribe func()
}

// NewCollection creates a collection and subscribes it to identity changes.
func NewCollection[T any](d Deps, key string, id func(T) string, list func(ctx context.Context) ([]T, error)) *Collection[T] {
	n := d.Notifier
	if n == nil {
		n = notify.Nop
	}
	c := &Collection[T]{
		key:      key,
		id:       id,
		list:     list,
		sess:     d.Session,
		store:    d.Store,
		notifier: n,
	}
	c.unsubscribe = d.Session.Subscribe(func(session.Session) { c.reset() })
	return c
}

// Close stops listening for identity changes.
func (c *Collection[T]) Close() {
	c.unsubscribe()
}

func (c *Collection[T]) reset() {
	c.mu.Lock()
	c.gen++
	c.state = Uninitialized
	c.items = nil
	c.err = nil
	c.mu.Unlock()
}

// Load fills the collection. It waits for the session to finish restoring.
// Anonymous users read the local store. Signed-in users fetch from the API
// once; on failure the local list is served and Err is set. A response that
// arrives after the identity changed is dropped.
func (c *Collection[T]) Load(ctx context.Context) error {
	if err := c.sess.Wait(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)

	c.mu.Lock()
	gen := c.gen
	c.state = Loading
	c.loaded = done
	c.mu.Unlock()

	if !c.sess.IsLoggedIn() {
		items, err := c.readLocal(ctx)
		c.settle(gen, ReadyLocal, items, err)
		return err
	}

	items, err := c.list(ctx)
	if err == nil {
		c.settle(gen, ReadyRemote, items, nil)
		return nil
	}

	slog.Warn("remote load failed, serving local data", "key", c.key, "error", err)
	local, lerr := c.readLocal(ctx)
	c.settle(gen, ReadyFallback, local, errors.Join(err, lerr))
	return nil
}

func (c *Collection[T]) settle(gen uint64, state State, items []T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.state = state
	c.items = items
	c.err = err
}

func (c *Collection[T]) readLocal(ctx context.Context) ([]T, error) {
	var items []T
	if _, err := c.store.Get(ctx, c.key, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ensureLoaded loads an uninitialized collection, or waits for a load
// already in flight, so a mutation never starts from an empty list.
func (c *Collection[T]) ensureLoaded(ctx context.Context) error {
	for {
		c.mu.Lock()
		state, done := c.state, c.loaded
		c.mu.Unlock()

		switch state {
		case Uninitialized:
			return c.Load(ctx)
		case Loading:
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			return nil
		}
	}
}

// State returns the current state.
func (c *Collection[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns why the last remote load fell back to local data.
func (c *Collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Items returns a copy of the list.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Find returns the item with the given id.
func (c *Collection[T]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if c.id(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// newLocalID returns a UUID that no current item uses.
func (c *Collection[T]) newLocalID() string {
	for {
		id := uuid.NewString()
		if _, taken := c.Find(id); !taken {
			return id
		}
	}
}

// LocalMutation applies fn to the list in memory, then writes the whole list
// to the local store in one Put. If the write fails the in-memory list is
// restored and a *apperr.PersistenceError is returned.
func (c *Collection[T]) LocalMutation(ctx context.Context, summary string, fn func([]T) ([]T, error)) error {
	c.localMu.Lock()
	defer c.localMu.Unlock()

	c.mu.Lock()
	gen := c.gen
	prev := c.items
	next, err := fn(slices.Clone(prev))
	if err != nil {
		c.mu.Unlock()
		c.fail(summary, err)
		return err
	}
	c.items = next
	c.mu.Unlock()

	if err := c.store.Put(ctx, c.key, next); err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.items = prev
		}
		c.mu.Unlock()

		var pe *apperr.PersistenceError
		if !errors.As(err, &pe) {
			err = &apperr.PersistenceError{Key: c.key, Err: err}
		}
		c.fail(summary, err)
		return err
	}

	c.notifier.Notify(notify.Event{Kind: notify.Success, Summary: summary})
	return nil
}

// RemoteMutation performs the remote write first. Only on success is apply
// used to update the affected item in memory.
func (c *Collection[T]) RemoteMutation(ctx context.Context, summary string, call func(ctx context.Context) (T, error), apply func([]T, T) []T) error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	got, err := call(ctx)
	if err != nil {
		c.fail(summary, err)
		return err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.items = apply(c.items, got)
	}
	c.mu.Unlock()

	c.notifier.Notify(notify.Event{Kind: notify.Success, Summary: summary})
	return nil
}

func (c *Collection[T]) fail(summary string, err error) {
	c.notifier.Notify(notify.Event{Kind: notify.Failure, Summary: summary, Err: err})
}

// mutate picks the local or remote path from the current identity.
func (c *Collection[T]) mutate(ctx context.Context, summary string,
	local func([]T) ([]T, error),
	remote func(ctx context.Context) (T, error),
	apply func([]T, T) []T,
) error {
	if err := c.ensureLoaded(ctx); err != nil {
		c.fail(summary, err)
		return err
	}
	if c.sess.IsLoggedIn() {
		return c.RemoteMutation(ctx, summary, remote, apply)
	}
	return c.LocalMutation(ctx, summary, local)
}

// upsert replaces the item with the same id, or appends it.
func (c *Collection[T]) upsert(items []T, it T) []T {
	id := c.id(it)
	for i := range items {
		if c.id(items[i]) == id {
			out := slices.Clone(items)
			out[i] = it
			return out
		}
	}
	return append(slices.Clone(items), it)
}

// without removes the item with the given id.
func (c *Collection[T]) without(items []T, id string) []T {
	return slices.DeleteFunc(slices.Clone(items), func(it T) bool { return c.id(it) == id })
}

// replaceLocal replaces an existing item, failing with apperr.ErrNotFound.
func (c *Collection[T]) replaceLocal(items []T, it T) ([]T, error) {
	id := c.id(it)
	for i := range items {
		if c.id(items[i]) == id {
			items[i] = it
			return items, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// lookup returns the item or an error wrapping apperr.ErrNotFound.
func (c *Collection[T]) lookup(what, id string) (T, error) {
	it, ok := c.Find(id)
	if !ok {
		return it, &notFoundError{what: what, id: id}
	}
	return it, nil
}

type notFoundError struct {
	what, id string
}

func (e *notFoundError) Error() string { return e.what + " " + e.id + " not found" }

func (e *notFoundError) Unwrap() error { return apperr.ErrNotFound }

func deref[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, p := range in {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
