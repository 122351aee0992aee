package reconcile

import (
	"context"
	"time"

	"github.com/evcraddock/rent-finder/internal/property"
)

// PropertyRemote is the API used by OwnedProperties.
type PropertyRemote interface {
	ListMyProperties(ctx context.Context) ([]*property.Property, error)
	CreateProperty(ctx context.Context, p *property.Property) (*property.Property, error)
	UpdateProperty(ctx context.Context, p *property.Property) (*property.Property, error)
	ArchiveProperty(ctx context.Context, id string) (*property.Property, error)
}

// OwnedProperties is a landlord's own listings.
type OwnedProperties struct {
	*Collection[property.Property]
	remote PropertyRemote
}

// NewOwnedProperties creates the hook.
func NewOwnedProperties(d Deps, remote PropertyRemote) *OwnedProperties {
	list := func(ctx context.Context) ([]property.Property, error) {
		ps, err := remote.ListMyProperties(ctx)
		return deref(ps), err
	}
	return &OwnedProperties{
		Collection: NewCollection(d, KeyOwnedProperties, func(p property.Property) string { return p.ID }, list),
		remote:     remote,
	}
}

// Create adds a listing.
func (h *OwnedProperties) Create(ctx context.Context, p property.Property) (property.Property, error) {
	const summary = "Listing created"
	if err := p.Validate(); err != nil {
		h.fail(summary, err)
		return property.Property{}, err
	}

	var out property.Property
	if !h.sess.IsLoggedIn() {
		now := time.Now().UTC()
		p.ID = h.newLocalID()
		p.OwnerID = ""
		if p.Status == "" {
			p.Status = property.StatusAvailable
		}
		p.CreatedAt, p.UpdatedAt = now, now
		out = p
	}

	err := h.mutate(ctx, summary,
		func(items []property.Property) ([]property.Property, error) {
			return append(items, out), nil
		},
		func(ctx context.Context) (property.Property, error) {
			created, err := h.remote.CreateProperty(ctx, &p)
			if err != nil {
				return property.Property{}, err
			}
			out = *created
			return out, nil
		},
		h.upsert,
	)
	return out, err
}

// Update replaces an existing listing.
func (h *OwnedProperties) Update(ctx context.Context, p property.Property) (property.Property, error) {
	const summary = "Listing updated"
	if err := p.Validate(); err != nil {
		h.fail(summary, err)
		return property.Property{}, err
	}
	if err := h.ensureLoaded(ctx); err != nil {
		return property.Property{}, err
	}
	existing, err := h.lookup("listing", p.ID)
	if err != nil {
		h.fail(summary, err)
		return property.Property{}, err
	}

	p.OwnerID = existing.OwnerID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	if p.Status == "" {
		p.Status = existing.Status
	}
	out := p

	err = h.mutate(ctx, summary,
		func(items []property.Property) ([]property.Property, error) {
			return h.replaceLocal(items, out)
		},
		func(ctx context.Context) (property.Property, error) {
			updated, err := h.remote.UpdateProperty(ctx, &p)
			if err != nil {
				return property.Property{}, err
			}
			out = *updated
			return out, nil
		},
		h.upsert,
	)
	return out, err
}

// Archive marks a listing archived. It stays in the list.
func (h *OwnedProperties) Archive(ctx context.Context, id string) (property.Property, error) {
	const summary = "Listing archived"
	if err := h.ensureLoaded(ctx); err != nil {
		return property.Property{}, err
	}
	existing, err := h.lookup("listing", id)
	if err != nil {
		h.fail(summary, err)
		return property.Property{}, err
	}

	out := existing
	out.Status = property.StatusArchived
	out.UpdatedAt = time.Now().UTC()

	err = h.mutate(ctx, summary,
		func(items []property.Property) ([]property.Property, error) {
			return h.replaceLocal(items, out)
		},
		func(ctx context.Context) (property.Property, error) {
			archived, err := h.remote.ArchiveProperty(ctx, id)
			if err != nil {
				return property.Property{}, err
			}
			out = *archived
			return out, nil
		},
		h.upsert,
	)
	return out, err
}
