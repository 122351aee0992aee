package reconcile

import (
	"context"
	"time"

	"github.com/evcraddock/rent-finder/internal/application"
	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/client"
	"github.com/evcraddock/rent-finder/internal/validate"
)

// ApplicationRemote is the API used by Applications.
type ApplicationRemote interface {
	ListApplications(ctx context.Context) ([]*application.Application, error)
	CreateApplication(ctx context.Context, a *application.Application) (*application.Application, error)
	UpdateApplication(ctx context.Context, id string, u client.ApplicationUpdate) (*application.Application, error)
	WithdrawApplication(ctx context.Context, id string) error
}

// Applications is a renter's own applications.
type Applications struct {
	*Collection[application.Application]
	remote ApplicationRemote
}

func applicationID(a application.Application) string { return a.ID }

// NewApplications creates the hook.
func NewApplications(d Deps, remote ApplicationRemote) *Applications {
	list := func(ctx context.Context) ([]application.Application, error) {
		apps, err := remote.ListApplications(ctx)
		return deref(apps), err
	}
	return &Applications{
		Collection: NewCollection(d, KeyApplications, applicationID, list),
		remote:     remote,
	}
}

// pendingFor returns the pending application for a listing, if any.
func (h *Applications) pendingFor(propertyID string) (application.Application, bool) {
	for _, a := range h.Items() {
		if a.PropertyID == propertyID && a.Status == application.StatusPending {
			return a, true
		}
	}
	return application.Application{}, false
}

// Start begins an application at step 1. If one is already pending for the
// listing, that one is returned unchanged.
func (h *Applications) Start(ctx context.Context, propertyID string, sections application.Sections) (application.Application, error) {
	const summary = "Application started"
	if err := validate.Required("property_id", propertyID); err != nil {
		h.fail(summary, err)
		return application.Application{}, err
	}
	if err := h.ensureLoaded(ctx); err != nil {
		return application.Application{}, err
	}
	if existing, ok := h.pendingFor(propertyID); ok {
		return existing, nil
	}

	var out application.Application
	if !h.sess.IsLoggedIn() {
		now := time.Now().UTC()
		out = application.Application{
			ID:         h.newLocalID(),
			PropertyID: propertyID,
			Step:       1,
			Status:     application.StatusPending,
			Sections:   sections,
			Documents:  []string{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	err := h.mutate(ctx, summary,
		func(items []application.Application) ([]application.Application, error) {
			return append(items, out), nil
		},
		func(ctx context.Context) (application.Application, error) {
			created, err := h.remote.CreateApplication(ctx, &application.Application{PropertyID: propertyID, Sections: sections})
			if err != nil {
				return application.Application{}, err
			}
			out = *created
			return out, nil
		},
		h.upsert,
	)
	return out, err
}

// Advance moves application id forward to step, merging in sections and,
// when non-nil, replacing the documents. The id never changes.
func (h *Applications) Advance(ctx context.Context, id string, step int, sections application.Sections, documents []string) (application.Application, error) {
	const summary = "Application saved"
	if err := h.ensureLoaded(ctx); err != nil {
		return application.Application{}, err
	}
	existing, err := h.lookup("application", id)
	if err != nil {
		h.fail(summary, err)
		return application.Application{}, err
	}

	out := existing
	if err := out.AdvanceTo(step); err != nil {
		h.fail(summary, err)
		return application.Application{}, err
	}
	out.Merge(sections)
	if documents != nil {
		out.Documents = documents
	}
	out.UpdatedAt = time.Now().UTC()

	err = h.mutate(ctx, summary,
		func(items []application.Application) ([]application.Application, error) {
			return h.replaceLocal(items, out)
		},
		func(ctx context.Context) (application.Application, error) {
			updated, err := h.remote.UpdateApplication(ctx, id, client.ApplicationUpdate{Step: step, Sections: sections, Documents: documents})
			if err != nil {
				return application.Application{}, err
			}
			out = *updated
			return out, nil
		},
		h.upsert,
	)
	return out, err
}

// Withdraw deletes a pending application.
func (h *Applications) Withdraw(ctx context.Context, id string) error {
	const summary = "Application withdrawn"
	if err := h.ensureLoaded(ctx); err != nil {
		return err
	}
	existing, err := h.lookup("application", id)
	if err != nil {
		h.fail(summary, err)
		return err
	}
	if existing.Status.Terminal() {
		err := invalidTransition("application is already %s", existing.Status)
		h.fail(summary, err)
		return err
	}

	return h.mutate(ctx, summary,
		func(items []application.Application) ([]application.Application, error) {
			return h.without(items, id), nil
		},
		func(ctx context.Context) (application.Application, error) {
			return existing, h.remote.WithdrawApplication(ctx, id)
		},
		func(items []application.Application, _ application.Application) []application.Application {
			return h.without(items, id)
		},
	)
}

// OwnerApplicationRemote is the API used by OwnerApplications.
type OwnerApplicationRemote interface {
	ListOwnerApplications(ctx context.Context) ([]*application.Application, error)
	SetApplicationStatus(ctx context.Context, id string, status application.Status) (*application.Application, error)
}

// OwnerApplications is the applications received on a landlord's listings.
type OwnerApplications struct {
	*Collection[application.Application]
	remote OwnerApplicationRemote
}

// NewOwnerApplications creates the hook.
func NewOwnerApplications(d Deps, remote OwnerApplicationRemote) *OwnerApplications {
	list := func(ctx context.Context) ([]application.Application, error) {
		apps, err := remote.ListOwnerApplications(ctx)
		return deref(apps), err
	}
	return &OwnerApplications{
		Collection: NewCollection(d, KeyOwnerApplications, applicationID, list),
		remote:     remote,
	}
}

// Decide approves or rejects a pending application. Decided applications
// cannot change again.
func (h *OwnerApplications) Decide(ctx context.Context, id string, status application.Status) (application.Application, error) {
	summary := "Application " + string(status)
	if err := h.ensureLoaded(ctx); err != nil {
		return application.Application{}, err
	}
	existing, err := h.lookup("application", id)
	if err != nil {
		h.fail(summary, err)
		return application.Application{}, err
	}

	out := existing
	if err := out.Transition(status); err != nil {
		h.fail(summary, err)
		return application.Application{}, err
	}
	out.UpdatedAt = time.Now().UTC()

	err = h.mutate(ctx, summary,
		func(items []application.Application) ([]application.Application, error) {
			return h.replaceLocal(items, out)
		},
		func(ctx context.Context) (application.Application, error) {
			updated, err := h.remote.SetApplicationStatus(ctx, id, status)
			if err != nil {
				return application.Application{}, err
			}
			out = *updated
			return out, nil
		},
		h.upsert,
	)
	return out, err
}

func invalidTransition(format string, args ...any) error {
	return apperr.Invalid("status", apperr.KindTransition, format, args...)
}
