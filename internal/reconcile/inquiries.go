package reconcile

import (
	"context"
	"time"

	"github.com/evcraddock/rent-finder/internal/inquiry"
)

// InquiryRemote is the API used by Inquiries.
type InquiryRemote interface {
	ListSentInquiries(ctx context.Context) ([]*inquiry.Inquiry, error)
	CreateInquiry(ctx context.Context, q *inquiry.Inquiry) (*inquiry.Inquiry, error)
}

// Inquiries is the contact messages the user has sent. They can only be
// created.
type Inquiries struct {
	*Collection[inquiry.Inquiry]
	remote InquiryRemote
}

// NewInquiries creates the hook.
func NewInquiries(d Deps, remote InquiryRemote) *Inquiries {
	list := func(ctx context.Context) ([]inquiry.Inquiry, error) {
		qs, err := remote.ListSentInquiries(ctx)
		return deref(qs), err
	}
	return &Inquiries{
		Collection: NewCollection(d, KeyContactMessages, func(q inquiry.Inquiry) string { return q.ID }, list),
		remote:     remote,
	}
}

// Send delivers a message to a listing's agent. Anonymous messages are kept
// in the local store.
func (h *Inquiries) Send(ctx context.Context, q inquiry.Inquiry) (inquiry.Inquiry, error) {
	const summary = "Message sent"
	if err := q.Validate(); err != nil {
		h.fail(summary, err)
		return inquiry.Inquiry{}, err
	}

	out := q
	if !h.sess.IsLoggedIn() {
		out.ID = h.newLocalID()
		out.CreatedAt = time.Now().UTC()
	}

	err := h.mutate(ctx, summary,
		func(items []inquiry.Inquiry) ([]inquiry.Inquiry, error) {
			return append(items, out), nil
		},
		func(ctx context.Context) (inquiry.Inquiry, error) {
			created, err := h.remote.CreateInquiry(ctx, &q)
			if err != nil {
				return inquiry.Inquiry{}, err
			}
			out = *created
			return out, nil
		},
		h.upsert,
	)
	return out, err
}
