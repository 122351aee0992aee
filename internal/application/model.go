// Package application provides rental applications: a renter fills in
// sections step by step, and the listing's owner approves or rejects.
package application

import (
	"time"

	"github.com/evcraddock/rent-finder/internal/apperr"
)

// Status is the owner's decision on an application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Section is an open-ended record of form answers.
type Section map[string]any

// Sections groups the parts of the application form.
type Sections struct {
	PersonalInfo  Section `json:"personal_info,omitempty"`
	RentalHistory Section `json:"rental_history,omitempty"`
	Employment    Section `json:"employment,omitempty"`
	References    Section `json:"references,omitempty"`
	Disclosures   Section `json:"disclosures,omitempty"`
}

// Merge overwrites the sections that are set in other.
func (s *Sections) Merge(other Sections) {
	if other.PersonalInfo != nil {
		s.PersonalInfo = other.PersonalInfo
	}
	if other.RentalHistory != nil {
		s.RentalHistory = other.RentalHistory
	}
	if other.Employment != nil {
		s.Employment = other.Employment
	}
	if other.References != nil {
		s.References = other.References
	}
	if other.Disclosures != nil {
		s.Disclosures = other.Disclosures
	}
}

// Application is one renter's application for one listing.
type Application struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	UserID     string `json:"user_id"`
	Step       int    `json:"step"`
	Status     Status `json:"status"`
	Sections
	Documents []string  `json:"documents"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdvanceTo moves the application to step. Steps never go backwards.
func (a *Application) AdvanceTo(step int) error {
	if step < 1 {
		return apperr.Invalid("step", apperr.KindRange, "step must be at least 1")
	}
	if step < a.Step {
		return apperr.Invalid("step", apperr.KindTransition,
			"application is at step %d and cannot go back to step %d", a.Step, step)
	}
	if a.Status.Terminal() {
		return apperr.Invalid("status", apperr.KindTransition, "application is already %s", a.Status)
	}
	a.Step = step
	return nil
}

// Transition applies an owner decision. Only pending applications can be
// decided, and only to approved or rejected.
func (a *Application) Transition(to Status) error {
	if to != StatusApproved && to != StatusRejected {
		return apperr.Invalid("status", apperr.KindTransition, "cannot set status to %q", to)
	}
	if a.Status != StatusPending {
		return apperr.Invalid("status", apperr.KindTransition, "application is already %s", a.Status)
	}
	a.Status = to
	return nil
}
