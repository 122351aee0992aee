// Package inquiry provides contact messages sent to a listing's agent.
package inquiry

import (
	"time"

	"github.com/evcraddock/rent-finder/internal/validate"
)

// Inquiry is a message from a prospective renter to the agent for a
// listing. Inquiries have no workflow; they are created and read.
type Inquiry struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	AgentID    string    `json:"agent_id"`
	SenderID   string    `json:"sender_id,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the fields a renter must fill in.
func (q *Inquiry) Validate() error {
	if err := validate.Required("property_id", q.PropertyID); err != nil {
		return err
	}
	if err := validate.Required("name", q.Name); err != nil {
		return err
	}
	if err := validate.Email(q.Email); err != nil {
		return err
	}
	return validate.Required("message", q.Message)
}
