package inquiry

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository provides data access for inquiries.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an inquiry repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const columns = "id, property_id, agent_id, sender_id, name, email, phone, message, created_at"

func scan(row interface{ Scan(...interface{}) error }) (*Inquiry, error) {
	var q Inquiry
	err := row.Scan(&q.ID, &q.PropertyID, &q.AgentID, &q.SenderID, &q.Name, &q.Email, &q.Phone, &q.Message, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Add records a new inquiry. AgentID must already be resolved from the listing.
func (r *Repository) Add(q *Inquiry) (*Inquiry, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err := r.db.Exec(
		"INSERT INTO inquiries (id, property_id, agent_id, sender_id, name, email, phone, message) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		id, q.PropertyID, q.AgentID, q.SenderID, q.Name, q.Email, q.Phone, q.Message,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting inquiry: %w", err)
	}

	out, err := scan(r.db.QueryRow("SELECT "+columns+" FROM inquiries WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("reading back inquiry: %w", err)
	}
	return out, nil
}

// ListByAgent returns the inbox for agentID, newest first.
func (r *Repository) ListByAgent(agentID string) ([]*Inquiry, error) {
	return r.list("agent_id", agentID)
}

// ListBySender returns inquiries sent by senderID, newest first.
func (r *Repository) ListBySender(senderID string) ([]*Inquiry, error) {
	return r.list("sender_id", senderID)
}

func (r *Repository) list(column, value string) (inquiries []*Inquiry, err error) {
	rows, err := r.db.Query(
		fmt.Sprintf("SELECT %s FROM inquiries WHERE %s = ? ORDER BY created_at DESC, rowid DESC", columns, column),
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inquiries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	inquiries = []*Inquiry{}
	for rows.Next() {
		q, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inquiry: %w", err)
		}
		inquiries = append(inquiries, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inquiries: %w", err)
	}
	return inquiries, nil
}
