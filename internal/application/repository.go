package application

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/validate"
	"github.com/google/uuid"
)

// Repository provides data access for applications.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an application repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `a.id, a.property_id, a.user_id, a.step, a.status,
	a.personal_info, a.rental_history, a.employment, a.references_json, a.disclosures,
	a.documents_json, a.created_at, a.updated_at`

func scan(row interface{ Scan(...interface{}) error }) (*Application, error) {
	var a Application
	var status string
	var blobs [6]string
	err := row.Scan(&a.ID, &a.PropertyID, &a.UserID, &a.Step, &status,
		&blobs[0], &blobs[1], &blobs[2], &blobs[3], &blobs[4], &blobs[5],
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)

	targets := []any{&a.PersonalInfo, &a.RentalHistory, &a.Employment, &a.References, &a.Disclosures, &a.Documents}
	for i, b := range blobs {
		if err := json.Unmarshal([]byte(b), targets[i]); err != nil {
			return nil, fmt.Errorf("decoding application column %d: %w", i, err)
		}
	}
	if a.Documents == nil {
		a.Documents = []string{}
	}
	return &a, nil
}

func encode(a *Application) ([]any, error) {
	docs := a.Documents
	if docs == nil {
		docs = []string{}
	}
	out := make([]any, 0, 6)
	for _, sec := range []Section{a.PersonalInfo, a.RentalHistory, a.Employment, a.References, a.Disclosures} {
		if sec == nil {
			sec = Section{}
		}
		b, err := json.Marshal(sec)
		if err != nil {
			return nil, fmt.Errorf("encoding section: %w", err)
		}
		out = append(out, string(b))
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encoding documents: %w", err)
	}
	return append(out, string(b)), nil
}

// Create starts an application at step 1 with status pending. If the user
// already has a pending application for the listing, that one is returned
// instead of creating a second.
func (r *Repository) Create(a *Application) (*Application, error) {
	if err := validate.Required("property_id", a.PropertyID); err != nil {
		return nil, err
	}

	existing, err := r.scanOne(
		"SELECT "+selectColumns+" FROM applications a WHERE a.property_id = ? AND a.user_id = ? AND a.status = 'pending'",
		a.PropertyID, a.UserID,
	)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	step := a.Step
	if step < 1 {
		step = 1
	}
	blobs, err := encode(a)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	args := append([]any{id, a.PropertyID, a.UserID, step}, blobs...)
	_, err = r.db.Exec(`INSERT INTO applications
		(id, property_id, user_id, step, status, personal_info, rental_history, employment, references_json, disclosures, documents_json)
		VALUES (?, ?, ?, ?, 'pending', ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return nil, fmt.Errorf("inserting application: %w", err)
	}
	return r.GetByID(id)
}

// GetByID returns an application.
func (r *Repository) GetByID(id string) (*Application, error) {
	return r.scanOne("SELECT "+selectColumns+" FROM applications a WHERE a.id = ?", id)
}

func (r *Repository) scanOne(query string, args ...any) (*Application, error) {
	a, err := scan(r.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying application: %w", err)
	}
	return a, nil
}

// ListByUser returns the renter's applications, newest first.
func (r *Repository) ListByUser(userID string) ([]*Application, error) {
	return r.list("SELECT "+selectColumns+" FROM applications a WHERE a.user_id = ? ORDER BY a.created_at DESC, a.rowid DESC", userID)
}

// ListByOwner returns applications for every listing owned by ownerID.
func (r *Repository) ListByOwner(ownerID string) ([]*Application, error) {
	return r.list(`SELECT `+selectColumns+` FROM applications a
		JOIN properties p ON p.id = a.property_id
		WHERE p.owner_id = ? ORDER BY a.created_at DESC, a.rowid DESC`, ownerID)
}

func (r *Repository) list(query string, args ...any) (apps []*Application, err error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	apps = []*Application{}
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// Advance moves application id to step and merges in the given sections and
// documents. The step is monotonic.
func (r *Repository) Advance(id string, step int, sections Sections, documents []string) (*Application, error) {
	a, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := a.AdvanceTo(step); err != nil {
		return nil, err
	}
	a.Merge(sections)
	if documents != nil {
		a.Documents = documents
	}

	blobs, err := encode(a)
	if err != nil {
		return nil, err
	}
	args := append([]any{a.Step}, blobs...)
	args = append(args, id)
	_, err = r.db.Exec(`UPDATE applications SET step = ?,
		personal_info = ?, rental_history = ?, employment = ?, references_json = ?, disclosures = ?,
		documents_json = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("updating application: %w", err)
	}
	return r.GetByID(id)
}

// SetStatus records the owner's decision.
func (r *Repository) SetStatus(id string, status Status) (*Application, error) {
	a, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := a.Transition(status); err != nil {
		return nil, err
	}

	// Only a row that is still pending is updated.
	result, err := r.db.Exec(
		"UPDATE applications SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = 'pending'",
		string(status), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating application status: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	} else if n == 0 {
		return nil, apperr.Invalid("status", apperr.KindTransition, "application was decided concurrently")
	}
	return r.GetByID(id)
}

// Withdraw deletes a pending application belonging to userID.
func (r *Repository) Withdraw(userID, id string) error {
	result, err := r.db.Exec("DELETE FROM applications WHERE id = ? AND user_id = ? AND status = 'pending'", id, userID)
	if err != nil {
		return fmt.Errorf("withdrawing application: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pending application %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
