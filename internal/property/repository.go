package property

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/google/uuid"
)

// Repository provides CRUD operations for listings.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, owner_id, title, description, price_cents, street, city, state, zip,
	property_type, bedrooms, bathrooms, square_feet, images_json, status, created_at, updated_at`

// scanProperty scans a property from a database row.
func scanProperty(row interface{ Scan(...interface{}) error }) (*Property, error) {
	var p Property
	var images, status string
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.PriceCents,
		&p.Address.Street, &p.Address.City, &p.Address.State, &p.Address.Zip,
		&p.PropertyType, &p.Bedrooms, &p.Bathrooms, &p.SquareFeet,
		&images, &status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = Status(status)
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("decoding images: %w", err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encoding images: %w", err)
	}
	return string(b), nil
}

// Insert validates and stores a new listing owned by p.OwnerID. A new id is
// assigned and the status defaults to available.
func (r *Repository) Insert(p *Property) (*Property, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	images, err := encodeImages(p.Images)
	if err != nil {
		return nil, err
	}
	status := p.Status
	if status == "" {
		status = StatusAvailable
	}

	id := uuid.NewString()
	_, err = r.db.Exec(`INSERT INTO properties
		(id, owner_id, title, description, price_cents, street, city, state, zip,
		 property_type, bedrooms, bathrooms, square_feet, images_json, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.OwnerID, p.Title, p.Description, p.PriceCents,
		p.Address.Street, p.Address.City, p.Address.State, p.Address.Zip,
		p.PropertyType, p.Bedrooms, p.Bathrooms, p.SquareFeet, images, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a listing by its ID. A missing listing wraps apperr.ErrNotFound.
func (r *Repository) GetByID(id string) (*Property, error) {
	row := r.db.QueryRow(fmt.Sprintf("SELECT %s FROM properties WHERE id = ?", selectColumns), id)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %s: %w", id, err)
	}
	return p, nil
}

// List returns non-archived listings matching f, newest first.
func (r *Repository) List(f Filters) ([]*Property, error) {
	conditions := []string{"status != 'archived'"}
	var args []interface{}

	if f.City != "" {
		conditions = append(conditions, "city = ? COLLATE NOCASE")
		args = append(args, f.City)
	}
	if f.PropertyType != "" {
		conditions = append(conditions, "property_type = ? COLLATE NOCASE")
		args = append(args, f.PropertyType)
	}
	if f.MinPriceCents != nil {
		conditions = append(conditions, "price_cents >= ?")
		args = append(args, *f.MinPriceCents)
	}
	if f.MaxPriceCents != nil {
		conditions = append(conditions, "price_cents <= ?")
		args = append(args, *f.MaxPriceCents)
	}
	if f.MinBedrooms != nil {
		conditions = append(conditions, "bedrooms >= ?")
		args = append(args, *f.MinBedrooms)
	}
	if f.MinBathrooms != nil {
		conditions = append(conditions, "bathrooms >= ?")
		args = append(args, *f.MinBathrooms)
	}

	query := fmt.Sprintf("SELECT %s FROM properties WHERE %s ORDER BY created_at DESC, id",
		selectColumns, strings.Join(conditions, " AND "))
	return r.query(query, args...)
}

// ListByOwner returns every listing owned by ownerID, archived included.
func (r *Repository) ListByOwner(ownerID string) ([]*Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties WHERE owner_id = ? ORDER BY created_at DESC, id", selectColumns)
	return r.query(query, ownerID)
}

func (r *Repository) query(query string, args ...interface{}) (properties []*Property, err error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	properties = []*Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}
	return properties, nil
}

// Update replaces the editable fields of listing p.ID. Owner and creation
// time are never changed.
func (r *Repository) Update(p *Property) (*Property, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	images, err := encodeImages(p.Images)
	if err != nil {
		return nil, err
	}
	status := p.Status
	if status == "" {
		status = StatusAvailable
	}

	result, err := r.db.Exec(`UPDATE properties SET
		title = ?, description = ?, price_cents = ?, street = ?, city = ?, state = ?, zip = ?,
		property_type = ?, bedrooms = ?, bathrooms = ?, square_feet = ?, images_json = ?, status = ?,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		p.Title, p.Description, p.PriceCents,
		p.Address.Street, p.Address.City, p.Address.State, p.Address.Zip,
		p.PropertyType, p.Bedrooms, p.Bathrooms, p.SquareFeet, images, string(status),
		p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating property: %w", err)
	}
	if err := requireRow(result, p.ID); err != nil {
		return nil, err
	}
	return r.GetByID(p.ID)
}

// Archive marks a listing archived. Listings are never hard-deleted because
// applications may reference them.
func (r *Repository) Archive(id string) (*Property, error) {
	result, err := r.db.Exec(
		"UPDATE properties SET status = 'archived', updated_at = CURRENT_TIMESTAMP WHERE id = ?", id,
	)
	if err != nil {
		return nil, fmt.Errorf("archiving property: %w", err)
	}
	if err := requireRow(result, id); err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
