package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/validate"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role is what a user may do.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleTenant    Role = "tenant"
	RoleLandlord  Role = "landlord"
	RoleAdmin     Role = "admin"
)

// CanList reports whether the role may create listings.
func (r Role) CanList() bool {
	return r == RoleLandlord || r == RoleAdmin
}

var (
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("an account with that email already exists")
)

// User is a registered account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore manages accounts in SQLite.
type UserStore struct {
	db         *sql.DB
	adminEmail string
	cost       int
}

// NewUserStore creates a user store. An account registered with adminEmail
// always gets the admin role.
func NewUserStore(db *sql.DB, adminEmail string) *UserStore {
	return &UserStore{db: db, adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)), cost: bcrypt.DefaultCost}
}

// IsAdmin checks if an email is the admin.
func (s *UserStore) IsAdmin(email string) bool {
	return s.adminEmail != "" && strings.ToLower(email) == s.adminEmail
}

// Create registers a new account. Only tenant and landlord may be chosen;
// anything else becomes tenant.
func (s *UserStore) Create(email, name, password string, role Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if err := validate.Email(email); err != nil {
		return nil, err
	}
	if err := validate.Password(password); err != nil {
		return nil, err
	}

	switch {
	case s.IsAdmin(email):
		role = RoleAdmin
	case role != RoleLandlord:
		role = RoleTenant
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		"INSERT INTO users (id, email, name, password_hash, role) VALUES (?, ?, ?, ?, ?)",
		id, email, name, string(hash), string(role),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	return s.GetByID(id)
}

// Authenticate checks a password and returns the account.
func (s *UserStore) Authenticate(email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var id, hash string
	err := s.db.QueryRow("SELECT id, password_hash FROM users WHERE email = ?", email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.GetByID(id)
}

const userColumns = "id, email, name, role, verified, created_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.Verified, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(id string) (*User, error) {
	u, err := scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// GetByEmail returns a user by email, case-insensitively.
func (s *UserStore) GetByEmail(email string) (*User, error) {
	u, err := scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// MarkVerified records that the user confirmed their email address.
func (s *UserStore) MarkVerified(id string) error {
	result, err := s.db.Exec("UPDATE users SET verified = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("verifying user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
