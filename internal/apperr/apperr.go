// Package apperr defines the error taxonomy shared by the client-side layers:
// session operations, remote calls, local persistence and input validation.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded is wrapped by PersistenceError when a write would
	// exceed the local store quota.
	ErrQuotaExceeded = errors.New("local storage quota exceeded")

	// ErrNotFound is returned when an entity is not present in a list.
	ErrNotFound = errors.New("not found")
)

// AuthError is returned by session operations. Message is meant to be shown
// to the user as is.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RemoteError is returned when a call to the API fails. Status is zero for
// transport failures and malformed payloads.
type RemoteError struct {
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// PersistenceError is returned when writing to the local store fails.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("saving %s locally: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ValidationKind names the check that failed.
type ValidationKind string

const (
	KindRequired         ValidationKind = "required"
	KindEmail            ValidationKind = "email"
	KindPasswordLength   ValidationKind = "password_length"
	KindPasswordMismatch ValidationKind = "password_mismatch"
	KindFileSize         ValidationKind = "file_size"
	KindFileType         ValidationKind = "file_type"
	KindRange            ValidationKind = "range"
	KindTransition       ValidationKind = "transition"
)

// ValidationError is a client-side check failure. It is never sent to a
// remote system.
type ValidationError struct {
	Field   string
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError.
func Invalid(field string, kind ValidationKind, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Message returns the text to show a user for err. RemoteError and
// AuthError messages are returned without decoration.
func Message(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
