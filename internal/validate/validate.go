// Package validate holds client-side checks that run before any network call.
package validate

import (
	"net/mail"
	"strconv"
	"strings"

	"github.com/evcraddock/rent-finder/internal/apperr"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 8

// DefaultMaxUploadBytes is the default image size ceiling (10 MB).
const DefaultMaxUploadBytes int64 = 10 << 20

// AllowedImageTypes lists the MIME types accepted for listing images.
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Required fails when value is blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.Invalid(field, apperr.KindRequired, "%s is required", field)
	}
	return nil
}

// Email checks that s looks like a single bare address.
func Email(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return apperr.Invalid("email", apperr.KindRequired, "email is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndex(s, "@"):], ".") {
		return apperr.Invalid("email", apperr.KindEmail, "%q is not a valid email address", s)
	}
	return nil
}

// Password checks the minimum length.
func Password(pw string) error {
	if len(pw) < MinPasswordLength {
		return apperr.Invalid("password", apperr.KindPasswordLength,
			"password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// PasswordsMatch checks a password confirmation.
func PasswordsMatch(pw, confirm string) error {
	if pw != confirm {
		return apperr.Invalid("password_confirm", apperr.KindPasswordMismatch, "passwords do not match")
	}
	return nil
}

// NonNegative fails for negative numbers.
func NonNegative[N ~int | ~int64 | ~float64](field string, n N) error {
	if n < 0 {
		return apperr.Invalid(field, apperr.KindRange, "%s must not be negative", field)
	}
	return nil
}

// File checks an upload's size and MIME type. Size is checked first so an
// oversized file of the wrong type reports the size problem.
func File(size int64, contentType string, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if size > maxBytes {
		return apperr.Invalid("file", apperr.KindFileSize,
			"file is too large: %s exceeds the %s limit", humanBytes(size), humanBytes(maxBytes))
	}
	if !ImageType(contentType) {
		return apperr.Invalid("file", apperr.KindFileType,
			"unsupported file type %q: use JPEG, PNG, WebP or GIF", contentType)
	}
	return nil
}

// ImageType reports whether contentType is one of AllowedImageTypes.
// Parameters such as "; charset" are ignored.
func ImageType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, t := range AllowedImageTypes {
		if ct == t {
			return true
		}
	}
	return false
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return strconv.FormatFloat(float64(n)/(1<<20), 'f', -1, 64) + " MB"
	case n >= 1<<10:
		return strconv.FormatFloat(float64(n)/(1<<10), 'f', -1, 64) + " KB"
	}
	return strconv.FormatInt(n, 10) + " B"
}
