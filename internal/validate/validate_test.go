package validate

import (
	"errors"
	"testing"

	"github.com/evcraddock/rent-finder/internal/apperr"
)

func kindOf(t *testing.T, err error) apperr.ValidationKind {
	t.Helper()
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return ve.Kind
}

func TestEmail(t *testing.T) {
	tests := []struct {
		in   string
		kind apperr.ValidationKind
	}{
		{"renter@example.com", ""},
		{"", apperr.KindRequired},
		{"not-an-email", apperr.KindEmail},
		{"Bob <bob@example.com>", apperr.KindEmail},
		{"bob@localhost", apperr.KindEmail},
	}
	for _, tt := range tests {
		err := Email(tt.in)
		if tt.kind == "" {
			if err != nil {
				t.Errorf("Email(%q) = %v, want nil", tt.in, err)
			}
			continue
		}
		if got := kindOf(t, err); got != tt.kind {
			t.Errorf("Email(%q) kind = %q, want %q", tt.in, got, tt.kind)
		}
	}
}

func TestPassword(t *testing.T) {
	if err := Password("short"); kindOf(t, err) != apperr.KindPasswordLength {
		t.Error("expected password_length")
	}
	if err := Password("long enough"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := PasswordsMatch("a", "b"); kindOf(t, err) != apperr.KindPasswordMismatch {
		t.Error("expected password_mismatch")
	}
}

func TestFileSizeCheckedBeforeType(t *testing.T) {
	err := File(15<<20, "application/pdf", 10<<20)
	if kindOf(t, err) != apperr.KindFileSize {
		t.Errorf("expected file_size, got %v", err)
	}
}

func TestFileType(t *testing.T) {
	err := File(1024, "application/pdf", 0)
	if kindOf(t, err) != apperr.KindFileType {
		t.Errorf("expected file_type, got %v", err)
	}
	if err := File(1024, "image/webp", 0); err != nil {
		t.Errorf("webp should be allowed: %v", err)
	}
	if err := File(1024, "IMAGE/JPEG; charset=binary", 0); err != nil {
		t.Errorf("parameters should be ignored: %v", err)
	}
}

func TestFileSizeMessage(t *testing.T) {
	err := File(15<<20, "image/jpeg", 10<<20)
	want := "file is too large: 15 MB exceeds the 10 MB limit"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestNonNegative(t *testing.T) {
	if err := NonNegative("bedrooms", -1); kindOf(t, err) != apperr.KindRange {
		t.Error("expected range error")
	}
	if err := NonNegative("bathrooms", 1.5); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
