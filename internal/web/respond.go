package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/auth"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("encoding error response", "err", err)
	}
}

// apiData writes data inside the {"data": ...} envelope.
func apiData(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]any{"data": data}); err != nil {
		slog.Error("encoding response", "err", err)
	}
}

// decodeBody reads a JSON body into v, answering 400 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// apiFail maps err to a status code. Validation failures carry their own
// message; unexpected errors are logged and hidden from the caller.
func apiFail(w http.ResponseWriter, err error, what string) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		code := http.StatusBadRequest
		if ve.Kind == apperr.KindTransition {
			code = http.StatusConflict
		}
		apiError(w, ve.Message, code)
	case errors.Is(err, apperr.ErrNotFound):
		apiError(w, what+" not found", http.StatusNotFound)
	default:
		slog.Error(what, "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
	}
}

func claims(r *http.Request) *auth.Claims {
	c, _ := auth.ClaimsFrom(r.Context())
	return c
}

// canManage reports whether the caller owns the resource or is an admin.
func canManage(c *auth.Claims, ownerID string) bool {
	return c != nil && (c.UserID == ownerID || c.Role == auth.RoleAdmin)
}
