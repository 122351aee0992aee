package web

import (
	"net/http"

	"github.com/evcraddock/rent-finder/internal/media"
	"github.com/evcraddock/rent-finder/internal/validate"
)

// handleUploadCredential issues a one-time credential for a direct image
// upload.
func (s *Server) handleUploadCredential(w http.ResponseWriter, r *http.Request) {
	if s.signer == nil {
		apiError(w, "Image uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	var req media.Request
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validate.Required("file_name", req.FileName); err != nil {
		apiFail(w, err, "upload")
		return
	}
	if req.ContentType != "" && !validate.ImageType(req.ContentType) {
		apiError(w, "Unsupported file type", http.StatusBadRequest)
		return
	}

	cred, err := s.signer.Sign(r.Context(), req)
	if err != nil {
		apiFail(w, err, "signing upload")
		return
	}
	apiData(w, cred, http.StatusOK)
}
