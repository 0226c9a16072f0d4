package restapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sectionforge/sectionforge/pkg/apperr"
	"github.com/sectionforge/sectionforge/pkg/docsec"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps a typed apperr.Kind to its HTTP status, per
// SPEC_FULL.md §7. The Commit Engine's own sentinel error types are
// recognized directly since docsec has no reason to depend on apperr.
// Anything else defaults to 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()

	var notFound *docsec.SectionNotFoundError
	var invalidMode *docsec.InvalidModeError

	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &invalidMode):
		status = http.StatusBadRequest
	default:
		if ae, ok := apperr.As(err); ok {
			msg = ae.Message
			switch ae.Kind {
			case apperr.KindValidation:
				status = http.StatusBadRequest
			case apperr.KindUnauthorized:
				status = http.StatusUnauthorized
			case apperr.KindNotFound:
				status = http.StatusNotFound
			case apperr.KindUpstream:
				status = http.StatusBadGateway
			case apperr.KindInternal:
				status = http.StatusInternalServerError
			}
		}
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}
