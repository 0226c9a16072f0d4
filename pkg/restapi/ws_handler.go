package restapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sectionforge/sectionforge/pkg/apperr"
)

// handleWS upgrades to the progress-event stream for client_id. A
// websocket handshake cannot carry an Authorization header from a
// browser, so the bearer token rides in the "token" query parameter
// instead — the only endpoint in this surface authenticated that way.
func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, apperr.Unauthorized("missing token query parameter"))
		return
	}
	if _, err := h.deps.Principals.Authenticate(token); err != nil {
		writeError(w, err)
		return
	}

	clientID := chi.URLParam(r, "client_id")
	h.deps.Hub.ServeWS(w, r, clientID)
}
