package restapi

import "net/http"

func (h *handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	h.proxyGet(w, r, "/api/models")
}

func (h *handler) handleListCollections(w http.ResponseWriter, r *http.Request) {
	h.proxyGet(w, r, "/api/collections")
}

func (h *handler) proxyGet(w http.ResponseWriter, r *http.Request, path string) {
	client, _, err := h.llmClientFor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	body, status, err := client.ProxyGet(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
