package restapi

import (
	"net/http"
	"time"

	"github.com/sectionforge/sectionforge/pkg/auth"
	"github.com/sectionforge/sectionforge/pkg/llmclient"
)

type setConfigRequest struct {
	EndpointURL  string  `json:"endpoint_url"`
	BearerToken  string  `json:"bearer_token"`
	DefaultModel string  `json:"default_model"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
}

func (h *handler) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())

	var req setConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := validateLLMParams(req.Temperature, req.MaxTokens); err != nil {
		writeError(w, err)
		return
	}

	err := h.deps.Principals.SetCredential(p.ID, auth.Credential{
		EndpointURL:  req.EndpointURL,
		BearerToken:  req.BearerToken,
		DefaultModel: req.DefaultModel,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())

	redacted, err := h.deps.Principals.GetCredentialRedacted(p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redacted)
}

// llmClientFor builds an LLM Client from the authenticated principal's
// stored credential.
func (h *handler) llmClientFor(r *http.Request) (*llmclient.Client, *auth.Credential, error) {
	p := auth.PrincipalFromContext(r.Context())
	cred, err := h.deps.Principals.GetCredential(p.ID)
	if err != nil {
		return nil, nil, err
	}

	timeout := time.Duration(h.deps.LLMTimeoutSeconds) * time.Second
	client := llmclient.New(llmclient.Config{
		BaseURL:     cred.EndpointURL,
		BearerToken: cred.BearerToken,
		Timeout:     timeout,
	})
	return client, cred, nil
}
