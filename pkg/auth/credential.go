package auth

import "github.com/sectionforge/sectionforge/pkg/apperr"

// Credential is a principal's configured LLM endpoint, per SPEC_FULL.md
// §3's LLM Credential record. Updates replace the record wholesale
// (copy-on-write), matching spec.md §5.
type Credential struct {
	PrincipalID    string
	EndpointURL    string
	BearerToken    string
	DefaultModel   string
	Temperature    float64
	MaxTokens      int
}

// RedactedCredential is the shape returned by GET /config: every field is
// safe to show except the bearer token, which collapses to a boolean.
type RedactedCredential struct {
	EndpointURL       string
	BearerConfigured  bool
	DefaultModel      string
	Temperature       float64
	MaxTokens         int
}

// SetCredential replaces the credential record for a principal.
func (s *Store) SetCredential(principalID string, cred Credential) error {
	if _, err := s.Get(principalID); err != nil {
		return err
	}
	cred.PrincipalID = principalID

	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[principalID] = &cred
	return nil
}

// GetCredential returns the raw credential record, including the bearer
// token, for internal use by the LLM Client.
func (s *Store) GetCredential(principalID string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credentials[principalID]
	if !ok {
		return nil, apperr.NotFound("no llm credential configured for principal %s", principalID)
	}
	cp := *c
	return &cp, nil
}

// GetCredentialRedacted returns the credential with the bearer token
// redacted to a configured flag, for GET /config.
func (s *Store) GetCredentialRedacted(principalID string) (*RedactedCredential, error) {
	c, err := s.GetCredential(principalID)
	if err != nil {
		return nil, err
	}
	return &RedactedCredential{
		EndpointURL:      c.EndpointURL,
		BearerConfigured: c.BearerToken != "",
		DefaultModel:     c.DefaultModel,
		Temperature:      c.Temperature,
		MaxTokens:        c.MaxTokens,
	}, nil
}
