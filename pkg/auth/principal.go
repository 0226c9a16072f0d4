// Package auth implements the Principal Store & Auth component (C10):
// local principal registration and login, bearer token issuance and
// validation, and per-principal LLM credential records, per
// SPEC_FULL.md §4.10.
package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sectionforge/sectionforge/pkg/apperr"
)

// Principal is a registered local user account.
type Principal struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Store holds registered principals and their LLM credential records.
type Store struct {
	issuer *TokenIssuer

	mu          sync.RWMutex
	byID        map[string]*Principal
	byUsername  map[string]*Principal
	credentials map[string]*Credential
}

// NewStore builds a Store backed by issuer for token signing/validation.
func NewStore(issuer *TokenIssuer) *Store {
	return &Store{
		issuer:      issuer,
		byID:        make(map[string]*Principal),
		byUsername:  make(map[string]*Principal),
		credentials: make(map[string]*Credential),
	}
}

// Register creates a principal with a bcrypt-hashed password. Duplicate
// usernames are rejected.
func (s *Store) Register(username, password string) (*Principal, error) {
	if username == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[username]; exists {
		return nil, apperr.Validation("username %q is already registered", username)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err, "hash password")
	}

	p := &Principal{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	s.byID[p.ID] = p
	s.byUsername[p.Username] = p
	return p, nil
}

// Login verifies credentials and issues a bearer token on success.
func (s *Store) Login(username, password string) (string, error) {
	s.mu.RLock()
	p, ok := s.byUsername[username]
	s.mu.RUnlock()
	if !ok || !comparePassword(p.PasswordHash, password) {
		return "", apperr.Unauthorized("invalid username or password")
	}

	token, err := s.issuer.Issue(p.ID)
	if err != nil {
		return "", apperr.Internal(err, "issue token")
	}
	return token, nil
}

// Authenticate validates a bearer token and returns the principal it
// names.
func (s *Store) Authenticate(token string) (*Principal, error) {
	principalID, err := s.issuer.Validate(token)
	if err != nil {
		return nil, apperr.Unauthorized("%v", err)
	}

	s.mu.RLock()
	p, ok := s.byID[principalID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperr.Unauthorized("unknown principal")
	}
	return p, nil
}

// Get fetches a principal by id.
func (s *Store) Get(principalID string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[principalID]
	if !ok {
		return nil, apperr.NotFound("principal not found: %s", principalID)
	}
	return p, nil
}
