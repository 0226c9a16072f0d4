package auth

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// tokenTTL is the "24h expiry" of SPEC_FULL.md §4.10.
const tokenTTL = 24 * time.Hour

// TokenIssuer signs and validates bearer tokens with a local symmetric key.
// The teacher's JWTValidator validates tokens issued by an external IdP
// against a fetched JWKS; there is no external IdP here, so this
// generalizes the same jwx/v2 machinery to local HS256 issuance.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer builds an issuer around a shared HMAC secret.
func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret}
}

// Issue signs a token whose subject is principalID.
func (i *TokenIssuer) Issue(principalID string) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(principalID).
		IssuedAt(now).
		Expiration(now.Add(tokenTTL)).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, i.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

// Validate verifies signature and expiry, returning the subject (principal
// id) on success.
func (i *TokenIssuer) Validate(tokenString string) (string, error) {
	tok, err := jwt.Parse([]byte(tokenString), jwt.WithKey(jwa.HS256, i.secret), jwt.WithValidate(true))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if tok.Subject() == "" {
		return "", fmt.Errorf("token missing subject claim")
	}
	return tok.Subject(), nil
}
