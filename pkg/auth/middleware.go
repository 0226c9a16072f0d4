package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sectionforge/sectionforge/pkg/apperr"
)

type contextKey int

const principalContextKey contextKey = iota

// ContextWithPrincipal attaches a principal to ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext retrieves the principal attached by Middleware, if
// any.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey).(*Principal)
	return p
}

// Middleware validates the bearer token on every request and attaches the
// resolved principal to the request context. On a missing or invalid
// token it writes a 401 JSON error response itself and does not call
// next.
func Middleware(store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r.Header.Get("Authorization"))
			if token == "" {
				writeErr(w, apperr.Unauthorized("missing bearer token"))
				return
			}

			p, err := store.Authenticate(token)
			if err != nil {
				writeErr(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// extractToken pulls the token out of an "Authorization: Bearer <token>"
// header.
func extractToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimPrefix(header, prefix)
	}
	return ""
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	msg := err.Error()
	if ae, ok := apperr.As(err); ok {
		msg = ae.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + jsonEscape(msg) + `"}`))
}

func jsonEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
