package middleware

import (
	"net/http"
	"strings"

	"user-session-api/internal/apperr"
	"user-session-api/internal/authz"
	"user-session-api/internal/security"
	"user-session-api/internal/server/respond"
)

const bearerPrefix = "bearer "

// Strategy extracts a raw credential from a request, or "" when the
// request carries none in that location.
type Strategy func(r *http.Request) string

// BearerToken reads the Authorization header. A malformed scheme counts
// as no credential at all; the next strategy gets its turn.
func BearerToken(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// CookieToken reads the credential from the named cookie.
func CookieToken(name string) Strategy {
	return func(r *http.Request) string {
		c, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return c.Value
	}
}

// DefaultStrategies is the extraction order: explicit header first, then
// the browser cookie. The first strategy that yields anything wins; a
// bad bearer token is not rescued by a good cookie.
func DefaultStrategies() []Strategy {
	return []Strategy{BearerToken, CookieToken(security.CookieName)}
}

// extract runs strategies in order and returns the first non-empty raw
// credential.
func extract(r *http.Request, strategies []Strategy) string {
	for _, s := range strategies {
		if tok := s(r); tok != "" {
			return tok
		}
	}
	return ""
}

// RequireAuth guards a route group. Public routes, as decided by the
// policy on the exact method/path pair, bypass extraction entirely.
// Everything else must present a verifiable credential; failures stop
// the chain with 401 before the handler runs.
func RequireAuth(tokens *security.TokenProvider, policy *authz.RoutePolicy, strategies ...Strategy) func(http.Handler) http.Handler {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy != nil && policy.Public(r.Context(), r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			id, err := tokens.Verify(extract(r, strategies))
			if err != nil {
				respond.Err(w, apperr.Unauthorized("missing or invalid authorization"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches an identity when a verifiable credential is
// present and passes the request through unconditionally otherwise. A
// nil identity is still recorded so handlers know the guard ran.
func OptionalAuth(tokens *security.TokenProvider, strategies ...Strategy) func(http.Handler) http.Handler {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id *security.Identity
			if tok := extract(r, strategies); tok != "" {
				if verified, err := tokens.Verify(tok); err == nil {
					id = verified
				}
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
