package security

import (
	"net/http"
	"time"
)

// CookieName is the cookie the session credential travels in for
// browser clients.
const CookieName = "jwt"

// CookieManager writes and clears the session cookie with the hardening
// flags fixed: HttpOnly always, SameSite=Strict, scope "/". Secure and
// lifetime come from config.
type CookieManager struct {
	secure bool
	maxAge time.Duration
}

// NewCookieManager returns a CookieManager.
func NewCookieManager(secure bool, maxAge time.Duration) *CookieManager {
	return &CookieManager{secure: secure, maxAge: maxAge}
}

// Set attaches the credential cookie to the response.
func (m *CookieManager) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Clear expires the credential cookie. Safe to call whether or not the
// client sent one; logout stays idempotent at the transport layer.
func (m *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
