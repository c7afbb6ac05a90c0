package security

import (
	"net/http"
	"time"
)

// CookieOptions carries the per-deployment cookie settings.
type CookieOptions struct {
	Name   string
	Secure bool
	Domain string
}

// SetSessionCookie binds a session token to an HTTP-only, SameSite=Lax
// cookie scoped to "/" with a lifetime equal to the session ttl.
func SetSessionCookie(w http.ResponseWriter, opts CookieOptions, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		Domain:   opts.Domain,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie overwrites the session cookie with an immediately
// expiring empty value.
func ClearSessionCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		Domain:   opts.Domain,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionFromRequest reads the named session cookie, returning "" when absent.
func SessionFromRequest(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
