// cookie.go

// gc-auth cookie management.
package auth

import (
	"net/http"
	"time"
)

// AuthCookieName is the cookie carrying the signed AuthClaims.
const AuthCookieName = "gc-auth"

// SetAuthCookie writes the gc-auth cookie. SameSite=None because the add-on
// runs inside a Google Classroom iframe, which makes every request
// cross-site; None requires Secure.
func SetAuthCookie(w http.ResponseWriter, signed string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearAuthCookie overwrites gc-auth with MaxAge=-1 to trigger browser deletion.
func ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
	})
}
