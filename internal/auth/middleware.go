// middleware.go

// AuthGate (cookie) and PortalTokenGate (bearer) middleware.
package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/viaduct-auth/viaduct/internal/token"
)

// contextKey is unexported to prevent collisions with other packages using
// the same context.
type contextKey string

const authClaimsKey contextKey = "gc_auth_claims"
const portalClaimsKey contextKey = "portal_claims"

// AuthFromContext retrieves the decoded gc-auth claims from context.
// Returns nil and false if RequireGoogleAuth hasn't run.
func AuthFromContext(ctx context.Context) (*token.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsKey).(*token.AuthClaims)
	return claims, ok
}

// PortalFromContext retrieves the decoded portal token claims from context.
// Returns nil and false if RequirePortalToken hasn't run.
func PortalFromContext(ctx context.Context) (*token.PortalClaims, bool) {
	claims, ok := ctx.Value(portalClaimsKey).(*token.PortalClaims)
	return claims, ok
}

// RequireGoogleAuth validates the gc-auth cookie and injects the decoded
// claims into context. Unauthenticated or invalid requests are redirected to
// the sign-in page with the original path+query preserved as returnUrl.
//
// When the request carries a fresh courseId query parameter, the addon
// context is replaced from the query string and the cookie is re-signed with
// a fresh 7-day expiry -- the only permitted mutation path for AuthClaims.
func (h *Handler) RequireGoogleAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(AuthCookieName)
		if err != nil || cookie.Value == "" {
			logWarn(r, "auth gate: missing auth cookie")
			redirectToSignin(w, r)
			return
		}

		claims, err := h.Codec.VerifyAuth(cookie.Value)
		if err != nil {
			logWarn(r, "auth gate: cookie verification failed", "error", err)
			ClearAuthCookie(w)
			redirectToSignin(w, r)
			return
		}
		if !claims.Complete() {
			logWarn(r, "auth gate: claims missing user or tokens")
			ClearAuthCookie(w)
			redirectToSignin(w, r)
			return
		}

		if q := r.URL.Query(); q.Get("courseId") != "" {
			// Fresh launch context: replace the addon block wholesale, strip
			// the old registered claims (stale iat/exp must not survive into
			// the new artifact), and re-sign.
			claims.Addon = token.AddonContext{
				CourseID:   q.Get("courseId"),
				ItemID:     q.Get("itemId"),
				ItemType:   q.Get("itemType"),
				AddOnToken: q.Get("addOnToken"),
				LoginHint:  q.Get("login_hint"),
			}
			claims.RegisteredClaims = token.NewRegistered(h.AuthTTL)
			signed, err := h.Codec.SignLocal(claims)
			if err != nil {
				InternalServerError(w, r, err)
				return
			}
			SetAuthCookie(w, signed, h.AuthTTL)
		}

		ctx := context.WithValue(r.Context(), authClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePortalToken validates the Authorization bearer token against the
// local secret and injects the decoded portal claims into context. The
// portal-token issuance endpoint itself must not sit behind this gate.
func (h *Handler) RequirePortalToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			logWarn(r, "portal gate: missing bearer token")
			Unauthorized(w, r, "Missing portal token.")
			return
		}

		claims, err := h.Codec.VerifyPortal(raw)
		if err != nil {
			logWarn(r, "portal gate: token verification failed", "error", err)
			Unauthorized(w, r, "Invalid portal token.")
			return
		}

		ctx := context.WithValue(r.Context(), portalClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// redirectToSignin sends the browser to the sign-in page, forwarding the
// request's query parameters (so launch context survives the detour) plus a
// returnUrl equal to the originally requested path and query.
func redirectToSignin(w http.ResponseWriter, r *http.Request) {
	returnURL := r.URL.Path
	if r.URL.RawQuery != "" {
		returnURL += "?" + r.URL.RawQuery
	}

	params := url.Values{}
	for key, vals := range r.URL.Query() {
		if key == "returnUrl" {
			continue
		}
		for _, v := range vals {
			params.Add(key, v)
		}
	}
	params.Set("returnUrl", returnURL)

	http.Redirect(w, r, "/signin?"+params.Encode(), http.StatusFound)
}
