// oauth_handler.go -- OAuth login and callback handlers.
//
// The round trip is stateless: returnUrl and the addon launch context ride
// the provider's state parameter as a short-lived signed JWT. No state
// cookie, no server-side session.
package auth

import (
	"net/http"
	"net/url"

	"github.com/viaduct-auth/viaduct/internal/token"
)

// OAuthLogin handles GET /oauth/login -- packs returnUrl plus any classroom
// launch parameters into a signed state token and redirects the browser to
// the provider consent page.
func (h *Handler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	returnURL := q.Get("returnUrl")
	if returnURL == "" {
		returnURL = defaultReturnURL
	}

	state := &token.StateClaims{
		ReturnURL: returnURL,
		Addon: token.AddonContext{
			CourseID:   q.Get("courseId"),
			ItemID:     q.Get("itemId"),
			ItemType:   q.Get("itemType"),
			AddOnToken: q.Get("addOnToken"),
			LoginHint:  q.Get("login_hint"),
		},
		RegisteredClaims: token.NewRegistered(stateTTL),
	}
	signed, err := h.Codec.SignLocal(state)
	if err != nil {
		InternalServerError(w, r, err)
		return
	}

	http.Redirect(w, r, h.Exchanger.AuthCodeURL(signed), http.StatusFound)
}

// OAuthCallback handles GET /oauth/callback -- verifies the state token,
// exchanges the authorization code for a verified identity and token bundle,
// mints the gc-auth cookie, and bounces through the close-popup page back to
// the state's returnUrl. Every failure lands on the failure page; the
// browser retry is a fresh sign-in click, never an automatic one.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	code := q.Get("code")
	if code == "" {
		logWarn(r, "oauth callback: missing authorization code")
		http.Redirect(w, r, "/failed", http.StatusFound)
		return
	}

	state, err := h.Codec.VerifyState(q.Get("state"))
	if err != nil {
		logWarn(r, "oauth callback: invalid state", "error", err)
		http.Redirect(w, r, "/failed", http.StatusFound)
		return
	}

	identity, bundle, err := h.Exchanger.Exchange(r.Context(), code)
	if err != nil {
		logWarn(r, "oauth callback: exchange failed", "error", err)
		http.Redirect(w, r, "/failed", http.StatusFound)
		return
	}

	claims := &token.AuthClaims{
		User:             identity,
		Tokens:           bundle,
		Addon:            state.Addon,
		RegisteredClaims: token.NewRegistered(h.AuthTTL),
	}
	signed, err := h.Codec.SignLocal(claims)
	if err != nil {
		logError(r, "oauth callback: signing auth cookie failed", "error", err)
		http.Redirect(w, r, "/failed", http.StatusFound)
		return
	}
	SetAuthCookie(w, signed, h.AuthTTL)

	logInfo(r, "oauth sign-in complete", "email", identity.Email, "course_id", state.Addon.CourseID)
	http.Redirect(w, r, "/closepopup?returnUrl="+url.QueryEscape(state.ReturnURL), http.StatusFound)
}
