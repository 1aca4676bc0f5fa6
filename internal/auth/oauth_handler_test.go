package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/viaduct-auth/viaduct/internal/token"
)

func TestOAuthLogin(t *testing.T) {
	t.Run("packs returnUrl and launch context into signed state", func(t *testing.T) {
		h, _, _, _ := newTestHandler(t)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/oauth/login?returnUrl=%2Fprofile&courseId=C9&itemId=item-1", nil)
		h.OAuthLogin(rec, req)

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		loc := rec.Header().Get("Location")
		if !strings.HasPrefix(loc, "https://accounts.google.com/o/oauth2/v2/auth?state=") {
			t.Fatalf("unexpected consent location %q", loc)
		}
		parsed, err := url.Parse(loc)
		if err != nil {
			t.Fatalf("parsing location: %v", err)
		}

		state, err := h.Codec.VerifyState(parsed.Query().Get("state"))
		if err != nil {
			t.Fatalf("VerifyState: %v", err)
		}
		if state.ReturnURL != "/profile" {
			t.Errorf("returnUrl = %q, want /profile", state.ReturnURL)
		}
		if state.Addon.CourseID != "C9" || state.Addon.ItemID != "item-1" {
			t.Errorf("unexpected addon context %+v", state.Addon)
		}
	})

	t.Run("defaults returnUrl to addon discovery", func(t *testing.T) {
		h, _, _, _ := newTestHandler(t)
		rec := httptest.NewRecorder()
		h.OAuthLogin(rec, httptest.NewRequest(http.MethodGet, "/oauth/login", nil))

		parsed, err := url.Parse(rec.Header().Get("Location"))
		if err != nil {
			t.Fatalf("parsing location: %v", err)
		}
		state, err := h.Codec.VerifyState(parsed.Query().Get("state"))
		if err != nil {
			t.Fatalf("VerifyState: %v", err)
		}
		if state.ReturnURL != "/addon-discovery" {
			t.Errorf("returnUrl = %q, want /addon-discovery", state.ReturnURL)
		}
	})
}

func TestOAuthCallback(t *testing.T) {
	signedState := func(t *testing.T, h *Handler, returnURL string) string {
		t.Helper()
		signed, err := h.Codec.SignLocal(&token.StateClaims{
			ReturnURL:        returnURL,
			Addon:            token.AddonContext{CourseID: "C1"},
			RegisteredClaims: token.NewRegistered(10 * time.Minute),
		})
		if err != nil {
			t.Fatalf("SignLocal: %v", err)
		}
		return signed
	}

	t.Run("missing code lands on failure page", func(t *testing.T) {
		h, exchanger, _, _ := newTestHandler(t)
		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback?state=whatever", nil))

		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/failed" {
			t.Fatalf("expected redirect to /failed, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
		if exchanger.ExchangeCalls != 0 {
			t.Error("exchange must not run without a code")
		}
	})

	t.Run("tampered state lands on failure page", func(t *testing.T) {
		h, exchanger, _, _ := newTestHandler(t)
		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=abc&state=forged", nil))

		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/failed" {
			t.Fatalf("expected redirect to /failed, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
		if exchanger.ExchangeCalls != 0 {
			t.Error("exchange must not run on invalid state")
		}
	})

	t.Run("exchange failure lands on failure page", func(t *testing.T) {
		h, exchanger, _, _ := newTestHandler(t)
		exchanger.ExchangeErr = errors.New("provider rejected code")

		rec := httptest.NewRecorder()
		target := "/oauth/callback?code=abc&state=" + url.QueryEscape(signedState(t, h, "/profile"))
		h.OAuthCallback(rec, httptest.NewRequest(http.MethodGet, target, nil))

		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/failed" {
			t.Fatalf("expected redirect to /failed, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("success mints the auth cookie and closes the popup", func(t *testing.T) {
		h, exchanger, _, _ := newTestHandler(t)
		exchanger.Identity = token.Identity{
			Sub:         "user-1",
			Email:       "pat@example.com",
			DisplayName: "Pat Jones",
		}
		exchanger.Bundle = token.TokenBundle{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiryDate:   time.Now().Add(time.Hour).UnixMilli(),
		}

		rec := httptest.NewRecorder()
		target := "/oauth/callback?code=code-123&state=" + url.QueryEscape(signedState(t, h, "/profile"))
		h.OAuthCallback(rec, httptest.NewRequest(http.MethodGet, target, nil))

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/closepopup?returnUrl=%2Fprofile" {
			t.Errorf("unexpected redirect %q", got)
		}
		if exchanger.LastCode != "code-123" {
			t.Errorf("exchanged code %q, want code-123", exchanger.LastCode)
		}

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == AuthCookieName {
				cookie = c
			}
		}
		if cookie == nil {
			t.Fatal("expected gc-auth cookie on success")
		}
		if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteNoneMode {
			t.Errorf("cookie attributes wrong: %+v", cookie)
		}

		claims, err := h.Codec.VerifyAuth(cookie.Value)
		if err != nil {
			t.Fatalf("VerifyAuth: %v", err)
		}
		if claims.User.Sub != "user-1" || claims.Tokens.AccessToken != "access-1" {
			t.Errorf("unexpected cookie claims %+v", claims)
		}
		if claims.Addon.CourseID != "C1" {
			t.Errorf("addon context from state not carried: %+v", claims.Addon)
		}
	})
}
