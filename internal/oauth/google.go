// google.go -- Google OAuth2 + OIDC exchanger implementation.
package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/viaduct-auth/viaduct/internal/token"
)

// Scopes requested at sign-in. Must match the scopes configured for the
// OAuth client in the Google Cloud Console; the roster probes need at least
// rosters.readonly, the add-on flows need the addons scopes.
var Scopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/classroom.addons.teacher",
	"https://www.googleapis.com/auth/classroom.addons.student",
	"https://www.googleapis.com/auth/classroom.courses",
	"https://www.googleapis.com/auth/classroom.courses.readonly",
	"https://www.googleapis.com/auth/classroom.rosters.readonly",
	"https://www.googleapis.com/auth/classroom.coursework.me",
	"https://www.googleapis.com/auth/classroom.courseworkmaterials",
	"https://www.googleapis.com/auth/classroom.course-work.readonly",
	"https://www.googleapis.com/auth/classroom.coursework.students",
}

// GoogleExchanger implements Exchanger using Google's OIDC discovery and
// OAuth2 code flow. Offline access is always requested so the auth cookie
// can carry a refresh token across its 7-day lifetime.
type GoogleExchanger struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogleExchanger creates a GoogleExchanger by fetching Google's OIDC
// discovery document. Makes an outbound HTTP request to accounts.google.com
// at startup; returns an error if unreachable.
func NewGoogleExchanger(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleExchanger, error) {
	p, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("google oidc discovery: %w", err)
	}
	return &GoogleExchanger{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     p.Endpoint(),
			Scopes:       Scopes,
		},
		verifier: p.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthCodeURL builds the Google consent page URL. prompt=consent forces the
// consent screen so Google re-issues a refresh token on every sign-in.
func (g *GoogleExchanger) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the authorization code for the provider token bundle,
// then verifies the bundled ID token against Google's JWKS, our client ID
// as audience, and the Google issuer before trusting any profile field.
func (g *GoogleExchanger) Exchange(ctx context.Context, code string) (token.Identity, token.TokenBundle, error) {
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return token.Identity{}, token.TokenBundle{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok {
		return token.Identity{}, token.TokenBundle{}, fmt.Errorf("%w: no id_token in token response", ErrIdentityVerification)
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return token.Identity{}, token.TokenBundle{}, fmt.Errorf("%w: %v", ErrIdentityVerification, err)
	}

	var c struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&c); err != nil {
		return token.Identity{}, token.TokenBundle{}, fmt.Errorf("%w: extracting claims: %v", ErrIdentityVerification, err)
	}

	identity := token.Identity{
		Sub:          idToken.Subject,
		Email:        c.Email,
		DisplayName:  c.Name,
		PortraitURL:  c.Picture,
		RefreshToken: tok.RefreshToken,
	}
	bundle := token.TokenBundle{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      rawIDToken,
	}
	if !tok.Expiry.IsZero() {
		bundle.ExpiryDate = tok.Expiry.UnixMilli()
	}
	return identity, bundle, nil
}

// Refresh implements refresh-if-expired. The returned bundle is a new value;
// the input is never mutated.
func (g *GoogleExchanger) Refresh(ctx context.Context, bundle token.TokenBundle) (token.TokenBundle, error) {
	if !bundle.Expired(time.Now()) {
		return bundle, nil
	}
	if bundle.RefreshToken == "" {
		return token.TokenBundle{}, fmt.Errorf("%w: bundle expired and no refresh token available", ErrRefreshFailed)
	}

	tok, err := g.config.TokenSource(ctx, &oauth2.Token{RefreshToken: bundle.RefreshToken}).Token()
	if err != nil {
		return token.TokenBundle{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	fresh := token.TokenBundle{
		AccessToken:  tok.AccessToken,
		RefreshToken: bundle.RefreshToken,
		IDToken:      bundle.IDToken,
	}
	if tok.RefreshToken != "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		fresh.ExpiryDate = tok.Expiry.UnixMilli()
	}
	return fresh, nil
}

// TokenSource exposes the bundle's access token as a static source for the
// Classroom client.
func (g *GoogleExchanger) TokenSource(bundle token.TokenBundle) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bundle.AccessToken})
}
