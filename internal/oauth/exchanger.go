// exchanger.go -- OAuth code-exchange capability and shared error kinds.
package oauth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"

	"github.com/viaduct-auth/viaduct/internal/token"
)

// Exchange failure kinds. Unlike roster probes, provider failures here are
// never downgraded: they terminate the sign-in or issuance flow.
var (
	// ErrExchangeFailed: the provider rejected the authorization code
	// (expired, reused, or issued for a different redirect URI).
	ErrExchangeFailed = errors.New("oauth code exchange failed")

	// ErrIdentityVerification: the returned identity assertion was missing,
	// malformed, or failed audience/issuer/signature checks.
	ErrIdentityVerification = errors.New("identity verification failed")

	// ErrRefreshFailed: the bundle is expired and either carries no refresh
	// token or the provider rejected the refresh call.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// Exchanger drives the provider code flow and bundle refresh. There is one
// production implementation (GoogleExchanger); the interface exists so
// handlers can be tested without a live provider.
type Exchanger interface {
	// AuthCodeURL returns the provider consent page URL with the opaque
	// state parameter embedded.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a verified identity and the
	// provider token bundle.
	Exchange(ctx context.Context, code string) (token.Identity, token.TokenBundle, error)

	// Refresh returns a usable bundle: the input unchanged when it has not
	// expired, otherwise a new bundle obtained via the refresh token.
	Refresh(ctx context.Context, bundle token.TokenBundle) (token.TokenBundle, error)

	// TokenSource adapts a usable bundle for API clients. Callers must
	// Refresh first; the source does not refresh on its own.
	TokenSource(bundle token.TokenBundle) oauth2.TokenSource
}
