// handler.go -- Handler wiring and shared issuance plumbing.
//
// Handler holds every injected dependency: the token codec, the OAuth
// exchanger, and the roster factory. main.go constructs one Handler per
// process; tests construct them with fakes. No package-level client state.
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/viaduct-auth/viaduct/internal/classroom"
	"github.com/viaduct-auth/viaduct/internal/oauth"
	"github.com/viaduct-auth/viaduct/internal/token"
)

const (
	// portalTokenTTL bounds how long a portal token stays valid. Short by
	// design: role claims inside it go stale as rosters change.
	portalTokenTTL = time.Hour

	// stateTTL bounds the OAuth round trip. Ten minutes matches how long a
	// consent screen is realistically left open.
	stateTTL = 10 * time.Minute

	// defaultReturnURL is where sign-in lands when no explicit return
	// target was requested.
	defaultReturnURL = "/addon-discovery"

	// classroomBaseURL is the platform identifier embedded in issued claims
	// and used to build course links.
	classroomBaseURL = "https://classroom.google.com"

	// accountsBaseURL prefixes provider subject ids to form fully-qualified
	// user ids.
	accountsBaseURL = "https://accounts.google.com"
)

// Handler carries the dependencies shared by all HTTP handlers and
// middleware in this package.
type Handler struct {
	Codec     *token.Codec
	Exchanger oauth.Exchanger
	NewRoster classroom.RosterFactory

	// PublicURL is the service base URL without trailing slash.
	PublicURL string
	// APBaseURL is the Activity Player launch target.
	APBaseURL string
	// AuthTTL is the gc-auth cookie lifetime.
	AuthTTL time.Duration
}

// accountsUserID builds the fully-qualified user id downstream services key on.
func accountsUserID(sub string) string {
	return accountsBaseURL + "/" + sub
}

// rosterFor builds a roster client authorized as the bundle's user,
// refreshing the bundle first when it has expired. Refresh failures
// propagate: a roster built on a dead token would misreport every probe.
func (h *Handler) rosterFor(ctx context.Context, bundle token.TokenBundle) (classroom.Roster, error) {
	fresh, err := h.Exchanger.Refresh(ctx, bundle)
	if err != nil {
		return nil, err
	}
	return h.NewRoster(ctx, h.Exchanger.TokenSource(fresh))
}

// resolveCourseRole resolves the user's role in courseID with a fresh
// roster probe. Any failure to even construct the probe (expired bundle
// with no refresh token, client setup) downgrades to RoleUser -- role
// resolution never aborts token issuance.
func (h *Handler) resolveCourseRole(ctx context.Context, auth *token.AuthClaims, courseID string) classroom.Role {
	roster, err := h.rosterFor(ctx, auth.Tokens)
	if err != nil {
		slog.Warn("roster unavailable for role resolution, defaulting to user",
			"course_id", courseID, "error", err)
		return classroom.RoleUser
	}
	return classroom.ResolveRole(ctx, roster, courseID, auth.User.Sub)
}
