// claims.go -- Claim payloads for every JWT this service mints.
//
// Field names and JSON shapes are consumed by the Activity Player and the
// report service; treat them as wire contracts.
package token

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified Google identity captured once at OAuth callback
// time. It is embedded by value into every downstream token and never
// mutated afterwards.
type Identity struct {
	Sub          string `json:"sub"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PortraitURL  string `json:"portraitUrl"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// TokenBundle is the provider's authorization grant. A refresh produces a
// new bundle; the old one is discarded, never mutated in place.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	// ExpiryDate is epoch milliseconds. Zero means no known expiry, which is
	// treated as non-expiring for refresh decisions.
	ExpiryDate int64 `json:"expiry_date,omitempty"`
}

// Expired reports whether the bundle's access token has passed its expiry.
func (b TokenBundle) Expired(now time.Time) bool {
	return b.ExpiryDate != 0 && now.UnixMilli() >= b.ExpiryDate
}

// AddonContext carries the Google Classroom add-on launch parameters that
// describe which course/assignment a session originated from. Opaque
// passthrough: this service never interprets AddOnToken or LoginHint.
type AddonContext struct {
	CourseID   string `json:"courseId,omitempty"`
	ItemID     string `json:"itemId,omitempty"`
	ItemType   string `json:"itemType,omitempty"`
	AddOnToken string `json:"addOnToken,omitempty"`
	LoginHint  string `json:"login_hint,omitempty"`
}

// AuthClaims is the payload of the gc-auth cookie. Created at OAuth callback
// completion; re-issued with a fresh expiry whenever a protected request
// carries newer addon parameters.
type AuthClaims struct {
	User   Identity     `json:"user"`
	Tokens TokenBundle  `json:"tokens"`
	Addon  AddonContext `json:"addon"`
	jwt.RegisteredClaims
}

// Complete reports whether the claims carry the identity and token material
// every protected handler depends on.
func (c *AuthClaims) Complete() bool {
	return c.User.Sub != "" && c.Tokens.AccessToken != ""
}

// StateClaims rides the OAuth state parameter across the provider redirect.
// Signing it keeps the round trip stateless while still detecting tampering.
type StateClaims struct {
	ReturnURL string       `json:"returnUrl"`
	Addon     AddonContext `json:"addon"`
	jwt.RegisteredClaims
}

// PortalClaims is the payload of the portal token trusted by this service's
// own API routes. Derived from AuthClaims plus a freshly resolved role.
type PortalClaims struct {
	UID      string `json:"uid"`
	Domain   string `json:"domain"`
	UserType string `json:"user_type"`
	UserID   string `json:"user_id"`

	// Role-specific fields: TeacherID for teachers; LearnerID, ClassInfoURL
	// and OfferingID for learners.
	TeacherID    string `json:"teacher_id,omitempty"`
	LearnerID    string `json:"learner_id,omitempty"`
	ClassInfoURL string `json:"class_info_url,omitempty"`
	OfferingID   string `json:"offering_id,omitempty"`

	ClassroomToken AuthClaims `json:"googleClassroomToken"`
	jwt.RegisteredClaims
}

// FirebaseSubClaims is the nested claims object the report service reads.
type FirebaseSubClaims struct {
	PlatformID     string `json:"platform_id"`
	PlatformUserID string `json:"platform_user_id"`
	UserID         string `json:"user_id"`
	UserType       string `json:"user_type"`
	ClassHash      string `json:"class_hash,omitempty"`
	OfferingID     string `json:"offering_id,omitempty"`
}

// FirebaseClaims is the payload of the RS256 token handed to the report
// service. The only artifact verified outside this system's trust boundary.
type FirebaseClaims struct {
	Claims    FirebaseSubClaims `json:"claims"`
	UID       string            `json:"uid"`
	ReturnURL string            `json:"returnUrl"`
	jwt.RegisteredClaims
}

// LaunchClaims is the Activity Player launch token produced by the
// resource-launch flow.
type LaunchClaims struct {
	User            string          `json:"user"`
	UserType        string          `json:"user_type"`
	PlatformContext PlatformContext `json:"platformContext"`
	UserInfo        LaunchUserInfo  `json:"userInfo"`
	ClassroomToken  AuthClaims      `json:"googleClassroomToken"`
	jwt.RegisteredClaims
}

// PlatformContext identifies the course and resource a launch belongs to.
type PlatformContext struct {
	ContextID string      `json:"contextId"`
	Context   ContextRef  `json:"context"`
	Resource  ResourceRef `json:"resource"`
}

type ContextRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ResourceRef struct {
	ID string `json:"id"`
}

// LaunchUserInfo is the profile block the Activity Player displays.
type LaunchUserInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// NewRegistered stamps issued-at, expiry, and a fresh jti for a token minted
// now with the given lifetime.
func NewRegistered(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	rc := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if id, err := uuid.NewV7(); err == nil {
		rc.ID = id.String()
	}
	return rc
}
