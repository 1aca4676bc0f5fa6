// codec.go -- Signing and verification for both token domains.
//
// The local domain (auth cookie, OAuth state, portal and launch tokens) uses
// a symmetric HS256 secret. The downstream-trust domain (firebase token for
// the report service) uses an RS256 service-account key. The two domains are
// never cross-used.
package token

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FirebaseAudience is the fixed audience the Identity Toolkit verifier
// expects on custom tokens.
const FirebaseAudience = "https://identitytoolkit.googleapis.com/google.identity.identitytoolkit.v1.IdentityToolkit"

// firebaseTTL is hard-coded: downstream tokens are always one hour, callers
// cannot extend them.
const firebaseTTL = time.Hour

// Verification failure kinds. Handlers collapse all of these to a generic
// 401 at the HTTP boundary; the distinction exists for logging and tests.
var (
	ErrExpired          = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrAlgorithm        = errors.New("unexpected token signing algorithm")
	ErrMalformed        = errors.New("token malformed")
)

// Codec signs and verifies every JWT this service handles. Key material is
// immutable after construction, so a single Codec is safe for concurrent use.
type Codec struct {
	secret          []byte
	firebaseKey     *rsa.PrivateKey
	firebaseAccount string
}

// NewCodec builds a Codec from the local HS256 secret and the firebase
// service-account identity (client email + PEM-encoded RSA private key).
func NewCodec(secret, firebaseAccount, firebaseKeyPEM string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("local signing secret is empty")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(firebaseKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parsing firebase private key: %w", err)
	}
	return &Codec{
		secret:          []byte(secret),
		firebaseKey:     key,
		firebaseAccount: firebaseAccount,
	}, nil
}

// SignLocal signs claims with the local HS256 secret. Callers stamp
// registered claims (expiry, jti) via NewRegistered before signing.
func (c *Codec) SignLocal(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing local token: %w", err)
	}
	return signed, nil
}

// VerifyAuth verifies and decodes a gc-auth cookie payload.
func (c *Codec) VerifyAuth(raw string) (*AuthClaims, error) {
	var claims AuthClaims
	if err := c.verifyLocal(raw, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// VerifyPortal verifies and decodes a portal bearer token.
func (c *Codec) VerifyPortal(raw string) (*PortalClaims, error) {
	var claims PortalClaims
	if err := c.verifyLocal(raw, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// VerifyState verifies and decodes the OAuth state parameter.
func (c *Codec) VerifyState(raw string) (*StateClaims, error) {
	var claims StateClaims
	if err := c.verifyLocal(raw, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// SignFirebase stamps the downstream-trust registered claims (issuer and
// subject are the service account, fixed audience, one-hour expiry) and
// signs with RS256.
func (c *Codec) SignFirebase(claims *FirebaseClaims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    c.firebaseAccount,
		Subject:   c.firebaseAccount,
		Audience:  jwt.ClaimStrings{FirebaseAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(firebaseTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.firebaseKey)
	if err != nil {
		return "", fmt.Errorf("signing firebase token: %w", err)
	}
	return signed, nil
}

// verifyLocal parses raw into claims, mapping library errors onto this
// package's sentinel kinds. The algorithm check runs in the keyfunc so a
// token re-signed under a different algorithm is rejected even when its
// signature would otherwise validate.
func (c *Codec) verifyLocal(raw string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(raw, claims, c.localKey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAlgorithm):
		return ErrAlgorithm
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func (c *Codec) localKey(t *jwt.Token) (any, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, ErrAlgorithm
	}
	return c.secret, nil
}
