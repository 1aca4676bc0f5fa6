// fakes.go -- Hand-rolled fakes for the exchanger and roster capabilities.
//
// Kept dependency-free so every package's tests can share them.
package testutil

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/url"
	"testing"

	"golang.org/x/oauth2"

	"github.com/viaduct-auth/viaduct/internal/classroom"
	"github.com/viaduct-auth/viaduct/internal/token"
)

// NewTestCodec builds a token.Codec with the given local secret and a
// throwaway RSA key. Returns the key so tests can verify RS256 output.
func NewTestCodec(t *testing.T, secret, firebaseAccount string) (*token.Codec, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating rsa key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	codec, err := token.NewCodec(secret, firebaseAccount, string(pemBytes))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec, key
}

// FakeExchanger is a scripted oauth.Exchanger.
type FakeExchanger struct {
	ConsentURL  string
	Identity    token.Identity
	Bundle      token.TokenBundle
	ExchangeErr error

	// RefreshErr fails Refresh; Refreshed, when set, is returned instead of
	// the input bundle.
	RefreshErr error
	Refreshed  *token.TokenBundle

	ExchangeCalls int
	RefreshCalls  int
	LastCode      string
}

func (f *FakeExchanger) AuthCodeURL(state string) string {
	return f.ConsentURL + "?state=" + url.QueryEscape(state)
}

func (f *FakeExchanger) Exchange(ctx context.Context, code string) (token.Identity, token.TokenBundle, error) {
	f.ExchangeCalls++
	f.LastCode = code
	if f.ExchangeErr != nil {
		return token.Identity{}, token.TokenBundle{}, f.ExchangeErr
	}
	return f.Identity, f.Bundle, nil
}

func (f *FakeExchanger) Refresh(ctx context.Context, bundle token.TokenBundle) (token.TokenBundle, error) {
	f.RefreshCalls++
	if f.RefreshErr != nil {
		return token.TokenBundle{}, f.RefreshErr
	}
	if f.Refreshed != nil {
		return *f.Refreshed, nil
	}
	return bundle, nil
}

func (f *FakeExchanger) TokenSource(bundle token.TokenBundle) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bundle.AccessToken})
}

// FakeRoster is an in-memory classroom.Roster.
type FakeRoster struct {
	CourseNames      map[string]string
	TeachersByCourse map[string][]classroom.Person
	StudentsByCourse map[string][]classroom.Person

	ProbeErr  error
	CourseErr error

	TeacherProbes int
	StudentProbes int
}

func (f *FakeRoster) IsTeacher(ctx context.Context, courseID, userID string) (bool, error) {
	f.TeacherProbes++
	if f.ProbeErr != nil {
		return false, f.ProbeErr
	}
	return containsUser(f.TeachersByCourse[courseID], userID), nil
}

func (f *FakeRoster) IsStudent(ctx context.Context, courseID, userID string) (bool, error) {
	f.StudentProbes++
	if f.ProbeErr != nil {
		return false, f.ProbeErr
	}
	return containsUser(f.StudentsByCourse[courseID], userID), nil
}

func (f *FakeRoster) Course(ctx context.Context, courseID string) (*classroom.CourseInfo, error) {
	if f.CourseErr != nil {
		return nil, f.CourseErr
	}
	return &classroom.CourseInfo{ID: courseID, Name: f.CourseNames[courseID]}, nil
}

func (f *FakeRoster) Teachers(ctx context.Context, courseID string) ([]classroom.Person, error) {
	return f.TeachersByCourse[courseID], nil
}

func (f *FakeRoster) Students(ctx context.Context, courseID string) ([]classroom.Person, error) {
	return f.StudentsByCourse[courseID], nil
}

func containsUser(people []classroom.Person, userID string) bool {
	for _, p := range people {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// RosterFactoryStub satisfies classroom.RosterFactory via its New method and
// records how many rosters were built.
type RosterFactoryStub struct {
	Roster classroom.Roster
	Err    error
	Calls  int
}

func (s *RosterFactoryStub) New(ctx context.Context, src oauth2.TokenSource) (classroom.Roster, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Roster, nil
}
