// main_test.go
//
// Smoke tests: chi wiring via httptest.NewServer with fake exchanger and
// roster. Catches middleware ordering, route grouping, and real HTTP
// cookie/header behavior that httptest.NewRecorder cannot exercise.

package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/viaduct-auth/viaduct/internal/auth"
	"github.com/viaduct-auth/viaduct/internal/classroom"
	"github.com/viaduct-auth/viaduct/internal/testutil"
	"github.com/viaduct-auth/viaduct/internal/token"
)

// newSmokeServer starts a test server whose handler is wired with fakes:
// the exchanger always yields smoke-user, the roster has smoke-user as a
// student of course C1.
func newSmokeServer(t *testing.T) *httptest.Server {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating rsa key: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	codec, err := token.NewCodec("smoke-secret", "smoke@project.iam.gserviceaccount.com", string(keyPEM))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	exchanger := &testutil.FakeExchanger{
		ConsentURL: "https://accounts.google.com/o/oauth2/v2/auth",
		Identity: token.Identity{
			Sub:         "smoke-user",
			Email:       "smoke@example.com",
			DisplayName: "Smoke User",
		},
		Bundle: token.TokenBundle{AccessToken: "smoke-access", RefreshToken: "smoke-refresh"},
	}
	stub := &testutil.RosterFactoryStub{
		Roster: &testutil.FakeRoster{
			CourseNames: map[string]string{"C1": "Smoke Course"},
			StudentsByCourse: map[string][]classroom.Person{
				"C1": {{UserID: "smoke-user", GivenName: "Smoke", FamilyName: "User"}},
			},
		},
	}

	h := &auth.Handler{
		Codec:     codec,
		Exchanger: exchanger,
		NewRoster: stub.New,
		PublicURL: "https://bridge.example.com",
		APBaseURL: "https://activity-player.example.com",
		AuthTTL:   168 * time.Hour,
	}

	srv := httptest.NewServer(buildRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

// noRedirect returns a client that surfaces 3xx responses instead of
// following them.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestSmokeHealthAndRouting(t *testing.T) {
	srv := newSmokeServer(t)
	client := noRedirect()

	t.Run("health", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/health")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if strings.TrimSpace(string(body)) != `{"status":"ok"}` {
			t.Errorf("unexpected body %q", body)
		}
	})

	t.Run("root redirects to addon discovery", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/addon-discovery" {
			t.Fatalf("expected 302 to /addon-discovery, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
		}
	})

	t.Run("unknown route returns structured 404", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/nope")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
		var body struct {
			Status int    `json:"status"`
			Error  string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decoding 404 body: %v", err)
		}
		if body.Status != http.StatusNotFound || body.Error != "Not Found" {
			t.Errorf("unexpected 404 body %+v", body)
		}
	})

	t.Run("protected page without cookie redirects to signin", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/profile")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected 302, got %d", resp.StatusCode)
		}
		if !strings.HasPrefix(resp.Header.Get("Location"), "/signin?") {
			t.Errorf("unexpected redirect %q", resp.Header.Get("Location"))
		}
	})

	t.Run("portal API without bearer token is a 401", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/classes/C1")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})
}

// TestSmokeSignInFlow drives the full happy path over real HTTP: consent
// redirect, callback, cookie-authenticated portal token issuance, then
// bearer-authenticated class info. The Secure cookie is carried by hand
// because the test server speaks plain HTTP.
func TestSmokeSignInFlow(t *testing.T) {
	srv := newSmokeServer(t)
	client := noRedirect()

	// Step 1: login redirect carries a signed state parameter.
	resp, err := client.Get(srv.URL + "/oauth/login?returnUrl=%2Fprofile&courseId=C1")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("login: expected 302, got %d", resp.StatusCode)
	}
	consent, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parsing consent location: %v", err)
	}
	state := consent.Query().Get("state")
	if state == "" {
		t.Fatal("login redirect carries no state")
	}

	// Step 2: callback mints the gc-auth cookie.
	resp, err = client.Get(srv.URL + "/oauth/callback?code=smoke-code&state=" + url.QueryEscape(state))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("callback: expected 302, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Location"), "/closepopup?") {
		t.Fatalf("callback: unexpected redirect %q", resp.Header.Get("Location"))
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.AuthCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("callback: no gc-auth cookie set")
	}

	// Step 3: cookie-authenticated profile.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/profile", nil)
	req.AddCookie(cookie)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", resp.StatusCode)
	}
	var profile struct {
		User token.Identity `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		t.Fatalf("profile: decoding body: %v", err)
	}
	resp.Body.Close()
	if profile.User.Sub != "smoke-user" {
		t.Fatalf("profile: unexpected user %+v", profile.User)
	}

	// Step 4: portal token issuance.
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/v1/jwt/portal", nil)
	req.AddCookie(cookie)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("portal jwt: expected 201, got %d", resp.StatusCode)
	}
	var issued struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&issued); err != nil {
		t.Fatalf("portal jwt: decoding body: %v", err)
	}
	resp.Body.Close()
	if issued.Token == "" {
		t.Fatal("portal jwt: empty token")
	}

	// Step 5: bearer-authenticated class info, no cookie attached.
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/v1/classes/C1", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("class info: expected 200, got %d", resp.StatusCode)
	}
	var class struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&class); err != nil {
		t.Fatalf("class info: decoding body: %v", err)
	}
	if class.Name != "Smoke Course" {
		t.Fatalf("class info: unexpected name %q", class.Name)
	}
}
