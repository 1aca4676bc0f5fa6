// hash_test.go

// unit tests for class/uid digest derivation.
package hashutil

import (
	"regexp"
	"testing"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]+$`)

func TestClassHash(t *testing.T) {
	t.Run("known vector", func(t *testing.T) {
		// sha256("C1") = ab861dc170dc2e43224e45278d3d31a675b9ebc34c9b0f48c066ca1eeaed8ee6
		want := "ab861dc170dc2e43224e45278d3d31a675b9ebc34c9b0f48"
		if got := ClassHash("C1"); got != want {
			t.Errorf("ClassHash(C1): expected %s, got %s", want, got)
		}
	})

	t.Run("default sentinel vector", func(t *testing.T) {
		want := "37a8eec1ce19687d132fe29051dca629d164e2c4958ba141"
		if got := ClassHash("default"); got != want {
			t.Errorf("ClassHash(default): expected %s, got %s", want, got)
		}
	})

	t.Run("deterministic and 48 lowercase hex chars", func(t *testing.T) {
		a := ClassHash("course-42")
		b := ClassHash("course-42")
		if a != b {
			t.Errorf("not deterministic: %s != %s", a, b)
		}
		if len(a) != 48 {
			t.Errorf("length: expected 48, got %d", len(a))
		}
		if !hexRe.MatchString(a) {
			t.Errorf("not lowercase hex: %s", a)
		}
	})

	t.Run("distinct inputs yield distinct outputs", func(t *testing.T) {
		if ClassHash("course-1") == ClassHash("course-2") {
			t.Error("collision between course-1 and course-2")
		}
	})
}

func TestUIDHash(t *testing.T) {
	t.Run("known vector", func(t *testing.T) {
		// sha256("https://accounts.google.com/user-1") starts 2285bed3...
		want := "2285bed3148498d195932d1de78f83d0"
		if got := UIDHash("https://accounts.google.com/user-1"); got != want {
			t.Errorf("UIDHash: expected %s, got %s", want, got)
		}
	})

	t.Run("deterministic and 32 lowercase hex chars", func(t *testing.T) {
		a := UIDHash("https://accounts.google.com/sub-123")
		b := UIDHash("https://accounts.google.com/sub-123")
		if a != b {
			t.Errorf("not deterministic: %s != %s", a, b)
		}
		if len(a) != 32 {
			t.Errorf("length: expected 32, got %d", len(a))
		}
		if !hexRe.MatchString(a) {
			t.Errorf("not lowercase hex: %s", a)
		}
	})

	t.Run("distinct inputs yield distinct outputs", func(t *testing.T) {
		if UIDHash("https://accounts.google.com/a") == UIDHash("https://accounts.google.com/b") {
			t.Error("collision between distinct user ids")
		}
	})
}
