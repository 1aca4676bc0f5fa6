// roster.go -- Roster capability interfaces and shared types.
package classroom

import (
	"context"

	"golang.org/x/oauth2"
)

// RosterProbe answers membership questions against the classroom provider.
// A (false, nil) result means the provider positively reported non-membership
// (not found / not permitted); a non-nil error means the probe itself failed.
type RosterProbe interface {
	IsTeacher(ctx context.Context, courseID, userID string) (bool, error)
	IsStudent(ctx context.Context, courseID, userID string) (bool, error)
}

// Roster extends the probe with course and enrollment reads used by the
// class-info API.
type Roster interface {
	RosterProbe

	Course(ctx context.Context, courseID string) (*CourseInfo, error)
	Teachers(ctx context.Context, courseID string) ([]Person, error)
	Students(ctx context.Context, courseID string) ([]Person, error)
}

// CourseInfo is the subset of course metadata this service exposes.
type CourseInfo struct {
	ID   string
	Name string
}

// Person is one roster entry.
type Person struct {
	UserID     string
	GivenName  string
	FamilyName string
}

// RosterFactory builds a Roster authorized as a specific user. Handlers call
// it per request with a token source backed by that request's credentials --
// there is no shared roster client.
type RosterFactory func(ctx context.Context, src oauth2.TokenSource) (Roster, error)
