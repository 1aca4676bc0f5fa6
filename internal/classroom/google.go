// google.go -- Roster implementation backed by the Google Classroom API.
package classroom

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	classroomapi "google.golang.org/api/classroom/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// rosterPageSize keeps enrollment listing to a single round trip for typical
// class sizes; larger courses page transparently.
const rosterPageSize = 1000

// GoogleRoster implements Roster against the Classroom v1 API, authorized as
// the end user whose token source it was constructed with.
type GoogleRoster struct {
	svc *classroomapi.Service
}

// NewGoogleRoster builds a per-request Classroom client from the user's
// token source. Satisfies RosterFactory.
func NewGoogleRoster(ctx context.Context, src oauth2.TokenSource) (Roster, error) {
	svc, err := classroomapi.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("building classroom client: %w", err)
	}
	return &GoogleRoster{svc: svc}, nil
}

// IsTeacher reports whether userID is on the course's teacher roster.
// 404 and 403 from the API mean "not a member you can see", not a failure.
func (g *GoogleRoster) IsTeacher(ctx context.Context, courseID, userID string) (bool, error) {
	_, err := g.svc.Courses.Teachers.Get(courseID, userID).Context(ctx).Do()
	return membership(err)
}

// IsStudent reports whether userID is on the course's student roster.
func (g *GoogleRoster) IsStudent(ctx context.Context, courseID, userID string) (bool, error) {
	_, err := g.svc.Courses.Students.Get(courseID, userID).Context(ctx).Do()
	return membership(err)
}

// Course fetches course metadata.
func (g *GoogleRoster) Course(ctx context.Context, courseID string) (*CourseInfo, error) {
	course, err := g.svc.Courses.Get(courseID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching course %s: %w", courseID, err)
	}
	return &CourseInfo{ID: course.Id, Name: course.Name}, nil
}

// Teachers lists the course's teacher roster, following pagination.
func (g *GoogleRoster) Teachers(ctx context.Context, courseID string) ([]Person, error) {
	var people []Person
	pageToken := ""
	for {
		resp, err := g.svc.Courses.Teachers.List(courseID).
			PageSize(rosterPageSize).PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("listing teachers for course %s: %w", courseID, err)
		}
		for _, t := range resp.Teachers {
			people = append(people, person(t.UserId, t.Profile))
		}
		if resp.NextPageToken == "" {
			return people, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Students lists the course's student roster, following pagination.
func (g *GoogleRoster) Students(ctx context.Context, courseID string) ([]Person, error) {
	var people []Person
	pageToken := ""
	for {
		resp, err := g.svc.Courses.Students.List(courseID).
			PageSize(rosterPageSize).PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("listing students for course %s: %w", courseID, err)
		}
		for _, s := range resp.Students {
			people = append(people, person(s.UserId, s.Profile))
		}
		if resp.NextPageToken == "" {
			return people, nil
		}
		pageToken = resp.NextPageToken
	}
}

// membership maps a membership-get result onto (isMember, err). The API
// answers "no" with 404 for unknown members and 403 when the caller cannot
// see the course; both are negative answers, not probe failures.
func membership(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == 404 || gerr.Code == 403) {
		return false, nil
	}
	return false, err
}

func person(userID string, profile *classroomapi.UserProfile) Person {
	p := Person{UserID: userID}
	if profile != nil && profile.Name != nil {
		p.GivenName = profile.Name.GivenName
		p.FamilyName = profile.Name.FamilyName
	}
	return p
}
