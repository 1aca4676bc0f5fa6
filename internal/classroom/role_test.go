// role_test.go

// unit tests for ResolveRole probe ordering and error handling.
package classroom

import (
	"context"
	"errors"
	"testing"
)

// countingProbe is a configurable RosterProbe that records call counts.
type countingProbe struct {
	teacher     bool
	teacherErr  error
	student     bool
	studentErr  error
	teacherGets int
	studentGets int
}

func (p *countingProbe) IsTeacher(ctx context.Context, courseID, userID string) (bool, error) {
	p.teacherGets++
	return p.teacher, p.teacherErr
}

func (p *countingProbe) IsStudent(ctx context.Context, courseID, userID string) (bool, error) {
	p.studentGets++
	return p.student, p.studentErr
}

func TestResolveRole(t *testing.T) {
	ctx := context.Background()

	t.Run("teacher membership wins regardless of student probe", func(t *testing.T) {
		p := &countingProbe{teacher: true, student: true}
		if got := ResolveRole(ctx, p, "C1", "u1"); got != RoleTeacher {
			t.Errorf("expected teacher, got %s", got)
		}
		if p.studentGets != 0 {
			t.Errorf("student probe should not run after a teacher hit, ran %d times", p.studentGets)
		}
	})

	t.Run("student membership yields learner", func(t *testing.T) {
		p := &countingProbe{student: true}
		if got := ResolveRole(ctx, p, "C1", "u1"); got != RoleLearner {
			t.Errorf("expected learner, got %s", got)
		}
		if p.teacherGets != 1 || p.studentGets != 1 {
			t.Errorf("expected one probe each, got teacher=%d student=%d", p.teacherGets, p.studentGets)
		}
	})

	t.Run("no membership yields user", func(t *testing.T) {
		p := &countingProbe{}
		if got := ResolveRole(ctx, p, "C1", "u1"); got != RoleUser {
			t.Errorf("expected user, got %s", got)
		}
	})

	t.Run("probe errors are swallowed as non-membership", func(t *testing.T) {
		p := &countingProbe{
			teacherErr: errors.New("network down"),
			studentErr: errors.New("network down"),
		}
		if got := ResolveRole(ctx, p, "C1", "u1"); got != RoleUser {
			t.Errorf("expected user on probe failure, got %s", got)
		}
	})

	t.Run("teacher probe error still allows learner result", func(t *testing.T) {
		p := &countingProbe{teacherErr: errors.New("boom"), student: true}
		if got := ResolveRole(ctx, p, "C1", "u1"); got != RoleLearner {
			t.Errorf("expected learner, got %s", got)
		}
	})

	t.Run("empty courseID returns user without probing", func(t *testing.T) {
		p := &countingProbe{teacher: true, student: true}
		if got := ResolveRole(ctx, p, "", "u1"); got != RoleUser {
			t.Errorf("expected user, got %s", got)
		}
		if p.teacherGets != 0 || p.studentGets != 0 {
			t.Errorf("expected zero probes, got teacher=%d student=%d", p.teacherGets, p.studentGets)
		}
	})
}
