// role.go -- Course role resolution.
package classroom

import (
	"context"
	"log/slog"
)

// Role is a user's standing in a course. Never cached: roster membership can
// change, so every role-bearing token issuance re-probes the provider.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleLearner Role = "learner"
	RoleUser    Role = "user"
)

// ResolveRole determines the user's role in courseID by probing teacher
// membership first, then student membership. The teacher probe always wins:
// a user rostered as both (a provider anomaly) is classified teacher.
//
// Probe failures of any kind -- not-found, permission, transport -- are
// treated as non-membership and logged, never escalated. An empty courseID
// skips probing entirely and yields RoleUser; sessions without course
// context are a normal case.
func ResolveRole(ctx context.Context, probe RosterProbe, courseID, userID string) Role {
	if courseID == "" {
		return RoleUser
	}

	ok, err := probe.IsTeacher(ctx, courseID, userID)
	if err != nil {
		slog.Debug("teacher probe failed, treating as non-member",
			"course_id", courseID, "user_id", userID, "error", err)
	} else if ok {
		return RoleTeacher
	}

	ok, err = probe.IsStudent(ctx, courseID, userID)
	if err != nil {
		slog.Debug("student probe failed, treating as non-member",
			"course_id", courseID, "user_id", userID, "error", err)
	} else if ok {
		return RoleLearner
	}

	return RoleUser
}
