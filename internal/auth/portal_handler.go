// portal_handler.go -- Portal API: token issuance and class/offering reads.
//
// The issuance pipeline: refresh the provider bundle if needed, resolve the
// user's course role with a fresh roster probe, assemble role-specific
// claims, sign. Roles are never cached between issuances.
package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viaduct-auth/viaduct/internal/classroom"
	"github.com/viaduct-auth/viaduct/internal/hashutil"
	"github.com/viaduct-auth/viaduct/internal/token"
)

// supportedFirebaseApp is the only firebase_app selector this deployment
// signs tokens for.
const supportedFirebaseApp = "report-service-dev"

// defaultClassSentinel stands in for the course id in hashes and return URLs
// when a session has no course context.
const defaultClassSentinel = "default"

type tokenResponse struct {
	Token string `json:"token"`
}

// Profile handles GET /profile -- echoes the authenticated identity.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := AuthFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "Unauthorized.")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		User          token.Identity `json:"user"`
		Authenticated bool           `json:"authenticated"`
	}{claims.User, true})
}

// PortalJWT handles GET /api/v1/jwt/portal -- issues the 1-hour portal token
// for the cookie-authenticated user. courseId comes from the query string,
// falling back to the addon context captured at sign-in.
func (h *Handler) PortalJWT(w http.ResponseWriter, r *http.Request) {
	claims, ok := AuthFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "Unauthorized.")
		return
	}

	courseID := r.URL.Query().Get("courseId")
	if courseID == "" {
		courseID = claims.Addon.CourseID
	}

	portal := h.issuePortalClaims(r.Context(), claims, courseID)
	signed, err := h.Codec.SignLocal(portal)
	if err != nil {
		InternalServerError(w, r, err)
		return
	}

	logInfo(r, "portal token issued", "user_type", portal.UserType, "course_id", courseID)
	writeJSON(w, http.StatusCreated, tokenResponse{Token: signed})
}

// issuePortalClaims builds PortalClaims for the user, embedding the full
// auth claims under googleClassroomToken so API handlers can reach the
// provider tokens without a second cookie read.
func (h *Handler) issuePortalClaims(ctx context.Context, auth *token.AuthClaims, courseID string) *token.PortalClaims {
	sub := auth.User.Sub
	portal := &token.PortalClaims{
		UID:              sub,
		Domain:           h.PublicURL + "/",
		UserType:         string(classroom.RoleUser),
		UserID:           accountsUserID(sub),
		ClassroomToken:   *auth,
		RegisteredClaims: token.NewRegistered(portalTokenTTL),
	}

	if courseID == "" {
		return portal
	}

	switch role := h.resolveCourseRole(ctx, auth, courseID); role {
	case classroom.RoleTeacher:
		portal.UserType = string(role)
		portal.TeacherID = sub
	case classroom.RoleLearner:
		portal.UserType = string(role)
		portal.LearnerID = sub
		portal.ClassInfoURL = h.PublicURL + "/api/v1/classes/" + courseID
		portal.OfferingID = "gc-" + courseID
	}
	return portal
}

// FirebaseJWT handles GET /api/v1/jwt/firebase -- issues the 1-hour RS256
// token the report service verifies. Both firebase_app and class_hash are
// validated before any token work.
func (h *Handler) FirebaseJWT(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("firebase_app") == "" || q.Get("class_hash") == "" {
		BadRequest(w, r, "Missing required query parameters: firebase_app and class_hash.")
		return
	}
	if q.Get("firebase_app") != supportedFirebaseApp {
		BadRequest(w, r, `Invalid firebase_app. Only "report-service-dev" is supported.`)
		return
	}

	portal, ok := PortalFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "Unauthorized.")
		return
	}

	courseID := q.Get("courseId")
	if courseID == "" {
		courseID = portal.ClassroomToken.Addon.CourseID
	}

	claims := h.issueFirebaseClaims(r.Context(), portal, courseID)
	signed, err := h.Codec.SignFirebase(claims)
	if err != nil {
		InternalServerError(w, r, err)
		return
	}

	logInfo(r, "firebase token issued", "user_type", claims.Claims.UserType, "course_id", courseID)
	writeJSON(w, http.StatusOK, tokenResponse{Token: signed})
}

// issueFirebaseClaims builds the report-service claim set from portal
// claims, re-resolving the course role (roster membership may have changed
// since the portal token was minted).
func (h *Handler) issueFirebaseClaims(ctx context.Context, portal *token.PortalClaims, courseID string) *token.FirebaseClaims {
	sub := portal.ClassroomToken.User.Sub
	userID := accountsUserID(sub)

	hashSource := courseID
	if hashSource == "" {
		hashSource = defaultClassSentinel
	}
	classHash := hashutil.ClassHash(hashSource)

	claims := &token.FirebaseClaims{
		Claims: token.FirebaseSubClaims{
			PlatformID:     classroomBaseURL,
			PlatformUserID: sub,
			UserID:         userID,
			UserType:       string(classroom.RoleUser),
		},
		UID:       hashutil.UIDHash(userID),
		ReturnURL: classroomBaseURL + "/c/" + hashSource,
	}

	if courseID == "" {
		return claims
	}

	switch role := h.resolveCourseRole(ctx, &portal.ClassroomToken, courseID); role {
	case classroom.RoleTeacher:
		claims.Claims.UserType = string(role)
		claims.Claims.ClassHash = classHash
	case classroom.RoleLearner:
		claims.Claims.UserType = string(role)
		claims.Claims.ClassHash = classHash
		claims.Claims.OfferingID = "gc-" + courseID
	}
	return claims
}

// rosterEntry is one element of the class-info roster arrays.
type rosterEntry struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type classInfoResponse struct {
	Name                 string        `json:"name"`
	ClassHash            string        `json:"class_hash"`
	Students             []rosterEntry `json:"students"`
	Teachers             []rosterEntry `json:"teachers"`
	ExternalClassReports []any         `json:"external_class_reports"`
}

// ClassInfo handles GET /api/v1/classes/{courseId} -- course name plus the
// full teacher and student rosters, authorized as the portal token's user.
func (h *Handler) ClassInfo(w http.ResponseWriter, r *http.Request) {
	portal, ok := PortalFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "Unauthorized.")
		return
	}
	courseID := chi.URLParam(r, "courseId")

	roster, err := h.rosterFor(r.Context(), portal.ClassroomToken.Tokens)
	if err != nil {
		InternalServerError(w, r, err)
		return
	}

	course, err := roster.Course(r.Context(), courseID)
	if err != nil {
		InternalServerError(w, r, err)
		return
	}
	teachers, err := roster.Teachers(r.Context(), courseID)
	if err != nil {
		InternalServerError(w, r, err)
		return
	}
	students, err := roster.Students(r.Context(), courseID)
	if err != nil {
		InternalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, classInfoResponse{
		Name:                 course.Name,
		ClassHash:            hashutil.ClassHash(courseID),
		Students:             rosterEntries(students),
		Teachers:             rosterEntries(teachers),
		ExternalClassReports: []any{},
	})
}

func rosterEntries(people []classroom.Person) []rosterEntry {
	entries := make([]rosterEntry, 0, len(people))
	for _, p := range people {
		entries = append(entries, rosterEntry{
			ID:        accountsUserID(p.UserID),
			FirstName: p.GivenName,
			LastName:  p.FamilyName,
		})
	}
	return entries
}

type offeringResponse struct {
	ID          string  `json:"id"`
	ActivityURL string  `json:"activity_url"`
	RubricURL   *string `json:"rubric_url"`
	Locked      bool    `json:"locked"`
}

// OfferingInfo handles GET /api/v1/offerings/{id}. Offerings map one-to-one
// onto courses; Classroom has no rubric URLs and no locking.
func (h *Handler) OfferingInfo(w http.ResponseWriter, r *http.Request) {
	if _, ok := PortalFromContext(r.Context()); !ok {
		Unauthorized(w, r, "Unauthorized.")
		return
	}
	id := chi.URLParam(r, "id")

	writeJSON(w, http.StatusOK, offeringResponse{
		ID:          "gc-" + id,
		ActivityURL: classroomBaseURL + "/c/" + id,
		RubricURL:   nil,
		Locked:      false,
	})
}
