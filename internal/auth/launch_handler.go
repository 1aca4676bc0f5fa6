// launch_handler.go -- Activity Player resource launch.
//
// A launch resolves the user's course role, signs a launch token the portal
// API will accept back, and either redirects straight into the Activity
// Player (learners) or offers the teacher a view chooser.
package auth

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/viaduct-auth/viaduct/internal/classroom"
	"github.com/viaduct-auth/viaduct/internal/token"
)

// demoActivityURL is the activity launched by the ap-launch-demo resource.
const demoActivityURL = "https://authoring.lara.staging.concord.org/api/v1/activities/1416.json"

// answersSourceKey tells the Activity Player which platform the answers
// belong to.
const answersSourceKey = "classroom.google.com"

const teacherChooserPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Launch</title></head>
<body>
  <div class="button-row">
    <button onclick="window.location.assign('%s')">Preview</button>
    <button onclick="window.location.assign('%s')">Teacher Edition</button>
  </div>
</body>
</html>
`

// ResourceLaunch handles GET /resource-launch?resource -- routes to the
// handler for the named resource.
func (h *Handler) ResourceLaunch(w http.ResponseWriter, r *http.Request) {
	claims, ok := AuthFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "Unauthorized.")
		return
	}

	resource := r.URL.Query().Get("resource")
	switch resource {
	case "ap-launch-demo":
		h.launchActivityPlayer(w, r, claims, resource)
	default:
		NotFound(w, "Unknown resource: "+resource)
	}
}

// launchActivityPlayer resolves the role, signs the launch token, and routes
// learner/teacher to their Activity Player entry points. Users with no
// course standing are refused: the launch token would carry no usable role.
func (h *Handler) launchActivityPlayer(w http.ResponseWriter, r *http.Request, claims *token.AuthClaims, resource string) {
	courseID := claims.Addon.CourseID

	role := classroom.RoleUser
	if courseID != "" {
		role = h.resolveCourseRole(r.Context(), claims, courseID)
	}

	given, family, _ := strings.Cut(claims.User.DisplayName, " ")
	registered := token.NewRegistered(portalTokenTTL)
	registered.Issuer = classroomBaseURL
	launch := &token.LaunchClaims{
		User:     claims.User.Sub,
		UserType: string(role),
		PlatformContext: token.PlatformContext{
			ContextID: courseID,
			Context: token.ContextRef{
				ID:    courseID,
				Title: "Google Classroom Course " + courseID,
			},
			Resource: token.ResourceRef{ID: resource},
		},
		UserInfo: token.LaunchUserInfo{
			Name:       claims.User.DisplayName,
			Email:      claims.User.Email,
			GivenName:  given,
			FamilyName: family,
		},
		ClassroomToken:   *claims,
		RegisteredClaims: registered,
	}
	signed, err := h.Codec.SignLocal(launch)
	if err != nil {
		InternalServerError(w, r, err)
		return
	}

	apParams := url.Values{
		"activity":         {demoActivityURL},
		"domain":           {h.PublicURL + "/"},
		"token":            {signed},
		"answersSourceKey": {answersSourceKey},
	}
	apURL := h.APBaseURL + "?" + apParams.Encode()

	switch role {
	case classroom.RoleLearner:
		http.Redirect(w, r, apURL, http.StatusFound)

	case classroom.RoleTeacher:
		teParams := url.Values{}
		for k, v := range apParams {
			teParams[k] = v
		}
		teParams.Set("mode", "teacher-edition")
		teParams.Set("show_index", "true")
		teURL := h.APBaseURL + "?" + teParams.Encode()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, teacherChooserPage,
			template.HTMLEscapeString(apURL), template.HTMLEscapeString(teURL))

	default:
		Forbidden(w, "This tool is only available for learners and teachers.")
	}
}
