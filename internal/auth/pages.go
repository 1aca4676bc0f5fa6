// pages.go -- Minimal inline pages for the sign-in popup flow.
//
// These are deliberately static documents: anything request-specific is read
// client-side from the query string, so no user input is ever interpolated
// into markup.
package auth

import "net/http"

const signinPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Sign in</title></head>
<body>
  <h2>Sign in with Google</h2>
  <p>This add-on needs access to your Google Classroom account.</p>
  <button id="signin-btn">Sign in</button>
  <script>
    document.getElementById('signin-btn').onclick = function() {
      window.open('/oauth/login' + window.location.search, 'gc-signin',
        'width=500,height=650');
    };
  </script>
</body>
</html>
`

const closePopupPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Authentication Complete</title></head>
<body>
  <p>Authentication successful. You can close this window.</p>
  <script>
    var returnUrl = new URLSearchParams(window.location.search).get('returnUrl')
      || '/addon-discovery';
    if (window.opener) {
      window.opener.location.href = returnUrl;
    }
    window.close();
  </script>
</body>
</html>
`

const failedPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Authentication Failed</title></head>
<body>
  <h2>Authentication Failed</h2>
  <p>Please try again.</p>
  <button onclick="window.close()">Close</button>
</body>
</html>
`

const discoveryPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Add-on Discovery</title></head>
<body>
  <h2>You are signed in</h2>
  <p>Pick a resource from the Classroom attachment picker to continue.</p>
</body>
</html>
`

// SigninPage handles GET /signin.
func (h *Handler) SigninPage(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, signinPage)
}

// ClosePopupPage handles GET /closepopup. The opener (the classroom iframe)
// is navigated to returnUrl and the popup closes itself.
func (h *Handler) ClosePopupPage(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, closePopupPage)
}

// FailedPage handles GET /failed.
func (h *Handler) FailedPage(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, failedPage)
}

// DiscoveryPage handles GET /addon-discovery (behind the auth gate).
func (h *Handler) DiscoveryPage(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, discoveryPage)
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
