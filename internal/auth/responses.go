// responses.go -- Package-wide HTTP response helpers.
//
// Every error body uses the shape API consumers expect:
// {"status": <code>, "error": "<label>", "details": {"message": "<message>"}}.
package auth

import (
	"encoding/json"
	"net/http"
)

type errorDetails struct {
	Message string `json:"message"`
}

type errorBody struct {
	Status  int          `json:"status"`
	Error   string       `json:"error"`
	Details errorDetails `json:"details"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the structured error body.
func writeError(w http.ResponseWriter, status int, label, message string) {
	writeJSON(w, status, errorBody{
		Status:  status,
		Error:   label,
		Details: errorDetails{Message: message},
	})
}

// BadRequest returns a 400 response naming the failed validation.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, http.StatusBadRequest, "Bad Request", message)
}

// Unauthorized returns a 401 response.
func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, http.StatusUnauthorized, "Unauthorized", message)
}

// Forbidden returns a 403 response.
func Forbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, "Forbidden", message)
}

// NotFound returns a 404 response.
func NotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, "Not Found", message)
}

// InternalServerError logs the error and returns a generic 500 response.
// Never exposes internal error details to prevent information leakage.
func InternalServerError(w http.ResponseWriter, r *http.Request, err error) {
	logError(r, "internal server error", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal Server Error", "internal server error")
}
