// Package response writes JSON bodies in the shapes the API clients expect.
//
// Successful reads return the resource itself. Errors and acknowledgements
// use a {success, message} envelope.
package response

import (
	"encoding/json"
	"net/http"
)

type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Message sends {"success":true,"message":msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Success: true, Message: msg})
}

// Token sends a successful login response.
func Token(w http.ResponseWriter, msg, token string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: msg, Token: token})
}

// Error sends {"success":false,"message":msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Message: msg})
}

// ValidationError sends a 422 with field-level messages.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, Envelope{Message: "Validation failed", Errors: errs})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Unauthorized(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "Unauthorized"
	}
	Error(w, http.StatusUnauthorized, msg)
}

func Forbidden(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "Forbidden"
	}
	Error(w, http.StatusForbidden, msg)
}
