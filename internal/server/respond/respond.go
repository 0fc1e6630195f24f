// Package respond writes JSON responses and maps application errors to
// HTTP statuses. Handlers never set status codes from error text
// themselves; classification lives in apperr.
package respond

import (
	"encoding/json"
	"log"
	"net/http"

	"user-session-api/internal/apperr"
)

// errorBody is the uniform error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v as a JSON body with the given status. Encoding failures
// are logged; by then the status line is already on the wire.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("respond: encode body: %v", err)
	}
}

// Err maps err to its HTTP status and writes the error envelope.
// Unclassified errors become a generic 500; their detail goes to the log,
// never to the client.
func Err(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("respond: internal error: %v", err)
		msg = "internal server error"
	}
	JSON(w, status, errorBody{Error: msg})
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
