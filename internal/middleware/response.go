package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string    `json:"error"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorBody with a fixed category label.
func WriteError(w http.ResponseWriter, status int, label, details string) {
	_ = WriteJSON(w, status, ErrorBody{
		Error:     label,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}
