package api

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON error contract shared by every API handler.
// Message and UpstreamStatus are optional; Error is always present.
type ErrorBody struct {
	Error          string `json:"error"`
	Message        string `json:"message,omitempty"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
}

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError writes the standard error body.
func RespondError(w http.ResponseWriter, status int, errTitle, message string) {
	RespondJSON(w, status, ErrorBody{Error: errTitle, Message: message})
}

// RespondRaw writes pre-encoded JSON as-is with the given status.
func RespondRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
