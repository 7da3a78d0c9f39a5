package middleware

import (
	"encoding/json"
	"net/http"
)

// writeProblem writes an RFC 9457 problem body, matching what huma emits
// for handler errors.
func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
