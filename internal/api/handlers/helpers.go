// Handler helper functions.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// parseLimit extracts and clamps the limit query param.
func parseLimit(r *http.Request) int {
	limit := defaultRunsLimit
	if lim, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && lim > 0 {
		if lim > maxRunsLimit {
			lim = maxRunsLimit
		}
		limit = lim
	}
	return limit
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
