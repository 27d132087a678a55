package api

import "net/http"

// extractUserID resolves the caller's user ID: an X-User-ID header (the
// normal path once an auth middleware populates it), else a user_id query
// parameter, else empty (handlers reject an empty user ID with 400).
func extractUserID(r *http.Request) string {
	if v := r.Header.Get("X-User-ID"); v != "" {
		return v
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		return v
	}
	return ""
}
