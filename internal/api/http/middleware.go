package httpapi

import (
	"net/http"
	"strings"
)

// sessionToken extracts the admin session token from the Authorization
// header (Bearer scheme) or the X-Admin-Token fallback.
func sessionToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-Admin-Token")
}

// isAdmin reports whether the request carries a valid admin session, without
// writing a response. Used where a route is public but some fields are not.
func (h *Handler) isAdmin(r *http.Request) bool {
	token := sessionToken(r)
	if token == "" {
		return false
	}
	_, err := h.Auth.Authenticate(r.Context(), token)
	return err == nil
}

// requireAdmin validates the caller's session against the session store.
// Every admin operation goes through here so a stale or forged token is
// rejected server side.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return false
	}
	if _, err := h.Auth.Authenticate(r.Context(), token); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
		return false
	}
	return true
}
