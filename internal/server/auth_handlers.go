package server

import (
	"net/http"
	"strings"
)

// authMiddleware gates protected routes behind the access password session.
func (ms *MusicServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth check if authentication is disabled
		if !ms.authService.IsEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		// Allow access to auth-related endpoints and static assets
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// Check for valid session
		sessionManager := ms.authService.GetSessionManager()
		session, valid := sessionManager.GetSessionFromRequest(r)
		if !valid {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			ms.respondJSON(w, map[string]string{"error": "Authentication required"})
			return
		}

		// Refresh session on each request
		ms.authService.RefreshSession(session.ID)

		next.ServeHTTP(w, r)
	})
}

// isPublicPath checks if a path should be accessible without authentication
func isPublicPath(path string) bool {
	publicPaths := []string{
		"/api/auth/login",
		"/api/auth/logout",
		"/api/auth/status",
		"/static/",
		"/health",
	}

	for _, publicPath := range publicPaths {
		if strings.HasPrefix(path, publicPath) {
			return true
		}
	}

	return path == "/"
}

// handleLogin verifies the access password and sets a session cookie.
func (ms *MusicServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !ms.authService.IsEnabled() {
		ms.respondWithError(w, r, http.StatusBadRequest, "Authentication is disabled", nil)
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	session, err := ms.authService.Login(req.Password)
	if err != nil {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	ms.authService.GetSessionManager().SetSessionCookie(w, session)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Logged in"})
}

// handleLogout invalidates the session and clears the cookie.
func (ms *MusicServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !ms.authService.IsEnabled() {
		w.Header().Set("Content-Type", "application/json")
		ms.respondJSON(w, map[string]string{"message": "Logged out"})
		return
	}

	sessionManager := ms.authService.GetSessionManager()
	if session, ok := sessionManager.GetSessionFromRequest(r); ok {
		ms.authService.Logout(session.ID)
	}
	sessionManager.ClearSessionCookie(w)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Logged out"})
}

// handleAuthStatus reports whether auth is enabled and the session is valid.
func (ms *MusicServer) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := map[string]bool{
		"enabled":       ms.authService.IsEnabled(),
		"authenticated": true,
	}

	if ms.authService.IsEnabled() {
		_, valid := ms.authService.GetSessionManager().GetSessionFromRequest(r)
		status["authenticated"] = valid
	}

	ms.respondJSON(w, status)
}
