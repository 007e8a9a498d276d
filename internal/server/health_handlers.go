package server

import (
	"net/http"
	"os"
	"time"
)

// HealthStatus represents operational status for the /health endpoint.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Storage   string                 `json:"storage"`
	Songs     int                    `json:"songCount"`
	Albums    int                    `json:"albumCount"`
	Artists   int                    `json:"artistCount"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// handleHealthCheck returns basic liveness + dependency checks.
func (ms *MusicServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Storage:   "ok",
		Details:   make(map[string]interface{}),
	}

	// Check library path accessibility
	if err := ms.checkStorageHealth(); err != nil {
		health.Status = "unhealthy"
		health.Storage = "error"
		health.Details["storage_error"] = err.Error()
	}

	health.Songs = len(ms.lib.Songs())
	health.Albums = len(ms.lib.Albums())
	health.Artists = len(ms.lib.Artists())

	// Set appropriate HTTP status code
	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	ms.respondJSON(w, health)
}

// checkStorageHealth validates that the music library path is accessible.
func (ms *MusicServer) checkStorageHealth() error {
	_, err := os.Stat(ms.config.Music.LibraryPath)
	return err
}
