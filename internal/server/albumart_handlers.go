package server

import (
	"net/http"
	"strings"
)

// handleCoverArt serves cover art images extracted from audio files.
func (ms *MusicServer) handleCoverArt(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 3 {
		http.Error(w, "Invalid cover art ID", http.StatusBadRequest)
		return
	}

	artID := pathParts[2]
	if artID == "" {
		http.Error(w, "Invalid cover art ID", http.StatusBadRequest)
		return
	}

	artData, exists := ms.artCache.GetArt(artID)
	if !exists {
		artData, exists = ms.extractor.GetCoverArt(artID)
		if !exists {
			http.Error(w, "Cover art not found", http.StatusNotFound)
			return
		}
		ms.artCache.SetArt(artID, artData)
	}

	contentType := ms.extractor.GetCoverArtMimeType(artData)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour

	w.Write(artData)
}
