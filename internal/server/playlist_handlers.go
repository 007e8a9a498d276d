package server

import (
	"net/http"
	"strings"

	"localify/pkg/models"
)

// handleGetPlaylists returns all playlists as JSON.
func (ms *MusicServer) handleGetPlaylists(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	playlists := ms.lib.Playlists()
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	ms.respondJSON(w, playlists)
}

// handleCreatePlaylist creates a new playlist (POST json name).
func (ms *MusicServer) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	req.Name = sanitizeInput(req.Name)
	if verr := ms.validatePlaylistName(req.Name); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	playlist := ms.lib.CreatePlaylist(req.Name)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, playlist)
}

// playlistIDFromPath extracts the playlist ID segment from /api/playlists/{id}/...
func playlistIDFromPath(path string) (string, bool) {
	pathParts := strings.Split(path, "/")
	if len(pathParts) < 4 || pathParts[3] == "" {
		return "", false
	}
	return pathParts[3], true
}

// handleGetPlaylist returns a single playlist, including the virtual liked
// songs playlist.
func (ms *MusicServer) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := playlistIDFromPath(r.URL.Path)
	if !ok {
		http.Error(w, "Invalid playlist ID", http.StatusBadRequest)
		return
	}

	playlist, found := ms.lib.GetPlaylist(playlistID)
	if !found {
		ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, playlist)
}

// handleGetPlaylistSongs returns the songs contained in a playlist, in
// playlist order.
func (ms *MusicServer) handleGetPlaylistSongs(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := playlistIDFromPath(r.URL.Path)
	if !ok {
		http.Error(w, "Invalid playlist ID", http.StatusBadRequest)
		return
	}

	playlist, found := ms.lib.GetPlaylist(playlistID)
	if !found {
		ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
		return
	}

	songs := ms.lib.PlaylistSongs(playlist)
	if songs == nil {
		songs = []models.Song{}
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, songs)
}

// handleAddSongToPlaylist appends a song to a playlist (POST json songId).
func (ms *MusicServer) handleAddSongToPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := playlistIDFromPath(r.URL.Path)
	if !ok {
		http.Error(w, "Invalid playlist ID", http.StatusBadRequest)
		return
	}

	var req struct {
		SongID string `json:"songId"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.SongID == "" {
		http.Error(w, "Song ID is required", http.StatusBadRequest)
		return
	}

	if _, found := ms.lib.GetSong(req.SongID); !found {
		ms.respondWithError(w, r, http.StatusNotFound, "Song not found", nil)
		return
	}

	if !ms.lib.AddSongToPlaylist(playlistID, req.SongID) {
		ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Song added to playlist"})
}

// handleDeletePlaylist deletes a playlist (DELETE).
func (ms *MusicServer) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := playlistIDFromPath(r.URL.Path)
	if !ok {
		http.Error(w, "Invalid playlist ID", http.StatusBadRequest)
		return
	}

	if !ms.lib.DeletePlaylist(playlistID) {
		ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Playlist deleted"})
}
