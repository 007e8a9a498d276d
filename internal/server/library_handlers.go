package server

import (
	"net/http"
	"strings"

	"localify/pkg/models"
)

// handleGetAlbums returns all albums derived from the library.
func (ms *MusicServer) handleGetAlbums(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	albums := ms.lib.Albums()
	if albums == nil {
		albums = []models.Album{}
	}
	ms.respondJSON(w, albums)
}

// handleGetAlbum returns one album by its ID.
func (ms *MusicServer) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 4 || pathParts[3] == "" {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	album, ok := ms.lib.GetAlbum(pathParts[3])
	if !ok {
		ms.respondWithError(w, r, http.StatusNotFound, "Album not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, album)
}

// handleGetArtists returns all artists derived from the library.
func (ms *MusicServer) handleGetArtists(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	artists := ms.lib.Artists()
	if artists == nil {
		artists = []models.Artist{}
	}
	ms.respondJSON(w, artists)
}

// handleGetArtist returns one artist by name.
func (ms *MusicServer) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 4 || pathParts[3] == "" {
		http.Error(w, "Invalid artist name", http.StatusBadRequest)
		return
	}

	artist, ok := ms.lib.GetArtist(pathParts[3])
	if !ok {
		ms.respondWithError(w, r, http.StatusNotFound, "Artist not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, artist)
}

// handleGetLikes returns the liked song ID set.
func (ms *MusicServer) handleGetLikes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.lib.LikedSongs())
}

// handleToggleLike flips the liked flag for a song.
func (ms *MusicServer) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
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

	ms.lib.ToggleLike(req.SongID)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.lib.LikedSongs())
}

// handleGetPins returns the pinned item ID set.
func (ms *MusicServer) handleGetPins(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.lib.PinnedItems())
}

// handleTogglePin flips the pinned flag for an item.
func (ms *MusicServer) handleTogglePin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ItemID string `json:"itemId"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ItemID == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	ms.lib.TogglePin(req.ItemID)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.lib.PinnedItems())
}

// handleGetRecents returns recently interacted items, newest first.
func (ms *MusicServer) handleGetRecents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	recents := ms.lib.RecentItems()
	if recents == nil {
		recents = []models.RecentItem{}
	}
	ms.respondJSON(w, recents)
}

// handleGetSmartPlaylists returns the generated smart playlist set. Results
// are cached briefly so rapid refreshes see a stable shuffle.
func (ms *MusicServer) handleGetSmartPlaylists(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if playlists, ok := ms.smartCache.GetPlaylists("current"); ok {
		ms.respondJSON(w, playlists)
		return
	}

	playlists := ms.generator.Generate()
	if playlists == nil {
		playlists = []models.SmartPlaylist{}
	}
	ms.smartCache.SetPlaylists("current", playlists)
	ms.respondJSON(w, playlists)
}

// handleGetAIStatus reports whether AI features are enabled.
func (ms *MusicServer) handleGetAIStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]bool{"enabled": ms.lib.AIEnabled()})
}

// handleToggleAI flips the AI feature flag.
func (ms *MusicServer) handleToggleAI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enabled := ms.lib.ToggleAI()
	ms.smartCache.Clear()

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]bool{"enabled": enabled})
}
