package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"localify/pkg/models"
)

// handleGetPlayerState returns the current player state
func (ms *MusicServer) handleGetPlayerState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.engine.State())
}

// handlePlaySong starts playback of a song, optionally with an explicit
// queue of song IDs.
func (ms *MusicServer) handlePlaySong(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SongID string   `json:"songId"`
		Queue  []string `json:"queue,omitempty"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	song, ok := ms.lib.GetSong(req.SongID)
	if !ok {
		ms.respondWithError(w, r, http.StatusNotFound, "Song not found", nil)
		return
	}

	ms.engine.PlaySong(song, ms.resolveQueue(req.Queue))

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.engine.State())
}

// resolveQueue maps song IDs to songs, dropping unknown IDs. Duplicate IDs
// stay duplicated.
func (ms *MusicServer) resolveQueue(ids []string) []models.Song {
	if len(ids) == 0 {
		return nil
	}
	queue := make([]models.Song, 0, len(ids))
	for _, id := range ids {
		if song, ok := ms.lib.GetSong(id); ok {
			queue = append(queue, song)
		}
	}
	return queue
}

// handleTogglePlay pauses or resumes playback
func (ms *MusicServer) handleTogglePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ms.engine.TogglePlay()

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.engine.State())
}

// handlePlayNext advances to the next song in the queue
func (ms *MusicServer) handlePlayNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ms.engine.PlayNext()

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.engine.State())
}

// handlePlayPrev restarts the current song or moves back in the queue
func (ms *MusicServer) handlePlayPrev(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ms.engine.PlayPrev()

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.engine.State())
}

// handleSeek moves the playback position
func (ms *MusicServer) handleSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Position float64 `json:"position"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Position < 0 {
		http.Error(w, "Position must not be negative", http.StatusBadRequest)
		return
	}

	ms.engine.Seek(req.Position)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.engine.State())
}

// handleSetVolume sets the playback volume
func (ms *MusicServer) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Volume float64 `json:"volume"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	ms.engine.SetVolume(req.Volume)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.engine.State())
}

// handleToggleShuffle flips shuffle mode
func (ms *MusicServer) handleToggleShuffle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ms.engine.ToggleShuffle()

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.engine.State())
}

// handleToggleRepeat cycles the repeat mode
func (ms *MusicServer) handleToggleRepeat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ms.engine.ToggleRepeat()

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.engine.State())
}

// handleQueue replaces the queue (POST) or removes one song from it (DELETE)
func (ms *MusicServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Queue []string `json:"queue"`
		}
		if err := decodeJSONBody(r, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		ms.engine.UpdateQueue(ms.resolveQueue(req.Queue))

	case http.MethodDelete:
		var req struct {
			SongID string `json:"songId"`
		}
		if err := decodeJSONBody(r, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		ms.engine.RemoveFromQueue(req.SongID)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.engine.State())
}

// handlePlayerEvents streams player state updates over SSE so clients can
// mirror the server-side player without polling.
func (ms *MusicServer) handlePlayerEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates := ms.engine.Subscribe()
	defer ms.engine.Unsubscribe(updates)

	writeState := func(state interface{}) bool {
		data, err := json.Marshal(state)
		if err != nil {
			ms.logger.WithError(err).Error("Error encoding player state event")
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	// Send the current state immediately so new clients sync up.
	if !writeState(ms.engine.State()) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if !writeState(state) {
				return
			}
		}
	}
}
