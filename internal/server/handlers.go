package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"localify/pkg/models"
)

// handleHome serves the main SPA / index file from the configured static dir.
func (ms *MusicServer) handleHome(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(ms.config.Server.StaticDir, "index.html"))
}

// respondJSON writes v as a JSON response body.
func (ms *MusicServer) respondJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ms.logger.WithError(err).Error("Error encoding JSON response")
	}
}

// decodeJSONBody decodes a JSON request body into dst.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// setCORSHeaders applies the CORS header when enabled in configuration.
func (ms *MusicServer) setCORSHeaders(w http.ResponseWriter) {
	if ms.config.Server.EnableCORS {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
}

// handleGetSongs returns all songs, optionally filtered by a search query.
func (ms *MusicServer) handleGetSongs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	searchQuery := r.URL.Query().Get("search")
	if verr := ms.validateSearchQuery(searchQuery); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	var songs []models.Song
	if searchQuery != "" {
		songs = ms.lib.Search(searchQuery)
	} else {
		songs = ms.lib.Songs()
	}

	if songs == nil {
		songs = []models.Song{}
	}
	ms.respondJSON(w, songs)
}

// handleGetSongCount responds with a JSON count of all songs.
func (ms *MusicServer) handleGetSongCount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	response := map[string]int{"count": len(ms.lib.Songs())}
	ms.respondJSON(w, response)
}

// handleSongSubroutes dispatches /api/songs/{id} and /api/songs/{id}/lyrics.
func (ms *MusicServer) handleSongSubroutes(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 4 || pathParts[3] == "" {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	songID := pathParts[3]
	song, ok := ms.lib.GetSong(songID)
	if !ok {
		ms.respondWithError(w, r, http.StatusNotFound, "Song not found", nil)
		return
	}

	if len(pathParts) >= 5 && pathParts[4] == "lyrics" {
		ms.handleGetLyrics(w, r, song)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, song)
}

// handleGetLyrics resolves lyrics for a song through the cache and, when
// needed, the AI provider.
func (ms *MusicServer) handleGetLyrics(w http.ResponseWriter, r *http.Request, song models.Song) {
	w.Header().Set("Content-Type", "application/json")

	data, _ := ms.lyricsSvc.Resolve(r.Context(), song)
	ms.lib.ApplyLyrics(song.ID, data)
	ms.respondJSON(w, data)
}

// handleStreamSong streams an individual song by ID with Range support.
func (ms *MusicServer) handleStreamSong(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	songID := pathParts[2]
	song, ok := ms.lib.GetSong(songID)
	if !ok {
		http.Error(w, "Song not found", http.StatusNotFound)
		return
	}

	if verr := ms.validateFilePath(song.FilePath); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}
	if verr := ms.validateContentType(song.FilePath); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	contentType := ms.extractor.GetContentType(song.FilePath)
	if err := ms.OptimizedStreamHandler(w, r, song.FilePath, contentType); err != nil {
		ms.logger.WithError(err).WithField("file_path", song.FilePath).Error("Error streaming song")
	}
}

// handleRangeRequest implements simple single-range byte serving for seeking.
func (ms *MusicServer) handleRangeRequest(w http.ResponseWriter, _ *http.Request, file *os.File, fileSize int64, rangeHeader string) {
	// Parse range header (e.g., "bytes=0-1023")
	ranges := strings.TrimPrefix(rangeHeader, "bytes=")
	rangeParts := strings.Split(ranges, "-")

	start, err := strconv.ParseInt(rangeParts[0], 10, 64)
	if err != nil {
		start = 0
	}

	var end int64
	if len(rangeParts) > 1 && rangeParts[1] != "" {
		end, err = strconv.ParseInt(rangeParts[1], 10, 64)
		if err != nil {
			end = fileSize - 1
		}
	} else {
		end = fileSize - 1
	}

	// Validate range
	if start < 0 || end >= fileSize || start > end {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	// Set partial content headers
	contentLength := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", contentLength))
	w.WriteHeader(http.StatusPartialContent)

	// Seek to start position and copy the requested range
	file.Seek(start, io.SeekStart)
	io.CopyN(w, file, contentLength)
}
