package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const maxUploadSize = 512 << 20 // 512 MB

// handleUploadSong accepts an audio file upload into the music library. The
// file watcher picks up the new file, so the upload itself only has to land
// the bytes in the library directory. When watching is disabled the file is
// imported directly.
func (ms *MusicServer) handleUploadSong(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	err := r.ParseMultipartForm(maxUploadSize)
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Failed to parse upload form", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "No file provided", err)
		return
	}
	defer file.Close()

	// Validate file extension
	filename := header.Filename
	if !ms.isValidAudioFile(filename) {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid file type. Supported formats: "+strings.Join(ms.config.Music.SupportedFormats, ", "), nil)
		return
	}

	if err := os.MkdirAll(ms.config.Music.LibraryPath, 0755); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Failed to create library folder", err)
		return
	}

	// Sanitize filename to prevent path traversal
	safeFilename := filepath.Base(filename)
	if safeFilename == "." || safeFilename == "/" {
		safeFilename = "uploaded_file" + filepath.Ext(filename)
	}

	// Check if file already exists and create unique name if needed
	destPath := filepath.Join(ms.config.Music.LibraryPath, safeFilename)
	counter := 1
	for {
		if _, err := os.Stat(destPath); os.IsNotExist(err) {
			break
		}
		// File exists, try with counter
		ext := filepath.Ext(safeFilename)
		nameWithoutExt := strings.TrimSuffix(safeFilename, ext)
		destPath = filepath.Join(ms.config.Music.LibraryPath, fmt.Sprintf("%s_%d%s", nameWithoutExt, counter, ext))
		counter++
	}

	// Create destination file
	destFile, err := os.Create(destPath)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Failed to create destination file", err)
		return
	}
	defer destFile.Close()

	// Copy file content
	_, err = io.Copy(destFile, file)
	if err != nil {
		os.Remove(destPath) // Clean up on error
		ms.respondWithError(w, r, http.StatusInternalServerError, "Failed to save file", err)
		return
	}

	// Import directly when the watcher is not running
	if !ms.config.Music.WatchForChanges {
		if imported := ms.lib.ImportFiles([]string{destPath}); imported == 0 {
			ms.logger.WithField("file_path", destPath).Warn("Could not import uploaded file")
		}
	}

	response := map[string]interface{}{
		"success":  true,
		"message":  "File uploaded successfully",
		"filename": filepath.Base(destPath),
	}
	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, response)
}

// isValidAudioFile checks if the filename has a supported audio extension
func (ms *MusicServer) isValidAudioFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, supportedExt := range ms.config.Music.SupportedFormats {
		if ext == supportedExt {
			return true
		}
	}
	return false
}
