package server

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"localify/internal/config"
	"localify/internal/metadata"
)

func validationTestServer(t *testing.T) *MusicServer {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := config.DefaultConfig()
	cfg.Music.LibraryPath = t.TempDir()

	return &MusicServer{
		config:    cfg,
		extractor: metadata.NewExtractor(cfg.Music.SupportedFormats, logger),
		logger:    logger,
	}
}

func TestValidateSearchQuery(t *testing.T) {
	ms := validationTestServer(t)

	if err := ms.validateSearchQuery("normal query"); err != nil {
		t.Errorf("Expected valid query, got %+v", err)
	}
	if err := ms.validateSearchQuery(""); err != nil {
		t.Errorf("Empty query must be valid, got %+v", err)
	}
	if err := ms.validateSearchQuery(strings.Repeat("a", 1001)); err == nil {
		t.Error("Expected error for over-long query")
	}
	if err := ms.validateSearchQuery("bad\x00query"); err == nil {
		t.Error("Expected error for null byte in query")
	}
}

func TestValidateFilePath(t *testing.T) {
	ms := validationTestServer(t)
	libraryPath := ms.config.Music.LibraryPath

	if err := ms.validateFilePath(filepath.Join(libraryPath, "song.mp3")); err != nil {
		t.Errorf("Path inside library must validate, got %+v", err)
	}
	if err := ms.validateFilePath(filepath.Join(libraryPath, "sub", "song.mp3")); err != nil {
		t.Errorf("Nested path inside library must validate, got %+v", err)
	}
	if err := ms.validateFilePath(filepath.Join(libraryPath, "..", "escape.mp3")); err == nil {
		t.Error("Expected traversal outside the library to be rejected")
	}
	if err := ms.validateFilePath("/etc/passwd"); err == nil {
		t.Error("Expected absolute path outside the library to be rejected")
	}
}

func TestValidatePlaylistName(t *testing.T) {
	ms := validationTestServer(t)

	testCases := []struct {
		name  string
		input string
		valid bool
	}{
		{"Normal", "Road Trip", true},
		{"Empty", "", false},
		{"TooLong", strings.Repeat("x", 256), false},
		{"MaxLength", strings.Repeat("x", 255), true},
		{"NullByte", "bad\x00name", false},
		{"Newline", "bad\nname", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ms.validatePlaylistName(tc.input)
			if tc.valid && err != nil {
				t.Errorf("Expected valid name, got %+v", err)
			}
			if !tc.valid && err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestValidateContentType(t *testing.T) {
	ms := validationTestServer(t)

	if err := ms.validateContentType("/music/song.mp3"); err != nil {
		t.Errorf("Supported format must validate, got %+v", err)
	}
	if err := ms.validateContentType("/music/notes.txt"); err == nil {
		t.Error("Expected error for unsupported file type")
	}
}

func TestSanitizeInput(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"  padded  ", "padded"},
		{"with\x00null", "withnull"},
		{"clean", "clean"},
		{"", ""},
	}

	for _, tc := range testCases {
		if got := sanitizeInput(tc.input); got != tc.expected {
			t.Errorf("sanitizeInput(%q): expected %q, got %q", tc.input, tc.expected, got)
		}
	}
}
