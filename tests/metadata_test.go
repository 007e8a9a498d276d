package tests

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"localify/internal/metadata"
)

func newTestExtractor() *metadata.Extractor {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return metadata.NewExtractor([]string{".mp3", ".flac", ".wav", ".m4a"}, logger)
}

func TestMetadataExtractor(t *testing.T) {
	extractor := newTestExtractor()

	t.Run("IsAudioFile", func(t *testing.T) {
		testCases := []struct {
			filename string
			expected bool
		}{
			{"song.mp3", true},
			{"song.MP3", true},
			{"song.flac", true},
			{"song.FLAC", true},
			{"song.wav", true},
			{"song.m4a", true},
			{"song.txt", false},
			{"song.jpg", false},
			{"song", false},
			{"", false},
		}

		for _, tc := range testCases {
			result := extractor.IsAudioFile(tc.filename)
			if result != tc.expected {
				t.Errorf("IsAudioFile(%s): expected %v, got %v", tc.filename, tc.expected, result)
			}
		}
	})

	t.Run("GetContentType", func(t *testing.T) {
		testCases := []struct {
			filename string
			expected string
		}{
			{"song.mp3", "audio/mpeg"},
			{"song.MP3", "audio/mpeg"},
			{"song.flac", "audio/flac"},
			{"song.FLAC", "audio/flac"},
			{"song.wav", "audio/wav"},
			{"song.WAV", "audio/wav"},
			{"song.m4a", "audio/mp4"},
			{"song.M4A", "audio/mp4"},
			{"song.txt", "application/octet-stream"},
			{"song.unknown", "application/octet-stream"},
		}

		for _, tc := range testCases {
			result := extractor.GetContentType(tc.filename)
			if result != tc.expected {
				t.Errorf("GetContentType(%s): expected %s, got %s", tc.filename, tc.expected, result)
			}
		}
	})

	t.Run("GetCoverArtMimeType", func(t *testing.T) {
		testCases := []struct {
			name     string
			data     []byte
			expected string
		}{
			{"JPEG", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
			{"PNG", []byte{0x89, 0x50, 0x4E, 0x47}, "image/png"},
			{"GIF", []byte{0x47, 0x49, 0x46, 0x38}, "image/gif"},
			{"Unknown", []byte{0x00, 0x00, 0x00, 0x00}, "application/octet-stream"},
			{"Too short", []byte{0xFF}, "application/octet-stream"},
			{"Empty", []byte{}, "application/octet-stream"},
		}

		for _, tc := range testCases {
			result := extractor.GetCoverArtMimeType(tc.data)
			if result != tc.expected {
				t.Errorf("GetCoverArtMimeType(%s): expected %s, got %s", tc.name, tc.expected, result)
			}
		}
	})

	t.Run("GetCoverArtMiss", func(t *testing.T) {
		if _, exists := extractor.GetCoverArt("no-such-art"); exists {
			t.Error("Expected cover art lookup to miss for unknown id")
		}
	})
}

func TestMetadataExtractionFallback(t *testing.T) {
	extractor := newTestExtractor()

	t.Run("ExtractFromNonExistentFile", func(t *testing.T) {
		_, err := extractor.ExtractFromFile("/nonexistent/file.mp3")
		if err == nil {
			t.Error("Expected error when extracting from non-existent file")
		}
	})

	t.Run("ExtractFromInvalidFile", func(t *testing.T) {
		testDir := t.TempDir()
		invalidFile := filepath.Join(testDir, "invalid.mp3")

		content := []byte("this is not an audio file")
		if err := os.WriteFile(invalidFile, content, 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		// Tag extraction fails but the song is still imported with
		// filename-derived fallback values.
		song, err := extractor.ExtractFromFile(invalidFile)
		if err != nil {
			t.Fatalf("Expected graceful fallback, got error: %v", err)
		}

		expectedID := fmt.Sprintf("invalid.mp3-%d", len(content))
		if song.ID != expectedID {
			t.Errorf("Expected ID %s, got %s", expectedID, song.ID)
		}

		if song.FilePath != invalidFile {
			t.Errorf("Expected file path %s, got %s", invalidFile, song.FilePath)
		}

		if song.Title != "invalid" {
			t.Errorf("Expected title 'invalid', got %s", song.Title)
		}

		if song.Artist != "Unknown Artist" {
			t.Errorf("Expected artist 'Unknown Artist', got %s", song.Artist)
		}

		if song.Album != "Unknown Album" {
			t.Errorf("Expected album 'Unknown Album', got %s", song.Album)
		}

		if song.DateAdded == 0 {
			t.Error("Expected DateAdded to be stamped")
		}
	})
}
