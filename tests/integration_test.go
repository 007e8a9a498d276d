package tests

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"localify/internal/config"
	"localify/internal/library"
	"localify/internal/metadata"
	"localify/internal/store"
)

func TestConfigAutoCreation(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("Expected config file to be created: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Store.Path != "./localify.db" {
		t.Errorf("Unexpected default store path: %s", cfg.Store.Path)
	}
	if !cfg.Lyrics.Enabled {
		t.Error("Expected lyrics to be enabled by default")
	}
	if cfg.Auth.Enabled {
		t.Error("Expected auth to be disabled by default")
	}

	// Reloading must parse the file written above and pass validation.
	reloaded, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to reload created config: %v", err)
	}
	if reloaded.Server.Port != cfg.Server.Port {
		t.Errorf("Reloaded port mismatch: %s", reloaded.Server.Port)
	}
	if err := reloaded.Validate(); err != nil {
		t.Errorf("Created config must validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*config.Config)
		valid  bool
	}{
		{"Defaults", func(c *config.Config) {}, true},
		{"EmptyPort", func(c *config.Config) { c.Server.Port = "" }, false},
		{"EmptyLibraryPath", func(c *config.Config) { c.Music.LibraryPath = "" }, false},
		{"NoFormats", func(c *config.Config) { c.Music.SupportedFormats = nil }, false},
		{"BadLogLevel", func(c *config.Config) { c.Logging.Level = "verbose" }, false},
		{"EmptyStorePath", func(c *config.Config) { c.Store.Path = "" }, false},
		{"AuthWithoutHash", func(c *config.Config) { c.Auth.Enabled = true }, false},
		{"LyricsWithoutModel", func(c *config.Config) { c.Lyrics.Model = "" }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.valid && err != nil {
				t.Errorf("Expected valid config, got: %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}
}

// writeFakeSongs drops non-audio bytes into .mp3 files; extraction falls
// back to filename-derived metadata, which is enough to exercise the
// import and persistence paths.
func writeFakeSongs(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for i, name := range names {
		path := filepath.Join(dir, name)
		content := fmt.Sprintf("fake audio payload %d", i)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write fake song: %v", err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestLibraryPersistenceFlow(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	workDir := t.TempDir()
	musicDir := filepath.Join(workDir, "music")
	if err := os.MkdirAll(musicDir, 0755); err != nil {
		t.Fatalf("Failed to create music dir: %v", err)
	}
	dbPath := filepath.Join(workDir, "localify.db")

	paths := writeFakeSongs(t, musicDir, "alpha.mp3", "beta.mp3", "gamma.mp3")
	extractor := metadata.NewExtractor([]string{".mp3"}, logger)

	var songID, playlistID string

	// First session: import, play, like, build a playlist.
	{
		s, err := store.Open(dbPath, logger)
		if err != nil {
			t.Fatalf("Failed to open store: %v", err)
		}

		lib := library.New(s, extractor, logger)
		if added := lib.ImportFiles(paths); added != 3 {
			t.Fatalf("Expected 3 imports, got %d", added)
		}

		songs := lib.Songs()
		if len(songs) != 3 {
			t.Fatalf("Expected 3 songs, got %d", len(songs))
		}
		songID = songs[0].ID

		lib.RecordPlay(songs[0])
		lib.RecordPlay(songs[0])
		lib.ToggleLike(songID)

		playlist := lib.CreatePlaylist("Favorites")
		playlistID = playlist.ID
		if !lib.AddSongToPlaylist(playlistID, songID) {
			t.Fatal("Failed to add song to playlist")
		}

		if err := s.Close(); err != nil {
			t.Fatalf("Failed to close store: %v", err)
		}
	}

	// Second session over the same database: history, likes and playlists
	// must survive, and re-imported files must pick their history back up.
	{
		s, err := store.Open(dbPath, logger)
		if err != nil {
			t.Fatalf("Failed to reopen store: %v", err)
		}
		defer s.Close()

		lib := library.New(s, extractor, logger)
		if added := lib.ImportFiles(paths); added != 3 {
			t.Fatalf("Expected 3 imports on reload, got %d", added)
		}

		song, ok := lib.GetSong(songID)
		if !ok {
			t.Fatalf("Song %s missing after reload", songID)
		}
		if song.PlayCount != 2 {
			t.Errorf("Expected play count 2 after reload, got %d", song.PlayCount)
		}
		if song.LastPlayed == 0 {
			t.Error("Expected last-played timestamp after reload")
		}

		if !lib.LikedSongs()[songID] {
			t.Error("Liked song lost across sessions")
		}

		playlist, ok := lib.GetPlaylist(playlistID)
		if !ok {
			t.Fatalf("Playlist %s missing after reload", playlistID)
		}
		if playlist.Name != "Favorites" {
			t.Errorf("Unexpected playlist name: %s", playlist.Name)
		}
		tracks := lib.PlaylistSongs(playlist)
		if len(tracks) != 1 || tracks[0].ID != songID {
			t.Errorf("Playlist contents lost: %+v", tracks)
		}

		// Filename-derived metadata groups everything under one album.
		albums := lib.Albums()
		if len(albums) != 1 {
			t.Fatalf("Expected 1 derived album, got %d", len(albums))
		}
		if albums[0].Name != "Unknown Album" {
			t.Errorf("Unexpected album name: %s", albums[0].Name)
		}
		if albums[0].PlayCount != 2 {
			t.Errorf("Expected album play count 2, got %d", albums[0].PlayCount)
		}
	}
}

func TestDuplicateImportKeepsIdentity(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	workDir := t.TempDir()
	dbPath := filepath.Join(workDir, "localify.db")
	paths := writeFakeSongs(t, workDir, "dup.mp3")

	s, err := store.Open(dbPath, logger)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	extractor := metadata.NewExtractor([]string{".mp3"}, logger)
	lib := library.New(s, extractor, logger)

	// Re-importing the same file appends a second song with the same id.
	lib.ImportFiles(paths)
	lib.ImportFiles(paths)

	songs := lib.Songs()
	if len(songs) != 2 {
		t.Fatalf("Expected 2 songs after duplicate import, got %d", len(songs))
	}
	if songs[0].ID != songs[1].ID {
		t.Errorf("Duplicate imports must share an id: %s vs %s", songs[0].ID, songs[1].ID)
	}
}

func TestLibraryRemoveByPath(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	workDir := t.TempDir()
	dbPath := filepath.Join(workDir, "localify.db")
	paths := writeFakeSongs(t, workDir, "keep.mp3", "drop.mp3")

	s, err := store.Open(dbPath, logger)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	extractor := metadata.NewExtractor([]string{".mp3"}, logger)
	lib := library.New(s, extractor, logger)
	lib.ImportFiles(paths)

	lib.RemoveByPath(paths[1])

	songs := lib.Songs()
	if len(songs) != 1 {
		t.Fatalf("Expected 1 song after removal, got %d", len(songs))
	}
	if songs[0].Title != "keep" {
		t.Errorf("Wrong song removed, remaining: %s", songs[0].Title)
	}
}
