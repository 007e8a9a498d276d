package library

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"localify/internal/metadata"
	"localify/internal/store"
	"localify/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testLibrary(t *testing.T, songs ...models.Song) *Library {
	t.Helper()
	logger := testLogger()
	extractor := metadata.NewExtractor([]string{".mp3", ".flac", ".wav", ".m4a"}, logger)
	lib := New(testStore(t), extractor, logger)
	lib.rawSongs = songs
	return lib
}

func TestSearch(t *testing.T) {
	lib := testLibrary(t,
		song("s1", "Midnight Rain", "Storm", "Weather", 1, 1),
		song("s2", "Sunlight", "Storm", "Weather", 2, 2),
		song("s3", "Other", "Band", "Rainy Days", 1, 3),
	)

	testCases := []struct {
		query    string
		expected int
	}{
		{"rain", 2}, // matches title and album, case-insensitive
		{"STORM", 2},
		{"sunlight", 1},
		{"nothing", 0},
	}

	for _, tc := range testCases {
		results := lib.Search(tc.query)
		if len(results) != tc.expected {
			t.Errorf("Search(%q): expected %d results, got %d", tc.query, tc.expected, len(results))
		}
	}
}

func TestRecordPlayBumpsAllThreeHistories(t *testing.T) {
	s := song("s1", "One", "X", "First", 1, 1)
	lib := testLibrary(t, s)

	lib.RecordPlay(s)
	lib.RecordPlay(s)

	songs := lib.Songs()
	if songs[0].PlayCount != 2 {
		t.Errorf("expected song play count 2, got %d", songs[0].PlayCount)
	}
	if songs[0].LastPlayed == 0 {
		t.Error("expected lastPlayed to be stamped")
	}

	albums := lib.Albums()
	if albums[0].PlayCount != 2 {
		t.Errorf("expected album play count 2, got %d", albums[0].PlayCount)
	}

	artists := lib.Artists()
	if artists[0].PlayCount != 2 {
		t.Errorf("expected artist play count 2, got %d", artists[0].PlayCount)
	}

	// Playing records a recent entry for the album
	recents := lib.RecentItems()
	if len(recents) != 1 || recents[0].ID != "First-X" {
		t.Fatalf("expected recent album entry First-X, got %+v", recents)
	}
	if recents[0].Type != models.RecentAlbum {
		t.Errorf("expected recent type album, got %s", recents[0].Type)
	}
}

func TestRecentItemsDedupAndCap(t *testing.T) {
	lib := testLibrary(t)

	for i := 0; i < 25; i++ {
		lib.AddRecentItem(models.RecentAlbum, string(rune('a'+i)))
	}

	recents := lib.RecentItems()
	if len(recents) != maxRecentItems {
		t.Fatalf("expected %d recents, got %d", maxRecentItems, len(recents))
	}
	// Most recent first
	if recents[0].ID != string(rune('a'+24)) {
		t.Errorf("expected newest first, got %s", recents[0].ID)
	}

	// Revisiting moves an entry to the front without duplicating it
	lib.AddRecentItem(models.RecentAlbum, recents[3].ID)
	updated := lib.RecentItems()
	if len(updated) != maxRecentItems {
		t.Errorf("dedup changed length: %d", len(updated))
	}
	if updated[0].ID != recents[3].ID {
		t.Errorf("expected revisited item at front, got %s", updated[0].ID)
	}
}

func TestToggleLike(t *testing.T) {
	lib := testLibrary(t, song("s1", "One", "X", "First", 1, 1))

	lib.ToggleLike("s1")
	if !lib.LikedSongs()["s1"] {
		t.Error("expected s1 to be liked")
	}

	lib.ToggleLike("s1")
	if lib.LikedSongs()["s1"] {
		t.Error("expected s1 to be un-liked")
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	lib := testLibrary(t,
		song("s1", "One", "X", "First", 1, 1),
		song("s2", "Two", "X", "First", 2, 2),
	)

	playlist := lib.CreatePlaylist("Road Trip")
	if playlist.Name != "Road Trip" || playlist.ID == "" {
		t.Fatalf("unexpected playlist: %+v", playlist)
	}

	if !lib.AddSongToPlaylist(playlist.ID, "s2") {
		t.Fatal("expected add to succeed")
	}
	if !lib.AddSongToPlaylist(playlist.ID, "s1") {
		t.Fatal("expected add to succeed")
	}
	// Adding the same song twice is a no-op
	lib.AddSongToPlaylist(playlist.ID, "s2")

	got, ok := lib.GetPlaylist(playlist.ID)
	if !ok {
		t.Fatal("playlist not found")
	}
	if len(got.SongIDs) != 2 {
		t.Fatalf("expected 2 song refs, got %d", len(got.SongIDs))
	}

	// Playlist order preserved when materializing
	songs := lib.PlaylistSongs(got)
	if len(songs) != 2 || songs[0].ID != "s2" || songs[1].ID != "s1" {
		t.Errorf("unexpected playlist song order: %+v", songs)
	}

	if !lib.DeletePlaylist(playlist.ID) {
		t.Fatal("expected delete to succeed")
	}
	if _, ok := lib.GetPlaylist(playlist.ID); ok {
		t.Error("expected playlist to be gone")
	}

	if lib.AddSongToPlaylist("missing", "s1") {
		t.Error("expected add to unknown playlist to fail")
	}
}

func TestVirtualLikedPlaylist(t *testing.T) {
	lib := testLibrary(t,
		song("s1", "One", "X", "First", 1, 1),
		song("s2", "Two", "X", "First", 2, 2),
	)

	lib.ToggleLike("s2")

	playlist, ok := lib.GetPlaylist(LikedPlaylistID)
	if !ok {
		t.Fatal("expected virtual liked playlist")
	}
	if playlist.Name != "Liked Songs" {
		t.Errorf("unexpected name %q", playlist.Name)
	}
	if len(playlist.SongIDs) != 1 || playlist.SongIDs[0] != "s2" {
		t.Errorf("unexpected liked songs: %v", playlist.SongIDs)
	}
}

func TestApplyLyricsMarksResolved(t *testing.T) {
	lib := testLibrary(t, song("s1", "One", "X", "First", 1, 1))

	lib.ApplyLyrics("s1", models.LyricsData{
		PlainLyrics: "la la la",
		SyncedLyrics: []models.SyncedLyricLine{
			{Text: "la", StartTime: 1000},
		},
		IsExplicit: true,
	})

	got, _ := lib.GetSong("s1")
	if got.Lyrics != "la la la" {
		t.Errorf("lyrics not applied: %q", got.Lyrics)
	}
	if len(got.SyncedLyrics) != 1 {
		t.Errorf("synced lyrics not applied")
	}
	if got.IsExplicit == nil || !*got.IsExplicit {
		t.Error("explicit flag not set")
	}

	// A negative result still marks the song resolved
	lib2 := testLibrary(t, song("s2", "Two", "X", "First", 1, 1))
	lib2.ApplyLyrics("s2", models.LyricsData{})
	got2, _ := lib2.GetSong("s2")
	if got2.IsExplicit == nil || *got2.IsExplicit {
		t.Error("expected resolved non-explicit flag after negative result")
	}
	if got2.Lyrics != "" {
		t.Error("empty lyrics must not overwrite")
	}
}

func TestNextUntaggedAndSetTags(t *testing.T) {
	lib := testLibrary(t,
		song("s1", "One", "X", "First", 1, 1),
		song("s2", "Two", "X", "First", 2, 2),
	)

	next, ok := lib.NextUntagged()
	if !ok || next.ID != "s1" {
		t.Fatalf("expected s1 untagged, got %v %v", next.ID, ok)
	}

	lib.SetTags("s1", &models.SongTags{Genres: []string{"rock"}, Moods: []string{"energetic"}})

	next, ok = lib.NextUntagged()
	if !ok || next.ID != "s2" {
		t.Fatalf("expected s2 untagged next, got %v %v", next.ID, ok)
	}

	// nil tags still mark the song analyzed
	lib.SetTags("s2", nil)
	if _, ok := lib.NextUntagged(); ok {
		t.Error("expected no untagged songs left")
	}

	got, _ := lib.GetSong("s1")
	if !got.Tags.HasGenre("rock") || !got.Tags.HasMood("energetic") {
		t.Error("tags not applied")
	}
}

func TestStatePersistsAcrossReload(t *testing.T) {
	logger := testLogger()
	extractor := metadata.NewExtractor([]string{".mp3"}, logger)
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	tune := song("s1", "One", "X", "First", 1, 1)
	lib := New(s, extractor, logger)
	lib.rawSongs = []models.Song{tune}

	lib.RecordPlay(tune)
	lib.ToggleLike("s1")
	lib.TogglePin("First-X")
	playlist := lib.CreatePlaylist("Kept")
	lib.AddSongToPlaylist(playlist.ID, "s1")
	lib.ToggleAI()

	// A fresh library over the same store sees the persisted state.
	reloaded := New(s, extractor, logger)
	reloaded.rawSongs = []models.Song{tune}

	if !reloaded.LikedSongs()["s1"] {
		t.Error("liked set not persisted")
	}
	if !reloaded.PinnedItems()["First-X"] {
		t.Error("pinned set not persisted")
	}
	if reloaded.Songs()[0].PlayCount != 1 {
		t.Error("song history not persisted")
	}
	if len(reloaded.Playlists()) != 1 || len(reloaded.Playlists()[0].SongIDs) != 1 {
		t.Error("playlists not persisted")
	}
	if reloaded.AIEnabled() {
		t.Error("AI flag not persisted")
	}
	if len(reloaded.RecentItems()) != 1 {
		t.Error("recents not persisted")
	}
}
