package library

import (
	"strings"
	"sync"
	"time"

	"localify/internal/metadata"
	"localify/internal/store"
	"localify/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LikedPlaylistID is the id of the virtual "Liked Songs" playlist. It is
// derived from the liked song id set and never persisted as a playlist.
const LikedPlaylistID = "liked"

// maxRecentItems caps the recently-visited list.
const maxRecentItems = 20

// Library owns the raw song collection and everything derived from it:
// albums, artists, play history, likes, pins, recents and user playlists.
// Derived views are recomputed (not mutated in place) whenever the songs or
// a history map change; recomputation is memoized so repeated reads between
// mutations are cheap.
type Library struct {
	mu        sync.RWMutex
	store     *store.Store
	extractor *metadata.Extractor
	logger    *logrus.Logger

	rawSongs      []models.Song
	songHistory   map[string]models.History
	albumHistory  map[string]models.History
	artistHistory map[string]models.History
	likedSongs    map[string]bool
	pinnedItems   map[string]bool
	recentItems   []models.RecentItem
	playlists     []models.Playlist
	aiEnabled     bool

	// Memoized derived views, rebuilt when dirty.
	dirty   bool
	songs   []models.Song
	albums  []models.Album
	artists []models.Artist

	// changed receives a token whenever the song list changes. The tag
	// analysis watcher drains it to pick the next untagged song.
	changed chan struct{}
}

// New creates a Library and loads persisted state from the store.
func New(s *store.Store, extractor *metadata.Extractor, logger *logrus.Logger) *Library {
	return &Library{
		store:         s,
		extractor:     extractor,
		logger:        logger,
		songHistory:   s.SongHistory(),
		albumHistory:  s.AlbumHistory(),
		artistHistory: s.ArtistHistory(),
		likedSongs:    s.LikedSongs(),
		pinnedItems:   s.PinnedItems(),
		recentItems:   s.RecentItems(),
		playlists:     s.Playlists(),
		aiEnabled:     s.AIEnabled(),
		dirty:         true,
		changed:       make(chan struct{}, 1),
	}
}

// Changes returns a channel that receives a token whenever the song list
// changes. The channel has a buffer of one; notifications coalesce.
func (l *Library) Changes() <-chan struct{} {
	return l.changed
}

func (l *Library) notifyChanged() {
	select {
	case l.changed <- struct{}{}:
	default:
	}
}

// ImportFiles extracts metadata from the given files sequentially, in
// order, and appends the resulting songs. Files that fail extraction are
// logged and skipped; the batch continues. Returns the number of songs
// added. Duplicate files are appended with identical ids, not deduped.
func (l *Library) ImportFiles(paths []string) int {
	added := 0
	for _, path := range paths {
		if !l.extractor.IsAudioFile(path) {
			continue
		}
		song, err := l.extractor.ExtractFromFile(path)
		if err != nil {
			l.logger.WithError(err).WithField("filePath", path).Error("Failed to import file, skipping")
			continue
		}
		l.mu.Lock()
		l.rawSongs = append(l.rawSongs, song)
		l.dirty = true
		l.mu.Unlock()
		added++
		l.logger.WithFields(logrus.Fields{
			"title":  song.Title,
			"artist": song.Artist,
		}).Info("Added song")
	}
	if added > 0 {
		l.notifyChanged()
	}
	return added
}

// RemoveByPath drops any songs imported from the given file path.
func (l *Library) RemoveByPath(path string) {
	l.mu.Lock()
	kept := l.rawSongs[:0]
	removed := 0
	for _, song := range l.rawSongs {
		if song.FilePath == path {
			removed++
			continue
		}
		kept = append(kept, song)
	}
	l.rawSongs = kept
	if removed > 0 {
		l.dirty = true
	}
	l.mu.Unlock()

	if removed > 0 {
		l.logger.WithFields(logrus.Fields{
			"filePath": path,
			"removed":  removed,
		}).Info("Removed songs for deleted file")
		l.notifyChanged()
	}
}

// recompute rebuilds the derived views. Caller must hold the write lock.
func (l *Library) recompute() {
	if !l.dirty {
		return
	}
	l.songs = ApplyHistory(l.rawSongs, l.songHistory)
	l.albums = BuildAlbums(l.songs, l.albumHistory)
	l.artists = BuildArtists(l.songs, l.albums, l.artistHistory)
	l.dirty = false
}

// Songs returns all songs with history merged in, sorted by date added.
func (l *Library) Songs() []models.Song {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recompute()
	return l.songs
}

// Albums returns the derived album list.
func (l *Library) Albums() []models.Album {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recompute()
	return l.albums
}

// Artists returns the derived artist list.
func (l *Library) Artists() []models.Artist {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recompute()
	return l.artists
}

// GetSong looks up a song by id. When duplicates share an id the first
// imported copy wins.
func (l *Library) GetSong(id string) (models.Song, bool) {
	for _, song := range l.Songs() {
		if song.ID == id {
			return song, true
		}
	}
	return models.Song{}, false
}

// GetAlbum looks up a derived album by id.
func (l *Library) GetAlbum(id string) (models.Album, bool) {
	for _, album := range l.Albums() {
		if album.ID == id {
			return album, true
		}
	}
	return models.Album{}, false
}

// GetArtist looks up a derived artist by name.
func (l *Library) GetArtist(name string) (models.Artist, bool) {
	for _, artist := range l.Artists() {
		if artist.Name == name {
			return artist, true
		}
	}
	return models.Artist{}, false
}

// Search returns songs whose title, artist or album contains the query,
// case-insensitively.
func (l *Library) Search(query string) []models.Song {
	var results []models.Song
	needle := strings.ToLower(query)
	for _, song := range l.Songs() {
		if strings.Contains(strings.ToLower(song.Title), needle) ||
			strings.Contains(strings.ToLower(song.Artist), needle) ||
			strings.Contains(strings.ToLower(song.Album), needle) {
			results = append(results, song)
		}
	}
	return results
}

// RecordPlay increments the play counters for a song, its album and its
// artist together, stamps lastPlayed with the current time and records a
// recently-visited entry for the album. All counters are updated and
// persisted synchronously before any asynchronous lyrics work begins.
func (l *Library) RecordPlay(song models.Song) {
	now := time.Now().UnixMilli()
	albumID := models.AlbumID(song.Album, song.Artist)

	l.mu.Lock()
	bump(l.songHistory, song.ID, now)
	bump(l.albumHistory, albumID, now)
	bump(l.artistHistory, song.Artist, now)
	l.dirty = true
	songs := copyHistory(l.songHistory)
	albums := copyHistory(l.albumHistory)
	artists := copyHistory(l.artistHistory)
	l.mu.Unlock()

	l.store.SaveSongHistory(songs)
	l.store.SaveAlbumHistory(albums)
	l.store.SaveArtistHistory(artists)

	l.AddRecentItem(models.RecentAlbum, albumID)
}

func bump(history map[string]models.History, key string, now int64) {
	h := history[key]
	h.PlayCount++
	h.LastPlayed = now
	history[key] = h
}

func copyHistory(src map[string]models.History) map[string]models.History {
	out := make(map[string]models.History, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// AddRecentItem front-inserts an entry into the recently-visited list,
// deduplicated by id and capped at 20 entries.
func (l *Library) AddRecentItem(itemType models.RecentItemType, id string) {
	l.mu.Lock()
	items := []models.RecentItem{{Type: itemType, ID: id}}
	for _, item := range l.recentItems {
		if item.ID != id {
			items = append(items, item)
		}
	}
	if len(items) > maxRecentItems {
		items = items[:maxRecentItems]
	}
	l.recentItems = items
	l.mu.Unlock()

	l.store.SaveRecentItems(items)
}

// RecentItems returns the recently-visited list, most recent first.
func (l *Library) RecentItems() []models.RecentItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	items := make([]models.RecentItem, len(l.recentItems))
	copy(items, l.recentItems)
	return items
}

// ToggleLike flips a song's membership in the liked set.
func (l *Library) ToggleLike(songID string) {
	l.mu.Lock()
	if l.likedSongs[songID] {
		delete(l.likedSongs, songID)
	} else {
		l.likedSongs[songID] = true
	}
	l.mu.Unlock()

	l.store.SaveLikedSongs(l.LikedSongs())
}

// LikedSongs returns a copy of the liked song id set.
func (l *Library) LikedSongs() map[string]bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	liked := make(map[string]bool, len(l.likedSongs))
	for id := range l.likedSongs {
		liked[id] = true
	}
	return liked
}

// TogglePin flips an item's membership in the pinned set.
func (l *Library) TogglePin(itemID string) {
	l.mu.Lock()
	if l.pinnedItems[itemID] {
		delete(l.pinnedItems, itemID)
	} else {
		l.pinnedItems[itemID] = true
	}
	l.mu.Unlock()

	l.store.SavePinnedItems(l.PinnedItems())
}

// PinnedItems returns a copy of the pinned item id set.
func (l *Library) PinnedItems() map[string]bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pinned := make(map[string]bool, len(l.pinnedItems))
	for id := range l.pinnedItems {
		pinned[id] = true
	}
	return pinned
}

// Playlists returns all user-created playlists.
func (l *Library) Playlists() []models.Playlist {
	l.mu.RLock()
	defer l.mu.RUnlock()
	playlists := make([]models.Playlist, len(l.playlists))
	copy(playlists, l.playlists)
	return playlists
}

// CreatePlaylist creates an empty named playlist.
func (l *Library) CreatePlaylist(name string) models.Playlist {
	playlist := models.Playlist{
		ID:   "playlist-" + uuid.New().String(),
		Name: name,
	}

	l.mu.Lock()
	l.playlists = append(l.playlists, playlist)
	saved := make([]models.Playlist, len(l.playlists))
	copy(saved, l.playlists)
	l.mu.Unlock()

	l.store.SavePlaylists(saved)
	return playlist
}

// AddSongToPlaylist appends a song reference to a playlist unless it is
// already present.
func (l *Library) AddSongToPlaylist(playlistID, songID string) bool {
	l.mu.Lock()
	found := false
	for i := range l.playlists {
		if l.playlists[i].ID != playlistID {
			continue
		}
		found = true
		already := false
		for _, id := range l.playlists[i].SongIDs {
			if id == songID {
				already = true
				break
			}
		}
		if !already {
			l.playlists[i].SongIDs = append(l.playlists[i].SongIDs, songID)
		}
	}
	saved := make([]models.Playlist, len(l.playlists))
	copy(saved, l.playlists)
	l.mu.Unlock()

	if found {
		l.store.SavePlaylists(saved)
	}
	return found
}

// DeletePlaylist removes a user-created playlist.
func (l *Library) DeletePlaylist(playlistID string) bool {
	l.mu.Lock()
	kept := l.playlists[:0]
	found := false
	for _, pl := range l.playlists {
		if pl.ID == playlistID {
			found = true
			continue
		}
		kept = append(kept, pl)
	}
	l.playlists = kept
	saved := make([]models.Playlist, len(l.playlists))
	copy(saved, l.playlists)
	l.mu.Unlock()

	if found {
		l.store.SavePlaylists(saved)
	}
	return found
}

// GetPlaylist looks up a playlist by id. The virtual "liked" playlist is
// materialized from the liked id set against the current song collection.
func (l *Library) GetPlaylist(id string) (models.Playlist, bool) {
	if id == LikedPlaylistID {
		liked := l.LikedSongs()
		playlist := models.Playlist{ID: LikedPlaylistID, Name: "Liked Songs"}
		for _, song := range l.Songs() {
			if liked[song.ID] {
				playlist.SongIDs = append(playlist.SongIDs, song.ID)
			}
		}
		return playlist, true
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, pl := range l.playlists {
		if pl.ID == id {
			return pl, true
		}
	}
	return models.Playlist{}, false
}

// PlaylistSongs materializes a playlist's song references against the
// current song collection, preserving playlist order.
func (l *Library) PlaylistSongs(playlist models.Playlist) []models.Song {
	byID := make(map[string]models.Song)
	for _, song := range l.Songs() {
		if _, ok := byID[song.ID]; !ok {
			byID[song.ID] = song
		}
	}
	var songs []models.Song
	for _, id := range playlist.SongIDs {
		if song, ok := byID[id]; ok {
			songs = append(songs, song)
		}
	}
	return songs
}

// AIEnabled reports whether AI-backed features (tagging, smart playlists,
// lyrics lookup) are enabled.
func (l *Library) AIEnabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.aiEnabled
}

// ToggleAI flips the AI-features flag and persists it.
func (l *Library) ToggleAI() bool {
	l.mu.Lock()
	l.aiEnabled = !l.aiEnabled
	enabled := l.aiEnabled
	l.mu.Unlock()

	l.store.SaveAIEnabled(enabled)
	if enabled {
		l.notifyChanged() // wake the tag watcher
	}
	return enabled
}

// ApplyLyrics writes resolved lyrics data onto the stored song. Once a song
// carries a definitive explicit flag its lyrics are considered resolved and
// are not fetched again.
func (l *Library) ApplyLyrics(songID string, data models.LyricsData) {
	explicit := data.IsExplicit

	l.mu.Lock()
	for i := range l.rawSongs {
		if l.rawSongs[i].ID != songID {
			continue
		}
		if data.PlainLyrics != "" {
			l.rawSongs[i].Lyrics = data.PlainLyrics
		}
		l.rawSongs[i].SyncedLyrics = data.SyncedLyrics
		l.rawSongs[i].IsExplicit = &explicit
	}
	l.dirty = true
	l.mu.Unlock()
}

// NextUntagged returns the first song that has not been analyzed yet.
func (l *Library) NextUntagged() (models.Song, bool) {
	for _, song := range l.Songs() {
		if song.Tags == nil {
			return song, true
		}
	}
	return models.Song{}, false
}

// SetTags records analysis results on a song. A non-nil empty tag set marks
// the song as analyzed with nothing found.
func (l *Library) SetTags(songID string, tags *models.SongTags) {
	if tags == nil {
		tags = &models.SongTags{}
	}

	l.mu.Lock()
	for i := range l.rawSongs {
		if l.rawSongs[i].ID == songID {
			l.rawSongs[i].Tags = tags
		}
	}
	l.dirty = true
	l.mu.Unlock()

	l.notifyChanged()
}
