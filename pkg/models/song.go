package models

import (
	"fmt"
	"path/filepath"
)

// SyncedLyricLine is a single timestamped lyric line. StartTime is the
// offset from the beginning of the song in milliseconds.
type SyncedLyricLine struct {
	Text      string `json:"text"`
	StartTime int64  `json:"startTime"`
}

// SongTags holds descriptive tags assigned by the analysis service. A nil
// *SongTags on a Song means the song has not been analyzed yet; a non-nil
// value with empty slices means analysis ran and found nothing.
type SongTags struct {
	Genres []string `json:"genres,omitempty"`
	Moods  []string `json:"moods,omitempty"`
	Styles []string `json:"styles,omitempty"`
}

// HasMood reports whether the tag set contains the given mood.
func (t *SongTags) HasMood(mood string) bool {
	if t == nil {
		return false
	}
	for _, m := range t.Moods {
		if m == mood {
			return true
		}
	}
	return false
}

// HasGenre reports whether the tag set contains the given genre.
func (t *SongTags) HasGenre(genre string) bool {
	if t == nil {
		return false
	}
	for _, g := range t.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// Song represents a single imported audio file.
type Song struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	TrackNumber int     `json:"trackNumber,omitempty"` // 0 = unknown
	Duration    float64 `json:"duration"`              // in seconds
	FilePath    string  `json:"-"`                     // don't expose file path to client
	FileSize    int64   `json:"fileSize"`
	CoverArtID  string  `json:"coverArtId,omitempty"`

	Lyrics       string            `json:"lyrics,omitempty"` // unsynced
	SyncedLyrics []SyncedLyricLine `json:"syncedLyrics,omitempty"`
	IsExplicit   *bool             `json:"isExplicit,omitempty"` // nil = not yet resolved

	Tags *SongTags `json:"tags,omitempty"` // nil = not yet analyzed

	PlayCount  int   `json:"playCount"`            // merged in from history
	LastPlayed int64 `json:"lastPlayed,omitempty"` // unix millis, 0 = never
	DateAdded  int64 `json:"dateAdded"`            // unix millis
}

// SongID derives the stable identity for an imported file from its base
// name and size. Re-importing the same file yields the same id; duplicates
// are not filtered out.
func SongID(path string, size int64) string {
	return fmt.Sprintf("%s-%d", filepath.Base(path), size)
}

// AlbumID derives the album grouping key for a song.
func AlbumID(album, artist string) string {
	return album + "-" + artist
}

// AlbumType classifies an album by its track count.
type AlbumType string

const (
	TypeSingle AlbumType = "Single"
	TypeEP     AlbumType = "EP"
	TypeAlbum  AlbumType = "Album"
)

// Album is a derived grouping of songs sharing name and artist. Albums are
// recomputed from the song list; they are never stored.
type Album struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Artist     string    `json:"artist"`
	CoverArtID string    `json:"coverArtId,omitempty"`
	Songs      []Song    `json:"songs"`
	Type       AlbumType `json:"type"`
	PlayCount  int       `json:"playCount"`
	LastPlayed int64     `json:"lastPlayed,omitempty"`
}

// Artist is a derived grouping keyed by artist name. Cover art is borrowed
// from the artist's first album.
type Artist struct {
	Name       string  `json:"name"`
	Albums     []Album `json:"albums"`
	Songs      []Song  `json:"songs"`
	CoverArtID string  `json:"coverArtId,omitempty"`
	PlayCount  int     `json:"playCount"`
	LastPlayed int64   `json:"lastPlayed,omitempty"`
}

// Playlist is a user-created playlist referencing songs by id.
type Playlist struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	SongIDs []string `json:"songs"`
}

// SmartPlaylist is an ephemeral playlist derived from listening history and
// tags. Smart playlists are recomputed on demand and never persisted.
type SmartPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Songs       []Song `json:"songs"`
	Gradient    string `json:"gradient,omitempty"`
}

// History tracks play statistics for a song, album or artist.
type History struct {
	PlayCount  int   `json:"playCount"`
	LastPlayed int64 `json:"lastPlayed,omitempty"`
}

// RecentItemType identifies the kind of library item a RecentItem refers to.
type RecentItemType string

const (
	RecentAlbum    RecentItemType = "album"
	RecentArtist   RecentItemType = "artist"
	RecentPlaylist RecentItemType = "playlist"
)

// RecentItem is an entry in the recently-visited list.
type RecentItem struct {
	Type RecentItemType `json:"type"`
	ID   string         `json:"id"`
}

// LyricsData is the resolved lyrics payload for a song. A cached entry with
// all zero values records a definitive "nothing found" so the song is not
// looked up again.
type LyricsData struct {
	PlainLyrics  string            `json:"plainLyrics,omitempty"`
	SyncedLyrics []SyncedLyricLine `json:"syncedLyrics,omitempty"`
	IsExplicit   bool              `json:"isExplicit"`
}
