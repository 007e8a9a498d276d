package library

import (
	"sort"

	"localify/pkg/models"
)

// The library views are pure projections: every derivation below is a
// function of the raw song list and the persisted history maps, with no
// side effects. Recomputing the whole library on every mutation keeps the
// derived views consistent with the latest history at all times.

// ApplyHistory merges persisted play counters onto each song and returns
// the songs sorted by date added, ascending.
func ApplyHistory(raw []models.Song, history map[string]models.History) []models.Song {
	songs := make([]models.Song, len(raw))
	copy(songs, raw)
	for i := range songs {
		if h, ok := history[songs[i].ID]; ok {
			songs[i].PlayCount = h.PlayCount
			songs[i].LastPlayed = h.LastPlayed
		}
	}
	sort.SliceStable(songs, func(i, j int) bool {
		return songs[i].DateAdded < songs[j].DateAdded
	})
	return songs
}

// BuildAlbums groups songs into albums keyed by name+artist, sorts each
// album's songs by track number (unknown track numbers sort last) and
// classifies the album type by song count.
func BuildAlbums(songs []models.Song, history map[string]models.History) []models.Album {
	index := make(map[string]int)
	var albums []models.Album

	for _, song := range songs {
		albumID := models.AlbumID(song.Album, song.Artist)
		i, ok := index[albumID]
		if !ok {
			i = len(albums)
			index[albumID] = i
			albums = append(albums, models.Album{
				ID:         albumID,
				Name:       song.Album,
				Artist:     song.Artist,
				CoverArtID: song.CoverArtID,
			})
		}
		albums[i].Songs = append(albums[i].Songs, song)
	}

	for i := range albums {
		album := &albums[i]
		sort.SliceStable(album.Songs, func(a, b int) bool {
			return trackSortKey(album.Songs[a].TrackNumber) < trackSortKey(album.Songs[b].TrackNumber)
		})
		album.Type = classifyAlbum(len(album.Songs))
		if h, ok := history[album.ID]; ok {
			album.PlayCount = h.PlayCount
			album.LastPlayed = h.LastPlayed
		}
	}

	return albums
}

// trackSortKey treats a missing track number (0) as larger than any real
// track number so untagged tracks sort to the end.
func trackSortKey(trackNumber int) int {
	if trackNumber == 0 {
		return int(^uint(0) >> 1)
	}
	return trackNumber
}

// classifyAlbum maps a song count to an album type: 1 is a single, 2-4 an
// EP, anything larger an album.
func classifyAlbum(songCount int) models.AlbumType {
	switch {
	case songCount == 1:
		return models.TypeSingle
	case songCount <= 4:
		return models.TypeEP
	default:
		return models.TypeAlbum
	}
}

// BuildArtists groups songs into artists keyed by artist name, attaches the
// artist's albums by name match and borrows cover art from the first album.
func BuildArtists(songs []models.Song, albums []models.Album, history map[string]models.History) []models.Artist {
	index := make(map[string]int)
	var artists []models.Artist

	for _, song := range songs {
		i, ok := index[song.Artist]
		if !ok {
			i = len(artists)
			index[song.Artist] = i
			artists = append(artists, models.Artist{Name: song.Artist})
		}
		artists[i].Songs = append(artists[i].Songs, song)
	}

	for i := range artists {
		artist := &artists[i]
		for _, album := range albums {
			if album.Artist == artist.Name {
				artist.Albums = append(artist.Albums, album)
			}
		}
		if len(artist.Albums) > 0 {
			artist.CoverArtID = artist.Albums[0].CoverArtID
		}
		if h, ok := history[artist.Name]; ok {
			artist.PlayCount = h.PlayCount
			artist.LastPlayed = h.LastPlayed
		}
	}

	return artists
}
