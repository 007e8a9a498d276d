package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"localify/pkg/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Store is the durable key-value store backing playlists, likes, pins,
// recents, play history and the lyrics cache. Values are JSON blobs keyed
// by string; there are no transactions and no schema versioning beyond the
// initial table creation. It is safe for concurrent use because the
// underlying *sql.DB is concurrency-safe.
type Store struct {
	conn   *sql.DB
	logger *logrus.Logger

	getStmt *sql.Stmt
	setStmt *sql.Stmt
	delStmt *sql.Stmt
}

// Well-known keys. Anything outside this list is namespaced (lyrics/<id>).
const (
	keyPlaylists     = "playlists"
	keyLikedSongs    = "likedSongs"
	keyPinnedItems   = "pinnedItems"
	keyRecentItems   = "recentItems"
	keySongHistory   = "songHistory"
	keyAlbumHistory  = "albumHistory"
	keyArtistHistory = "artistHistory"
	keyAIEnabled     = "aiEnabled"

	lyricsPrefix = "lyrics/"
)

// Open opens (or creates) the SQLite store at the provided path and ensures
// the blob table exists. It also applies lightweight performance-oriented
// pragmas (WAL, cache sizing). Caller should Close() it when finished.
func Open(dbPath string, logger *logrus.Logger) (*Store, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// SQLite works better with fewer connections
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=2000;",
		"PRAGMA temp_store=memory;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	s := &Store{
		conn:   conn,
		logger: logger,
	}

	if err := s.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("store_path", dbPath).Info("Store initialized successfully")
	return s, nil
}

// createTables creates the blob table if it does not already exist. This is
// idempotent and safe to call multiple times.
func (s *Store) createTables() error {
	blobTable := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := s.conn.Exec(blobTable); err != nil {
		return err
	}
	return nil
}

// prepareStatements prepares the get/set/delete statements used by every
// typed accessor.
func (s *Store) prepareStatements() error {
	var err error

	s.getStmt, err = s.conn.Prepare(`SELECT value FROM blobs WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.setStmt, err = s.conn.Prepare(`
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("failed to prepare set statement: %w", err)
	}

	s.delStmt, err = s.conn.Prepare(`DELETE FROM blobs WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return nil
}

// get unmarshals the blob stored under key into dst. Returns false when the
// key is absent or the stored JSON does not unmarshal.
func (s *Store) get(key string, dst interface{}) bool {
	var raw string
	err := s.getStmt.QueryRow(key).Scan(&raw)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.WithError(err).WithField("key", key).Error("Failed to read blob")
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Stored blob does not unmarshal, ignoring")
		return false
	}
	return true
}

// set marshals value and writes it under key. Write failures are logged and
// swallowed: in-memory state is authoritative for the running session and is
// never rolled back on a failed write.
func (s *Store) set(key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to marshal blob")
		return
	}
	if _, err := s.setStmt.Exec(key, string(raw)); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to write blob")
	}
}

// Playlists returns all persisted playlists.
func (s *Store) Playlists() []models.Playlist {
	var playlists []models.Playlist
	s.get(keyPlaylists, &playlists)
	return playlists
}

// SavePlaylists persists the full playlist list.
func (s *Store) SavePlaylists(playlists []models.Playlist) {
	s.set(keyPlaylists, playlists)
}

// LikedSongs returns the set of liked song ids.
func (s *Store) LikedSongs() map[string]bool {
	var ids []string
	s.get(keyLikedSongs, &ids)
	liked := make(map[string]bool, len(ids))
	for _, id := range ids {
		liked[id] = true
	}
	return liked
}

// SaveLikedSongs persists the liked song id set.
func (s *Store) SaveLikedSongs(liked map[string]bool) {
	ids := make([]string, 0, len(liked))
	for id := range liked {
		ids = append(ids, id)
	}
	s.set(keyLikedSongs, ids)
}

// PinnedItems returns the set of pinned item ids.
func (s *Store) PinnedItems() map[string]bool {
	var ids []string
	s.get(keyPinnedItems, &ids)
	pinned := make(map[string]bool, len(ids))
	for _, id := range ids {
		pinned[id] = true
	}
	return pinned
}

// SavePinnedItems persists the pinned item id set.
func (s *Store) SavePinnedItems(pinned map[string]bool) {
	ids := make([]string, 0, len(pinned))
	for id := range pinned {
		ids = append(ids, id)
	}
	s.set(keyPinnedItems, ids)
}

// RecentItems returns the recently-visited item list, most recent first.
func (s *Store) RecentItems() []models.RecentItem {
	var items []models.RecentItem
	s.get(keyRecentItems, &items)
	return items
}

// SaveRecentItems persists the recently-visited item list.
func (s *Store) SaveRecentItems(items []models.RecentItem) {
	s.set(keyRecentItems, items)
}

// SongHistory returns the per-song play history map.
func (s *Store) SongHistory() map[string]models.History {
	return s.historyMap(keySongHistory)
}

// AlbumHistory returns the per-album play history map.
func (s *Store) AlbumHistory() map[string]models.History {
	return s.historyMap(keyAlbumHistory)
}

// ArtistHistory returns the per-artist play history map.
func (s *Store) ArtistHistory() map[string]models.History {
	return s.historyMap(keyArtistHistory)
}

func (s *Store) historyMap(key string) map[string]models.History {
	history := make(map[string]models.History)
	s.get(key, &history)
	return history
}

// SaveSongHistory persists the per-song play history map.
func (s *Store) SaveSongHistory(history map[string]models.History) {
	s.set(keySongHistory, history)
}

// SaveAlbumHistory persists the per-album play history map.
func (s *Store) SaveAlbumHistory(history map[string]models.History) {
	s.set(keyAlbumHistory, history)
}

// SaveArtistHistory persists the per-artist play history map.
func (s *Store) SaveArtistHistory(history map[string]models.History) {
	s.set(keyArtistHistory, history)
}

// AIEnabled returns the persisted AI-features flag, defaulting to true when
// the flag has never been written.
func (s *Store) AIEnabled() bool {
	enabled := true
	s.get(keyAIEnabled, &enabled)
	return enabled
}

// SaveAIEnabled persists the AI-features flag.
func (s *Store) SaveAIEnabled(enabled bool) {
	s.set(keyAIEnabled, enabled)
}

// Lyrics returns the cached lyrics entry for a song id, if any.
func (s *Store) Lyrics(songID string) (models.LyricsData, bool) {
	var data models.LyricsData
	ok := s.get(lyricsPrefix+songID, &data)
	return data, ok
}

// SaveLyrics writes a lyrics cache entry for a song id. Negative results
// (all zero values) are cached too so repeated plays don't re-fetch.
func (s *Store) SaveLyrics(songID string, data models.LyricsData) {
	s.set(lyricsPrefix+songID, data)
}

// Close closes the prepared statements and the underlying connection.
func (s *Store) Close() error {
	statements := []*sql.Stmt{s.getStmt, s.setStmt, s.delStmt}
	for _, stmt := range statements {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				s.logger.WithError(err).Error("Failed to close prepared statement")
			}
		}
	}

	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
