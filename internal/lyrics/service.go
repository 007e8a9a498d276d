package lyrics

import (
	"context"

	"localify/internal/store"
	"localify/pkg/models"

	"github.com/sirupsen/logrus"
)

// Service resolves lyrics for songs: a pass-through memoization layer over
// the AI client, keyed by song id and backed by the persistent store. Empty
// and failed lookups are cached as negative results so repeated plays don't
// re-fetch.
type Service struct {
	client *Client
	store  *store.Store
	logger *logrus.Logger
}

// NewService creates a lyrics service. client may be nil (AI disabled), in
// which case only cached entries are served.
func NewService(client *Client, s *store.Store, logger *logrus.Logger) *Service {
	return &Service{
		client: client,
		store:  s,
		logger: logger,
	}
}

// Resolve returns lyrics data for a song, consulting the cache first and
// falling back to the AI service on a miss. The returned bool reports
// whether any resolution happened (a cached negative result still counts).
func (s *Service) Resolve(ctx context.Context, song models.Song) (models.LyricsData, bool) {
	if data, ok := s.store.Lyrics(song.ID); ok {
		return data, true
	}

	fetched := s.client.FetchLyrics(ctx, song.Title, song.Artist)
	if fetched == nil {
		// Cache the negative result so this song is not looked up again.
		negative := models.LyricsData{}
		s.store.SaveLyrics(song.ID, negative)
		s.logger.WithFields(logrus.Fields{
			"songId": song.ID,
			"title":  song.Title,
		}).Debug("No lyrics found")
		return negative, true
	}

	s.store.SaveLyrics(song.ID, *fetched)
	return *fetched, true
}
