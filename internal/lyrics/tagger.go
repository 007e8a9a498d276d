package lyrics

import (
	"context"

	"localify/internal/library"

	"github.com/sirupsen/logrus"
)

// Tagger is the background analysis loop that assigns genre/mood/style tags
// to songs. It keeps at most one outstanding request: each time the library
// changes it picks the next untagged song, analyzes it, records the result
// and moves on. Failures record an empty tag set so the same song is not
// retried within the session.
type Tagger struct {
	lib    *library.Library
	client *Client
	logger *logrus.Logger
}

// NewTagger creates a tag analysis watcher. client may be nil; the watcher
// then idles until it is restarted with a working client.
func NewTagger(lib *library.Library, client *Client, logger *logrus.Logger) *Tagger {
	return &Tagger{
		lib:    lib,
		client: client,
		logger: logger,
	}
}

// Run drives the analysis loop until ctx is canceled. Intended to be run
// in its own goroutine.
func (t *Tagger) Run(ctx context.Context) {
	if t.client == nil {
		t.logger.Debug("Tag analysis disabled, watcher not running")
		return
	}

	for {
		if t.lib.AIEnabled() {
			if song, ok := t.lib.NextUntagged(); ok {
				tags := t.client.AnalyzeTags(ctx, song.Title, song.Artist, song.Album)
				if tags == nil {
					t.logger.WithFields(logrus.Fields{
						"songId": song.ID,
						"title":  song.Title,
					}).Warn("Tag analysis failed, marking song as analyzed")
				} else {
					t.logger.WithFields(logrus.Fields{
						"songId": song.ID,
						"genres": tags.Genres,
						"moods":  tags.Moods,
					}).Debug("Tagged song")
				}
				// SetTags notifies the change channel, re-triggering the
				// loop for the next untagged song.
				t.lib.SetTags(song.ID, tags)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-t.lib.Changes():
		}
	}
}
