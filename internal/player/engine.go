package player

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"localify/internal/library"
	"localify/internal/lyrics"
	"localify/pkg/models"

	"github.com/sirupsen/logrus"
)

// Engine is the playback engine: it owns the current song, the play queue,
// shuffle/repeat state and the single underlying audio output handle. A
// separate copy of the pre-shuffle queue order is retained so shuffle can
// be toggled off losslessly.
type Engine struct {
	mu     sync.Mutex
	lib    *library.Library
	lyrics *lyrics.Service
	output Output
	logger *logrus.Logger
	rng    *rand.Rand

	currentSong   *models.Song
	isPlaying     bool
	volume        float64
	playQueue     []models.Song
	originalQueue []models.Song
	isShuffle     bool
	repeatMode    RepeatMode
	loadingLyrics bool

	listeners []chan *State
}

// NewEngine creates a playback engine driving the given output device. The
// output's ended event is wired to queue advancement.
func NewEngine(lib *library.Library, lyricsService *lyrics.Service, output Output, logger *logrus.Logger) *Engine {
	e := &Engine{
		lib:        lib,
		lyrics:     lyricsService,
		output:     output,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		volume:     1.0,
		repeatMode: RepeatNone,
	}
	output.OnEnded(e.handleSongEnd)
	return e
}

// State returns a snapshot of the current player state.
func (e *Engine) State() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() *State {
	state := &State{
		IsPlaying:     e.isPlaying,
		Position:      e.output.Position(),
		Duration:      e.output.Duration(),
		Volume:        e.volume,
		IsShuffle:     e.isShuffle,
		RepeatMode:    e.repeatMode,
		LoadingLyrics: e.loadingLyrics,
		UpdatedAt:     time.Now(),
	}
	if e.currentSong != nil {
		song := *e.currentSong
		state.CurrentSong = &song
	}
	state.Queue = make([]models.Song, len(e.playQueue))
	copy(state.Queue, e.playQueue)
	return state
}

// PlaySong starts playback of a song and materializes the play queue. When
// queue is empty the full library song list is used. With shuffle enabled
// the engine plays a fresh permutation of the supplied queue while keeping
// the unshuffled order for a later shuffle-off.
//
// The play event (history counters, recent-album entry) is recorded
// synchronously before the asynchronous lyrics resolution starts, so a
// crash mid-fetch never loses play-count accounting.
func (e *Engine) PlaySong(song models.Song, queue []models.Song) {
	e.mu.Lock()
	e.currentSong = &song
	if err := e.output.Load(song); err != nil {
		e.logger.WithError(err).WithField("songId", song.ID).Warn("Output failed to load song")
	}
	if err := e.output.Play(); err != nil {
		// Start failures degrade to a paused state; nothing is raised.
		e.logger.WithError(err).WithField("songId", song.ID).Warn("Output failed to start playback")
		e.isPlaying = false
	} else {
		e.isPlaying = true
	}

	newQueue := queue
	if len(newQueue) == 0 {
		newQueue = e.lib.Songs()
	}
	e.originalQueue = make([]models.Song, len(newQueue))
	copy(e.originalQueue, newQueue)

	if e.isShuffle {
		e.playQueue = e.shuffled(newQueue)
	} else {
		e.playQueue = make([]models.Song, len(newQueue))
		copy(e.playQueue, newQueue)
	}

	e.notifyListeners()
	e.mu.Unlock()

	e.lib.RecordPlay(song)
	e.resolveLyrics(song)
}

// resolveLyrics starts the asynchronous lyrics lookup for a song. Songs
// that already carry a definitive explicit flag are considered resolved.
// The fetch is never canceled on a transition; a stale result overwrites
// whatever song is current when it lands (last write wins).
func (e *Engine) resolveLyrics(song models.Song) {
	if song.IsExplicit != nil {
		return
	}

	e.mu.Lock()
	e.loadingLyrics = true
	e.notifyListeners()
	e.mu.Unlock()

	go func() {
		data, _ := e.lyrics.Resolve(context.Background(), song)
		e.lib.ApplyLyrics(song.ID, data)

		updated := song
		if data.PlainLyrics != "" {
			updated.Lyrics = data.PlainLyrics
		}
		updated.SyncedLyrics = data.SyncedLyrics
		explicit := data.IsExplicit
		updated.IsExplicit = &explicit

		e.mu.Lock()
		e.currentSong = &updated
		e.loadingLyrics = false
		e.notifyListeners()
		e.mu.Unlock()
	}()
}

// TogglePlay flips between playing and paused. No-op when nothing is loaded.
func (e *Engine) TogglePlay() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentSong == nil {
		return
	}
	if e.isPlaying {
		e.output.Pause()
		e.isPlaying = false
	} else {
		if err := e.output.Play(); err != nil {
			e.logger.WithError(err).Warn("Output failed to resume playback")
			return
		}
		e.isPlaying = true
	}
	e.notifyListeners()
}

// currentIndexLocked finds the current song's position in the active queue.
func (e *Engine) currentIndexLocked() int {
	if e.currentSong == nil {
		return -1
	}
	for i, song := range e.playQueue {
		if song.ID == e.currentSong.ID {
			return i
		}
	}
	return -1
}

// PlayNext advances to the next queue entry. At the end of the queue it
// wraps to the start when repeat-all is active, otherwise playback stops
// without changing the current song.
func (e *Engine) PlayNext() {
	e.mu.Lock()
	i := e.currentIndexLocked()
	if i == -1 {
		e.mu.Unlock()
		return
	}
	next := i + 1
	if next >= len(e.playQueue) {
		if e.repeatMode == RepeatAll {
			next = 0
		} else {
			e.output.Pause()
			e.isPlaying = false
			e.notifyListeners()
			e.mu.Unlock()
			return
		}
	}
	song := e.playQueue[next]
	queue := make([]models.Song, len(e.originalQueue))
	copy(queue, e.originalQueue)
	e.mu.Unlock()

	e.PlaySong(song, queue)
}

// PlayPrev restarts the current song when more than 3 seconds in,
// otherwise moves to the previous queue entry. At the head of the queue it
// wraps to the end only when repeat-all is active.
func (e *Engine) PlayPrev() {
	e.mu.Lock()
	i := e.currentIndexLocked()
	if i == -1 {
		e.mu.Unlock()
		return
	}
	if e.output.Position() > 3 {
		e.output.Seek(0)
		e.notifyListeners()
		e.mu.Unlock()
		return
	}
	prev := i - 1
	if prev < 0 {
		if e.repeatMode == RepeatAll {
			prev = len(e.playQueue) - 1
		} else {
			e.mu.Unlock()
			return
		}
	}
	song := e.playQueue[prev]
	queue := make([]models.Song, len(e.originalQueue))
	copy(queue, e.originalQueue)
	e.mu.Unlock()

	e.PlaySong(song, queue)
}

// Seek sets the playback position. Bounds checking is left to the output.
func (e *Engine) Seek(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.output.Seek(seconds)
	e.notifyListeners()
}

// SetVolume passes the volume through to the output. Values are expected
// in [0,1] but are not clamped.
func (e *Engine) SetVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = volume
	e.output.SetVolume(volume)
	e.notifyListeners()
}

// ToggleShuffle flips shuffle. Turning it on plays a fresh permutation of
// the retained original-order queue; turning it off restores the original
// order exactly.
func (e *Engine) ToggleShuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.isShuffle = !e.isShuffle
	if e.isShuffle {
		e.playQueue = e.shuffled(e.originalQueue)
	} else {
		e.playQueue = make([]models.Song, len(e.originalQueue))
		copy(e.playQueue, e.originalQueue)
	}
	e.notifyListeners()
	return e.isShuffle
}

// ToggleRepeat cycles the repeat mode: none -> all -> one -> none.
func (e *Engine) ToggleRepeat() RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeatMode = e.repeatMode.Next()
	e.notifyListeners()
	return e.repeatMode
}

// UpdateQueue replaces both the active queue and the retained original
// order.
func (e *Engine) UpdateQueue(queue []models.Song) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.playQueue = make([]models.Song, len(queue))
	copy(e.playQueue, queue)
	e.originalQueue = make([]models.Song, len(queue))
	copy(e.originalQueue, queue)
	e.notifyListeners()
}

// RemoveFromQueue drops a song from the queue. Removing the currently
// playing song is a no-op; playback is unaffected until the next
// transition.
func (e *Engine) RemoveFromQueue(songID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentSong != nil && e.currentSong.ID == songID {
		return
	}
	filtered := make([]models.Song, 0, len(e.playQueue))
	for _, song := range e.playQueue {
		if song.ID != songID {
			filtered = append(filtered, song)
		}
	}
	e.playQueue = filtered
	e.originalQueue = make([]models.Song, len(filtered))
	copy(e.originalQueue, filtered)
	e.notifyListeners()
}

// handleSongEnd reacts to the output's end-of-song event: repeat-one
// restarts the same song, anything else advances the queue.
func (e *Engine) handleSongEnd() {
	e.mu.Lock()
	if e.repeatMode == RepeatOne {
		e.output.Seek(0)
		if err := e.output.Play(); err != nil {
			e.logger.WithError(err).Warn("Output failed to restart song")
			e.isPlaying = false
		}
		e.notifyListeners()
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.PlayNext()
}

// shuffled returns a uniform Fisher-Yates permutation of the queue.
func (e *Engine) shuffled(queue []models.Song) []models.Song {
	out := make([]models.Song, len(queue))
	copy(out, queue)
	e.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
