package player

import (
	"time"

	"localify/pkg/models"
)

// RepeatMode cycles none -> all -> one -> none.
type RepeatMode string

const (
	RepeatNone RepeatMode = "none"
	RepeatAll  RepeatMode = "all"
	RepeatOne  RepeatMode = "one"
)

// Next returns the repeat mode following m in the toggle cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// State is a snapshot of the player for clients.
type State struct {
	CurrentSong   *models.Song  `json:"currentSong,omitempty"`
	IsPlaying     bool          `json:"isPlaying"`
	Position      float64       `json:"position"` // in seconds
	Duration      float64       `json:"duration"` // in seconds
	Volume        float64       `json:"volume"`
	IsShuffle     bool          `json:"isShuffle"`
	RepeatMode    RepeatMode    `json:"repeatMode"`
	Queue         []models.Song `json:"queue"`
	LoadingLyrics bool          `json:"loadingLyrics"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Subscribe adds a listener for state changes.
func (e *Engine) Subscribe() <-chan *State {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan *State, 10) // Buffered channel to prevent blocking
	e.listeners = append(e.listeners, ch)
	return ch
}

// Unsubscribe removes a listener (call this when done to prevent memory leaks)
func (e *Engine) Unsubscribe(ch <-chan *State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, listener := range e.listeners {
		if listener == ch {
			close(listener)
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			break
		}
	}
}

// notifyListeners sends state updates to all subscribers (must be called with lock held)
func (e *Engine) notifyListeners() {
	state := e.snapshotLocked()
	for i := 0; i < len(e.listeners); i++ {
		select {
		case e.listeners[i] <- state:
			// Successfully sent
		default:
			// Channel is full, remove it
			close(e.listeners[i])
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			i--
		}
	}
}
