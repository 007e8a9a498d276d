package player

import (
	"sync"
	"time"

	"localify/pkg/models"
)

// Output is the single audio output handle owned by the Engine. All
// transport operations funnel through it; no other component drives
// playback state. Implementations must invoke the callback registered with
// OnEnded when the loaded song finishes playing.
type Output interface {
	// Load points the output at a new song and resets the position to 0.
	Load(song models.Song) error
	// Play starts or resumes playback. A start failure is returned to the
	// caller, which degrades to a paused state.
	Play() error
	// Pause suspends playback, keeping the current position.
	Pause()
	// Seek sets the playback position in seconds.
	Seek(seconds float64)
	// SetVolume sets the output volume. Values are passed through without
	// clamping.
	SetVolume(volume float64)
	// Position returns the current playback position in seconds.
	Position() float64
	// Duration returns the loaded song's duration in seconds.
	Duration() float64
	// OnEnded registers the end-of-song callback.
	OnEnded(fn func())
}

// ClockOutput is the production Output: a wall-clock driven virtual device.
// The server is authoritative for transport state while actual audio is
// rendered by whatever client streams the file; the clock advances the
// position while playing and fires the ended callback when the song's
// duration elapses.
type ClockOutput struct {
	mu       sync.Mutex
	song     models.Song
	playing  bool
	position float64   // position at last state change
	since    time.Time // when playing started/resumed
	volume   float64
	endTimer *time.Timer
	onEnded  func()
}

// NewClockOutput creates a stopped clock output at full volume.
func NewClockOutput() *ClockOutput {
	return &ClockOutput{volume: 1.0}
}

// Load points the output at a new song.
func (o *ClockOutput) Load(song models.Song) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopTimerLocked()
	o.song = song
	o.playing = false
	o.position = 0
	return nil
}

// Play resumes the clock.
func (o *ClockOutput) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.playing {
		return nil
	}
	o.playing = true
	o.since = time.Now()
	o.armTimerLocked()
	return nil
}

// Pause freezes the clock at the current position.
func (o *ClockOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.playing {
		return
	}
	o.position = o.positionLocked()
	o.playing = false
	o.stopTimerLocked()
}

// Seek moves the clock to the given position.
func (o *ClockOutput) Seek(seconds float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.position = seconds
	if o.playing {
		o.since = time.Now()
		o.armTimerLocked()
	}
}

// SetVolume records the output volume. No clamping is applied.
func (o *ClockOutput) SetVolume(volume float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.volume = volume
}

// Volume returns the recorded output volume.
func (o *ClockOutput) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// Position returns the current playback position in seconds.
func (o *ClockOutput) Position() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.positionLocked()
}

// Duration returns the loaded song's duration in seconds.
func (o *ClockOutput) Duration() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.song.Duration
}

// OnEnded registers the end-of-song callback.
func (o *ClockOutput) OnEnded(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onEnded = fn
}

func (o *ClockOutput) positionLocked() float64 {
	if !o.playing {
		return o.position
	}
	pos := o.position + time.Since(o.since).Seconds()
	if o.song.Duration > 0 && pos > o.song.Duration {
		pos = o.song.Duration
	}
	return pos
}

// armTimerLocked schedules the ended callback for the remaining play time.
// Songs with unknown duration never fire an ended event on their own.
func (o *ClockOutput) armTimerLocked() {
	o.stopTimerLocked()
	if o.song.Duration <= 0 {
		return
	}
	remaining := o.song.Duration - o.positionLocked()
	if remaining < 0 {
		remaining = 0
	}
	o.endTimer = time.AfterFunc(time.Duration(remaining*float64(time.Second)), o.fireEnded)
}

func (o *ClockOutput) stopTimerLocked() {
	if o.endTimer != nil {
		o.endTimer.Stop()
		o.endTimer = nil
	}
}

func (o *ClockOutput) fireEnded() {
	o.mu.Lock()
	if !o.playing {
		o.mu.Unlock()
		return
	}
	o.position = o.song.Duration
	o.playing = false
	fn := o.onEnded
	o.mu.Unlock()

	if fn != nil {
		fn()
	}
}
