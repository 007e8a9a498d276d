package player

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"localify/internal/library"
	"localify/internal/lyrics"
	"localify/internal/metadata"
	"localify/internal/store"
	"localify/pkg/models"
)

// fakeOutput is a scriptable output device for engine tests.
type fakeOutput struct {
	loaded   []string
	playing  bool
	position float64
	duration float64
	volume   float64
	onEnded  func()
}

func (f *fakeOutput) Load(song models.Song) error {
	f.loaded = append(f.loaded, song.ID)
	f.position = 0
	f.duration = song.Duration
	f.playing = false
	return nil
}

func (f *fakeOutput) Play() error          { f.playing = true; return nil }
func (f *fakeOutput) Pause()               { f.playing = false }
func (f *fakeOutput) Seek(seconds float64) { f.position = seconds }
func (f *fakeOutput) SetVolume(v float64)  { f.volume = v }
func (f *fakeOutput) Position() float64    { return f.position }
func (f *fakeOutput) Duration() float64    { return f.duration }
func (f *fakeOutput) OnEnded(fn func())    { f.onEnded = fn }

// end simulates the device reaching the end of the current song.
func (f *fakeOutput) end() {
	f.position = f.duration
	f.playing = false
	f.onEnded()
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testEngine(t *testing.T) (*Engine, *fakeOutput) {
	t.Helper()
	logger := testLogger()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	extractor := metadata.NewExtractor([]string{".mp3"}, logger)
	lib := library.New(s, extractor, logger)
	lyricsSvc := lyrics.NewService(nil, s, logger)

	output := &fakeOutput{}
	return NewEngine(lib, lyricsSvc, output, logger), output
}

func testQueue(n int) []models.Song {
	queue := make([]models.Song, n)
	for i := range queue {
		queue[i] = models.Song{
			ID:       string(rune('a' + i)),
			Title:    "Song " + string(rune('A'+i)),
			Artist:   "X",
			Album:    "Rec",
			Duration: 180,
		}
	}
	return queue
}

func explicit(v bool) *bool { return &v }

func TestPlaySongStartsPlayback(t *testing.T) {
	e, output := testEngine(t)
	queue := testQueue(3)
	// Pre-resolved lyrics keep the transition synchronous.
	queue[0].IsExplicit = explicit(false)

	e.PlaySong(queue[0], queue)

	state := e.State()
	if state.CurrentSong == nil || state.CurrentSong.ID != "a" {
		t.Fatalf("unexpected current song: %+v", state.CurrentSong)
	}
	if !state.IsPlaying {
		t.Error("expected playing state")
	}
	if len(state.Queue) != 3 {
		t.Errorf("expected queue of 3, got %d", len(state.Queue))
	}
	if !output.playing {
		t.Error("expected output to be playing")
	}
}

func TestPlaySongDefaultsQueueToLibrary(t *testing.T) {
	e, _ := testEngine(t)

	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"one.mp3", "two.mp3", "three.mp3"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("not really audio: "+name), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		paths = append(paths, p)
	}
	if added := e.lib.ImportFiles(paths); added != 3 {
		t.Fatalf("expected 3 imports, got %d", added)
	}

	songs := e.lib.Songs()
	song := songs[0]
	song.IsExplicit = explicit(false)
	e.PlaySong(song, nil)

	if got := len(e.State().Queue); got != 3 {
		t.Errorf("empty queue must default to the full library, got %d songs", got)
	}
}

func TestTogglePlay(t *testing.T) {
	e, output := testEngine(t)

	// No-op with nothing loaded
	e.TogglePlay()
	if e.State().IsPlaying {
		t.Error("toggle with no song must stay paused")
	}

	queue := testQueue(1)
	queue[0].IsExplicit = explicit(false)
	e.PlaySong(queue[0], queue)

	e.TogglePlay()
	if e.State().IsPlaying || output.playing {
		t.Error("expected paused after toggle")
	}

	e.TogglePlay()
	if !e.State().IsPlaying || !output.playing {
		t.Error("expected playing after second toggle")
	}
}

func TestPlayNextAdvancesAndStopsAtEnd(t *testing.T) {
	e, _ := testEngine(t)
	queue := testQueue(2)
	for i := range queue {
		queue[i].IsExplicit = explicit(false)
	}

	e.PlaySong(queue[0], queue)
	e.PlayNext()

	state := e.State()
	if state.CurrentSong.ID != "b" {
		t.Fatalf("expected song b, got %s", state.CurrentSong.ID)
	}

	// At the end of the queue without repeat-all, playback stops and the
	// current song stays.
	e.PlayNext()
	state = e.State()
	if state.CurrentSong.ID != "b" {
		t.Errorf("current song must not change at queue end, got %s", state.CurrentSong.ID)
	}
	if state.IsPlaying {
		t.Error("expected stopped at queue end")
	}
}

func TestPlayNextWrapsWithRepeatAll(t *testing.T) {
	e, _ := testEngine(t)
	queue := testQueue(2)
	for i := range queue {
		queue[i].IsExplicit = explicit(false)
	}

	e.ToggleRepeat() // none -> all
	e.PlaySong(queue[1], queue)
	e.PlayNext()

	if got := e.State().CurrentSong.ID; got != "a" {
		t.Errorf("expected wrap to song a, got %s", got)
	}
	if !e.State().IsPlaying {
		t.Error("expected playing after wrap")
	}
}

func TestPlayPrevRestartsAfterThreeSeconds(t *testing.T) {
	e, output := testEngine(t)
	queue := testQueue(2)
	for i := range queue {
		queue[i].IsExplicit = explicit(false)
	}

	e.PlaySong(queue[1], queue)
	output.position = 10

	e.PlayPrev()

	state := e.State()
	if state.CurrentSong.ID != "b" {
		t.Errorf("expected same song after restart, got %s", state.CurrentSong.ID)
	}
	if output.position != 0 {
		t.Errorf("expected seek to 0, got %f", output.position)
	}
}

func TestPlayPrevMovesBackEarlyInSong(t *testing.T) {
	e, output := testEngine(t)
	queue := testQueue(2)
	for i := range queue {
		queue[i].IsExplicit = explicit(false)
	}

	e.PlaySong(queue[1], queue)
	output.position = 1

	e.PlayPrev()

	if got := e.State().CurrentSong.ID; got != "a" {
		t.Errorf("expected previous song a, got %s", got)
	}

	// At the head without repeat-all, prev is a no-op.
	output.position = 1
	e.PlayPrev()
	if got := e.State().CurrentSong.ID; got != "a" {
		t.Errorf("expected song a to stay, got %s", got)
	}
}

func TestRepeatOneRestartsOnSongEnd(t *testing.T) {
	e, output := testEngine(t)
	queue := testQueue(2)
	for i := range queue {
		queue[i].IsExplicit = explicit(false)
	}

	e.ToggleRepeat() // all
	e.ToggleRepeat() // one
	e.PlaySong(queue[0], queue)

	output.end()

	state := e.State()
	if state.CurrentSong.ID != "a" {
		t.Errorf("repeat-one must restart the same song, got %s", state.CurrentSong.ID)
	}
	if output.position != 0 {
		t.Errorf("expected restart from 0, got %f", output.position)
	}
	if !output.playing {
		t.Error("expected playback to continue")
	}
}

func TestSongEndAdvancesQueue(t *testing.T) {
	e, output := testEngine(t)
	queue := testQueue(3)
	for i := range queue {
		queue[i].IsExplicit = explicit(false)
	}

	e.PlaySong(queue[0], queue)
	output.end()

	if got := e.State().CurrentSong.ID; got != "b" {
		t.Errorf("expected advance to b on song end, got %s", got)
	}
}

func TestShuffleKeepsMembershipAndRestoresOrder(t *testing.T) {
	e, _ := testEngine(t)
	queue := testQueue(8)
	for i := range queue {
		queue[i].IsExplicit = explicit(false)
	}

	e.PlaySong(queue[0], queue)

	e.ToggleShuffle()
	shuffled := e.State().Queue
	if len(shuffled) != len(queue) {
		t.Fatalf("shuffle changed queue length: %d", len(shuffled))
	}
	seen := make(map[string]int)
	for _, s := range shuffled {
		seen[s.ID]++
	}
	for _, s := range queue {
		if seen[s.ID] != 1 {
			t.Fatalf("shuffle lost or duplicated song %s", s.ID)
		}
	}

	e.ToggleShuffle()
	restored := e.State().Queue
	for i := range queue {
		if restored[i].ID != queue[i].ID {
			t.Fatalf("shuffle-off must restore original order, index %d got %s", i, restored[i].ID)
		}
	}
}

func TestToggleRepeatCycles(t *testing.T) {
	e, _ := testEngine(t)

	modes := []RepeatMode{RepeatAll, RepeatOne, RepeatNone, RepeatAll}
	for _, expected := range modes {
		if got := e.ToggleRepeat(); got != expected {
			t.Fatalf("expected repeat mode %s, got %s", expected, got)
		}
	}
}

func TestSetVolumeIsNotClamped(t *testing.T) {
	e, output := testEngine(t)

	e.SetVolume(1.5)
	if e.State().Volume != 1.5 || output.volume != 1.5 {
		t.Errorf("volume must pass through unclamped, got %f", e.State().Volume)
	}
}

func TestRemoveFromQueue(t *testing.T) {
	e, _ := testEngine(t)
	queue := testQueue(3)
	for i := range queue {
		queue[i].IsExplicit = explicit(false)
	}

	e.PlaySong(queue[0], queue)

	e.RemoveFromQueue("b")
	if got := len(e.State().Queue); got != 2 {
		t.Errorf("expected 2 songs after removal, got %d", got)
	}

	// Removing the current song is a no-op
	e.RemoveFromQueue("a")
	if got := len(e.State().Queue); got != 2 {
		t.Errorf("current song removal must be a no-op, got %d songs", got)
	}
}

func TestUpdateQueue(t *testing.T) {
	e, _ := testEngine(t)
	queue := testQueue(2)
	for i := range queue {
		queue[i].IsExplicit = explicit(false)
	}

	e.PlaySong(queue[0], queue)
	e.UpdateQueue(testQueue(5))

	if got := len(e.State().Queue); got != 5 {
		t.Errorf("expected queue of 5, got %d", got)
	}
}

func TestStaleLyricsOverwriteCurrentSong(t *testing.T) {
	// With a nil AI client the lyrics service resolves immediately with a
	// cached negative result; the async apply then lands on whatever song
	// is current. The engine keeps last-write-wins semantics on purpose.
	e, _ := testEngine(t)
	queue := testQueue(2)

	e.PlaySong(queue[0], queue) // triggers async resolution for "a"

	deadline := time.Now().Add(2 * time.Second)
	for e.State().CurrentSong.IsExplicit == nil {
		if time.Now().After(deadline) {
			t.Fatal("lyrics resolution did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}

	state := e.State()
	if *state.CurrentSong.IsExplicit {
		t.Error("negative lyric result must mark song non-explicit")
	}
	if state.LoadingLyrics {
		t.Error("lyrics loading flag must clear after resolution")
	}
}
