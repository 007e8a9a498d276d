package smartlist

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"localify/internal/library"
	"localify/pkg/models"
)

// Playlists with this many songs or fewer are discarded so the UI never
// shows degenerate mixes.
const minPlaylistSize = 5

const (
	week  = 7 * 24 * time.Hour
	month = 30 * 24 * time.Hour
)

// Generator derives ephemeral smart playlists from listening history and
// AI-assigned tags. Playlists are recomputed on every call and never
// persisted; their ids are stable so clients can key on them.
type Generator struct {
	lib *library.Library
	rng *rand.Rand
}

// New creates a generator over the given library.
func New(lib *library.Library) *Generator {
	return &Generator{
		lib: lib,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate produces the current smart playlist set. Returns nothing when
// AI features are disabled or the library is empty.
func (g *Generator) Generate() []models.SmartPlaylist {
	songs := g.lib.Songs()
	if len(songs) == 0 || !g.lib.AIEnabled() {
		return nil
	}
	return generate(songs, g.lib.Artists(), time.Now(), g.rng)
}

// generate is the pure pipeline: a fixed ordered list of generator
// functions, each producing at most one candidate, filtered by the minimum
// size rule.
func generate(songs []models.Song, artists []models.Artist, now time.Time, rng *rand.Rand) []models.SmartPlaylist {
	weekAgo := now.Add(-week).UnixMilli()
	monthAgo := now.Add(-month).UnixMilli()

	generators := []func() *models.SmartPlaylist{
		func() *models.SmartPlaylist { return timeOfDayMix(songs, now, rng) },
		func() *models.SmartPlaylist {
			// Favorites plus long-unheard tracks, concatenated as-is.
			pool := filterSongs(songs, func(s models.Song) bool { return s.PlayCount > 5 })
			pool = append(pool, filterSongs(songs, func(s models.Song) bool { return s.LastPlayed < monthAgo })...)
			return &models.SmartPlaylist{
				ID:          "daily-drive",
				Name:        "Daily Drive Mix",
				Description: "Your favorite tracks and new discoveries.",
				Songs:       take(shuffleSongs(pool, rng), 50),
				Gradient:    "from-blue-500 to-green-400",
			}
		},
		func() *models.SmartPlaylist {
			return &models.SmartPlaylist{
				ID:          "workout-mix",
				Name:        "Workout Mix",
				Description: "High-energy tracks to keep you moving.",
				Songs:       take(shuffleSongs(byMood(songs, "workout"), rng), 50),
				Gradient:    "from-red-500 to-orange-400",
			}
		},
		func() *models.SmartPlaylist {
			return &models.SmartPlaylist{
				ID:          "focus-flow",
				Name:        "Focus Flow",
				Description: "Instrumental and ambient music for concentration.",
				Songs:       take(shuffleSongs(byMood(songs, "focus"), rng), 50),
				Gradient:    "from-gray-700 to-blue-900",
			}
		},
		func() *models.SmartPlaylist {
			recent := filterSongs(songs, func(s models.Song) bool { return s.LastPlayed > weekAgo })
			sort.SliceStable(recent, func(i, j int) bool { return recent[i].PlayCount > recent[j].PlayCount })
			return &models.SmartPlaylist{
				ID:          "on-repeat",
				Name:        "On Repeat",
				Description: "Songs you've had on repeat recently.",
				Songs:       take(recent, 30),
				Gradient:    "from-yellow-400 to-red-500",
			}
		},
		func() *models.SmartPlaylist {
			old := filterSongs(songs, func(s models.Song) bool {
				return s.LastPlayed < monthAgo && s.PlayCount > 2
			})
			return &models.SmartPlaylist{
				ID:          "throwback-jams",
				Name:        "Throwback Jams",
				Description: "Rediscover tracks you haven't heard in a while.",
				Songs:       take(shuffleSongs(old, rng), 40),
				Gradient:    "from-indigo-500 to-purple-500",
			}
		},
		func() *models.SmartPlaylist {
			newest := make([]models.Song, len(songs))
			copy(newest, songs)
			sort.SliceStable(newest, func(i, j int) bool { return newest[i].DateAdded > newest[j].DateAdded })
			return &models.SmartPlaylist{
				ID:          "new-arrivals",
				Name:        "New Arrivals",
				Description: "Your most recently added tracks.",
				Songs:       take(newest, 30),
				Gradient:    "from-teal-400 to-cyan-500",
			}
		},
		func() *models.SmartPlaylist { return artistSpotlight(artists, rng) },
		func() *models.SmartPlaylist {
			return &models.SmartPlaylist{
				ID:          "after-dark",
				Name:        "After Dark",
				Description: "Chill tracks for late-night listening.",
				Songs:       take(shuffleSongs(byMood(songs, "late night"), rng), 40),
				Gradient:    "from-gray-800 to-indigo-900",
			}
		},
		func() *models.SmartPlaylist { return genreExplorer(songs, rng) },
	}

	var playlists []models.SmartPlaylist
	for _, gen := range generators {
		p := gen()
		if p == nil || len(p.Songs) <= minPlaylistSize {
			continue
		}
		playlists = append(playlists, *p)
	}
	return playlists
}

// timeOfDayMix picks a mood bucket by the current hour.
func timeOfDayMix(songs []models.Song, now time.Time, rng *rand.Rand) *models.SmartPlaylist {
	var name, mood string
	switch hour := now.Hour(); {
	case hour < 12:
		name, mood = "Morning Boost", "energetic"
	case hour < 18:
		name, mood = "Afternoon Focus", "focus"
	case hour < 22:
		name, mood = "Evening Chill", "calm"
	default:
		name, mood = "Late Night Vibes", "late night"
	}

	return &models.SmartPlaylist{
		ID:          "moodie-mix",
		Name:        name,
		Description: fmt.Sprintf("A mix for your %s, based on your listening habits.", strings.ToLower(strings.SplitN(name, " ", 2)[0])),
		Songs:       take(shuffleSongs(byMood(songs, mood), rng), 30),
		Gradient:    "from-pink-500 to-purple-600",
	}
}

// artistSpotlight features the artist with the highest play count.
func artistSpotlight(artists []models.Artist, rng *rand.Rand) *models.SmartPlaylist {
	if len(artists) == 0 {
		return nil
	}
	top := artists[0]
	for _, artist := range artists[1:] {
		if artist.PlayCount > top.PlayCount {
			top = artist
		}
	}
	return &models.SmartPlaylist{
		ID:          "artist-spotlight",
		Name:        fmt.Sprintf("Artist Spotlight: %s", top.Name),
		Description: fmt.Sprintf("A deep dive into %s's music.", top.Name),
		Songs:       take(shuffleSongs(top.Songs, rng), 40),
		Gradient:    "from-green-600 to-lime-400",
	}
}

// genreExplorer collects songs of the most frequent genre in the library.
func genreExplorer(songs []models.Song, rng *rand.Rand) *models.SmartPlaylist {
	counts := make(map[string]int)
	for _, song := range songs {
		if song.Tags == nil {
			continue
		}
		for _, genre := range song.Tags.Genres {
			counts[genre]++
		}
	}

	topGenre := ""
	topCount := 0
	for genre, count := range counts {
		if count > topCount || (count == topCount && genre < topGenre) {
			topGenre = genre
			topCount = count
		}
	}
	if topGenre == "" {
		return nil
	}

	matching := filterSongs(songs, func(s models.Song) bool { return s.Tags.HasGenre(topGenre) })
	return &models.SmartPlaylist{
		ID:          "genre-explorer",
		Name:        fmt.Sprintf("Genre Explorer: %s", topGenre),
		Description: fmt.Sprintf("Explore your favorite genre: %s.", topGenre),
		Songs:       take(shuffleSongs(matching, rng), 50),
		Gradient:    "from-amber-500 to-orange-600",
	}
}

func byMood(songs []models.Song, mood string) []models.Song {
	return filterSongs(songs, func(s models.Song) bool { return s.Tags.HasMood(mood) })
}

func filterSongs(songs []models.Song, keep func(models.Song) bool) []models.Song {
	var out []models.Song
	for _, song := range songs {
		if keep(song) {
			out = append(out, song)
		}
	}
	return out
}

// shuffleSongs returns a uniform permutation without mutating the input.
func shuffleSongs(songs []models.Song, rng *rand.Rand) []models.Song {
	out := make([]models.Song, len(songs))
	copy(out, songs)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func take(songs []models.Song, n int) []models.Song {
	if len(songs) <= n {
		return songs
	}
	return songs[:n]
}
