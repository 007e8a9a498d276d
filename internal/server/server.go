package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"localify/internal/auth"
	"localify/internal/cache"
	"localify/internal/config"
	"localify/internal/library"
	"localify/internal/lyrics"
	"localify/internal/metadata"
	"localify/internal/ngrok"
	"localify/internal/player"
	"localify/internal/smartlist"
)

// MusicServer is the HTTP front end over the library, playback engine and
// lyrics services.
type MusicServer struct {
	config       *config.Config
	lib          *library.Library
	engine       *player.Engine
	lyricsSvc    *lyrics.Service
	generator    *smartlist.Generator
	extractor    *metadata.Extractor
	artCache     *cache.ArtCache
	smartCache   *cache.SmartPlaylistCache
	authService  *auth.Service
	ngrokService *ngrok.Service
	watcher      *fsnotify.Watcher
	logger       *logrus.Logger
}

// NewMusicServer creates a new music server instance
func NewMusicServer(cfg *config.Config, lib *library.Library, engine *player.Engine, lyricsSvc *lyrics.Service, generator *smartlist.Generator, extractor *metadata.Extractor, logger *logrus.Logger) (*MusicServer, error) {
	// Create auth service
	authSvc, err := auth.NewService(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	// Create ngrok service
	ngrokSvc, err := ngrok.NewService(&cfg.Ngrok, logger)
	if err != nil {
		logger.WithError(err).Warn("Ngrok service not available")
		ngrokSvc = nil
	}

	server := &MusicServer{
		config:       cfg,
		lib:          lib,
		engine:       engine,
		lyricsSvc:    lyricsSvc,
		generator:    generator,
		extractor:    extractor,
		artCache:     cache.NewArtCache(),
		smartCache:   cache.NewSmartPlaylistCache(),
		authService:  authSvc,
		ngrokService: ngrokSvc,
		logger:       logger,
	}

	return server, nil
}

// ScanMusicLibrary walks the music directory and imports every audio file.
func (ms *MusicServer) ScanMusicLibrary() error {
	if !ms.config.Music.ScanOnStartup {
		ms.logger.Info("Skipping library scan (disabled in config)")
		return nil
	}

	ms.logger.WithField("library_path", ms.config.Music.LibraryPath).Info("Scanning music library")

	var paths []string
	walkErr := filepath.Walk(ms.config.Music.LibraryPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ms.extractor.IsAudioFile(path) {
			paths = append(paths, path)
		}
		return nil
	})

	imported := ms.lib.ImportFiles(paths)
	ms.logger.WithField("song_count", imported).Info("Library scan complete")
	return walkErr
}

// Start starts the music server
func (ms *MusicServer) Start() error {
	// Start file watcher if enabled
	if ms.config.Music.WatchForChanges {
		if err := ms.startFileWatcher(); err != nil {
			ms.logger.WithError(err).Warn("Could not start file watcher")
		} else {
			defer ms.stopFileWatcher()
		}
	}

	// Set up routes
	ms.setupRoutes()

	localAddress := fmt.Sprintf("http://%s", ms.config.GetAddress())

	ms.logger.WithFields(logrus.Fields{
		"port":       ms.config.Server.Port,
		"song_count": len(ms.lib.Songs()),
	}).Info("Localify server starting")
	if ms.config.Music.WatchForChanges {
		ms.logger.WithField("library_path", ms.config.Music.LibraryPath).Info("File watcher monitoring library")
	}
	ms.logger.WithField("address", localAddress).Info("Local access")

	// Start ngrok tunnel if enabled
	if ms.ngrokService != nil {
		ctx := context.Background()
		if err := ms.ngrokService.StartTunnel(ctx, localAddress); err != nil {
			ms.logger.WithError(err).Warn("Could not start ngrok tunnel")
		} else {
			defer ms.ngrokService.Stop()
		}
	}

	// Create server with timeout
	server := &http.Server{
		Addr:        ms.config.GetAddress(),
		ReadTimeout: time.Duration(ms.config.Server.ReadTimeout) * time.Second,
	}

	return server.ListenAndServe()
}

func (ms *MusicServer) setupRoutes() {
	handle := func(pattern string, handler http.HandlerFunc) {
		chained := ms.panicRecoveryMiddleware(
			ms.requestLoggingMiddleware(
				ms.corsMiddleware(
					ms.authMiddleware(handler))))
		http.Handle(pattern, chained)
	}

	handle("/", ms.handleHome)
	http.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(ms.config.Server.StaticDir))))
	handle("/api/songs", ms.handleGetSongs)
	handle("/api/songs/count", ms.handleGetSongCount)
	handle("/api/songs/", ms.handleSongSubroutes)
	handle("/api/albums", ms.handleGetAlbums)
	handle("/api/albums/", ms.handleGetAlbum)
	handle("/api/artists", ms.handleGetArtists)
	handle("/api/artists/", ms.handleGetArtist)
	handle("/stream/", ms.handleStreamSong)
	handle("/coverart/", ms.handleCoverArt)
	handle("/health", ms.handleHealthCheck)

	// Player routes
	handle("/api/player/state", ms.handleGetPlayerState)
	handle("/api/player/play", ms.handlePlaySong)
	handle("/api/player/toggle", ms.handleTogglePlay)
	handle("/api/player/next", ms.handlePlayNext)
	handle("/api/player/prev", ms.handlePlayPrev)
	handle("/api/player/seek", ms.handleSeek)
	handle("/api/player/volume", ms.handleSetVolume)
	handle("/api/player/shuffle", ms.handleToggleShuffle)
	handle("/api/player/repeat", ms.handleToggleRepeat)
	handle("/api/player/queue", ms.handleQueue)
	handle("/api/player/events", ms.handlePlayerEvents)

	// Library state routes
	handle("/api/likes", ms.handleGetLikes)
	handle("/api/likes/toggle", ms.handleToggleLike)
	handle("/api/pins", ms.handleGetPins)
	handle("/api/pins/toggle", ms.handleTogglePin)
	handle("/api/recents", ms.handleGetRecents)
	handle("/api/smart-playlists", ms.handleGetSmartPlaylists)
	handle("/api/ai", ms.handleGetAIStatus)
	handle("/api/ai/toggle", ms.handleToggleAI)

	// Upload route
	handle("/api/upload", ms.handleUploadSong)

	// Auth routes
	handle("/api/auth/login", ms.handleLogin)
	handle("/api/auth/logout", ms.handleLogout)
	handle("/api/auth/status", ms.handleAuthStatus)

	// Playlist routes
	handle("/api/playlists", ms.handleGetPlaylists)
	handle("/api/playlists/create", ms.handleCreatePlaylist)
	handle("/api/playlists/", func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(r.URL.Path, "/")
		if len(pathParts) >= 5 && pathParts[4] == "songs" {
			switch r.Method {
			case "GET":
				ms.handleGetPlaylistSongs(w, r)
			case "POST":
				ms.handleAddSongToPlaylist(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		} else {
			switch r.Method {
			case "GET":
				ms.handleGetPlaylist(w, r)
			case "DELETE":
				ms.handleDeletePlaylist(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		}
	})
}

// Shutdown gracefully shuts down the music server
func (ms *MusicServer) Shutdown() {
	ms.logger.Info("Shutting down music server")

	// Stop file watcher
	ms.stopFileWatcher()

	ms.logger.Info("Music server shutdown complete")
}
