package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"localify/internal/config"
	"localify/internal/library"
	"localify/internal/lyrics"
	"localify/internal/metadata"
	"localify/internal/player"
	"localify/internal/server"
	"localify/internal/smartlist"
	"localify/internal/store"
)

func main() {
	configPath := "./config.toml"

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load .env file if present (AI API key, ngrok token)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			logger.WithError(err).Warn("Could not load .env file")
		}
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}

	configureLogger(logger, &cfg.Logging)

	// Check if music directory exists
	if _, err := os.Stat(cfg.Music.LibraryPath); os.IsNotExist(err) {
		logger.WithField("library_path", cfg.Music.LibraryPath).Fatal("Music directory does not exist. Please create it and add your music files.")
	}

	// Initialize the persistent store
	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing store")
	}
	defer st.Close()

	// Build the library over the store
	extractor := metadata.NewExtractor(cfg.Music.SupportedFormats, logger)
	lib := library.New(st, extractor, logger)

	// AI lyrics and tagging
	aiClient := lyrics.NewClient(&cfg.Lyrics, logger)
	lyricsSvc := lyrics.NewService(aiClient, st, logger)

	// Playback engine over a wall-clock output
	engine := player.NewEngine(lib, lyricsSvc, player.NewClockOutput(), logger)

	// Smart playlist generator
	generator := smartlist.New(lib)

	// Create and configure the music server
	musicServer, err := server.NewMusicServer(cfg, lib, engine, lyricsSvc, generator, extractor, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error creating music server")
	}

	// Scan the music library
	if err := musicServer.ScanMusicLibrary(); err != nil {
		logger.WithError(err).Fatal("Error scanning music library")
	}

	// Warn if the library is empty after a scan
	if cfg.Music.ScanOnStartup && len(lib.Songs()) == 0 {
		logger.WithField("supported_formats", cfg.Music.SupportedFormats).Warn("No supported audio files found in music directory")
	}

	// Background tagger assigns genres and moods one song at a time
	taggerCtx, cancelTagger := context.WithCancel(context.Background())
	defer cancelTagger()
	tagger := lyrics.NewTagger(lib, aiClient, logger)
	go tagger.Run(taggerCtx)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := musicServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for shutdown signal
	<-c

	logger.Info("Received shutdown signal")
	cancelTagger()
	musicServer.Shutdown()
}

// configureLogger applies the logging section of the config file.
func configureLogger(logger *logrus.Logger, cfg *config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.WithError(err).Warn("Could not open log file, using stderr")
		} else {
			logger.SetOutput(file)
		}
	}
}
