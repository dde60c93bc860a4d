package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/isdelr/filevault-be/internal/api"
	"github.com/isdelr/filevault-be/internal/config"
	"github.com/isdelr/filevault-be/internal/database"
	"github.com/isdelr/filevault-be/internal/logger"
	"github.com/isdelr/filevault-be/internal/monitoring"
	"github.com/isdelr/filevault-be/internal/notify"
	"github.com/isdelr/filevault-be/internal/services"
	"github.com/isdelr/filevault-be/internal/store"
	"github.com/isdelr/filevault-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel)

	// Ensure the data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatal().Err(err).Str("path", cfg.DataDir).Msg("Failed to create data directory")
	}

	// Set up database
	db, err := database.New(filepath.Join(cfg.DataDir, "events.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the flat-file stores
	users, err := store.NewUserStore(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open user store")
	}
	sessions, err := store.NewTokenStore(filepath.Join(cfg.DataDir, "sessions.json"), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session store")
	}
	resetTokens, err := store.NewTokenStore(filepath.Join(cfg.DataDir, "reset_tokens.json"), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open reset token store")
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.SMTP.Enabled() {
		notifier = notify.NewEmailNotifier(cfg.SMTP)
	} else {
		log.Warn().Msg("SMTP is not configured, password reset links will only be logged")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db)
	identityService, err := services.NewIdentityService(users, sessions, resetTokens, notifier, eventService, services.IdentityConfig{
		FilesRoot:     cfg.FilesDir,
		SessionTTL:    cfg.SessionTTL,
		ResetTokenTTL: cfg.ResetTokenTTL,
		ResetURLBase:  cfg.ResetURLBase,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize identity service")
	}
	fileService := services.NewFileService(identityService, eventService, hub)
	systemService := services.NewSystemService(cfg.FilesDir)

	// Set up the optional expired-token sweep
	var housekeeper *monitoring.Housekeeper
	if cfg.HousekeepingSchedule != "" {
		housekeeper, err = monitoring.NewHousekeeper(cfg.HousekeepingSchedule, map[string]monitoring.Purger{
			"sessions":     sessions,
			"reset_tokens": resetTokens,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up housekeeping")
		}
		housekeeper.Start()
	}

	// Set up router
	router := api.NewRouter(hub, identityService, fileService, eventService, systemService, api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.IsProduction(),
		SessionTTL:     cfg.SessionTTL,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("files_dir", cfg.FilesDir).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if housekeeper != nil {
		housekeeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}
