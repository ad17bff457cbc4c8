package main

import (
	"net/http"
	"os"

	"github.com/Marton0710/Web-Pro/internal/config"
	"github.com/Marton0710/Web-Pro/internal/db"
	"github.com/Marton0710/Web-Pro/internal/handlers"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	repo, err := db.NewRepository(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database initialization failed")
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	// Upload directories must exist before the first multipart POST.
	for _, dir := range []string{cfg.AvatarDir, cfg.PhotoDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().Err(err).Str("dir", dir).Msg("creating upload directory failed")
		}
	}

	// Expired sessions are already invisible to lookups; this just
	// keeps the table from growing across restarts.
	if err := repo.CleanExpiredSessions(); err != nil {
		logger.Error().Err(err).Msg("session cleanup failed")
	}

	router := handlers.NewRouter(repo, logger, cfg)

	logger.Info().Str("port", cfg.Port).Msg("server listening")
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
