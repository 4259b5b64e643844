package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	journeylens "github.com/sameearif/JourneyLens"
	"github.com/sameearif/JourneyLens/internal/config"
	"github.com/sameearif/JourneyLens/internal/handler"
	"github.com/sameearif/JourneyLens/internal/repository"
	aiService "github.com/sameearif/JourneyLens/internal/service/ai"
	authService "github.com/sameearif/JourneyLens/internal/service/auth"
	calibrationService "github.com/sameearif/JourneyLens/internal/service/calibration"
	chapterService "github.com/sameearif/JourneyLens/internal/service/chapter"
	"github.com/sameearif/JourneyLens/internal/service/image"
	speechService "github.com/sameearif/JourneyLens/internal/service/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	migrations, err := fs.Sub(journeylens.MigrationsFS, "migrations")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open embedded migrations")
	}
	if err := repository.RunMigrations(cfg.Database.URL, migrations); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := repository.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	visions := repository.NewVisionRepository(pool)
	journals := repository.NewJournalRepository(pool)
	stories := repository.NewStoryRepository(pool)

	aiSvc, err := aiService.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize AI service")
	}

	images := image.NewClient(cfg.Image)
	if !cfg.Image.Enabled() {
		log.Warn().Msg("image provider not configured, visions will be created without images")
	}

	var speechSvc *speechService.Service
	if cfg.Speech.TTSEnabled() || cfg.Speech.ASREnabled() {
		speechSvc = speechService.NewService(cfg.Speech)
		log.Info().Msg("speech service initialized")
	} else {
		log.Warn().Msg("speech provider not configured, skipping speech endpoints")
	}

	authSvc := authService.NewService(users, cfg.Auth)
	calibrationSvc := calibrationService.NewService(calibrationService.NewStore(), aiSvc, images, visions, stories)
	chapterSvc := chapterService.NewService(aiSvc, images, visions, journals, stories)

	router := handler.NewRouter(handler.Deps{
		Auth:        authSvc,
		Calibration: calibrationSvc,
		Chapter:     chapterSvc,
		Speech:      speechSvc,
		Images:      images,
		Users:       users,
		Visions:     visions,
		Journals:    journals,
		Stories:     stories,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("JourneyLens API listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
