package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/corridor/hallpass-backend/internal/config"
	"github.com/corridor/hallpass-backend/internal/database"
	"github.com/corridor/hallpass-backend/internal/handler"
	"github.com/corridor/hallpass-backend/internal/logger"
	"github.com/corridor/hallpass-backend/internal/repository"
	"github.com/corridor/hallpass-backend/internal/router"
	"github.com/corridor/hallpass-backend/internal/service"
	"github.com/corridor/hallpass-backend/internal/validator"
	"github.com/corridor/hallpass-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Hallpass Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	kioskRepo := repository.NewKioskRepository(pool)
	periodRepo := repository.NewClassPeriodRepository(pool)
	destinationRepo := repository.NewDestinationRepository(pool)
	passRepo := repository.NewPassRepository(pool)
	overrideRepo := repository.NewOverrideRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	assignmentService := service.NewAssignmentService(kioskRepo, periodRepo)
	passService := service.NewPassService(passRepo, overrideRepo, auditRepo, destinationRepo, assignmentService, rdb, cfg, log)
	kioskService := service.NewKioskService(kioskRepo, periodRepo, passRepo, rdb, cfg.KioskCacheTTL, log)
	directoryService := service.NewDirectoryService(userRepo, destinationRepo, periodRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Pass:      handler.NewPassHandler(passService),
		Kiosk:     handler.NewKioskHandler(kioskService),
		Directory: handler.NewDirectoryHandler(directoryService),
		WS:        handler.NewWSHandler(rdb, kioskService, log, cfg.AllowedOrigins),
	}

	// ─── Start Expiry Sweep ───────────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	expiryWorker := worker.NewExpiryWorker(passRepo, auditRepo, rdb, cfg.SweepInterval, log)
	go expiryWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
