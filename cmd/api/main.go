package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"navio/api/internal/cache"
	"navio/api/internal/config"
	"navio/api/internal/database"
	"navio/api/internal/handlers"
	"navio/api/internal/jobs"
	"navio/api/internal/log"
	"navio/api/internal/mail"
	"navio/api/internal/repository"
	"navio/api/internal/repository/jsonfile"
	"navio/api/internal/repository/postgres"
	"navio/api/internal/server"
	"navio/api/internal/service"
	"navio/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	var (
		users    repository.UserStore
		tokens   repository.TokenStore
		auditLog repository.AuditStore
		tx       repository.TxRunner
		dbPool   *pgxpool.Pool
	)
	switch cfg.Storage.Users {
	case "postgres":
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
		dbPool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		users = postgres.NewUserRepository(dbPool)
		tokens = postgres.NewTokenRepository(dbPool)
		auditLog = postgres.NewAuditRepository(dbPool)
		tx = postgres.NewTxRunner(dbPool)
	case "file":
		store, err := jsonfile.Open(cfg.Storage.DataDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open file store")
		}
		users = store.Users()
		tokens = store.Tokens()
		auditLog = store.Audit()
		tx = store
	}

	// Redis only backs the rate limiter, which fails open, so a missing
	// redis degrades the deployment instead of blocking it.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
			redisClient = nil
		}
	}
	limiter := cache.NewRateLimiter(redisClient, logger)

	mailer := mail.New(cfg.Mail, logger)

	var layouts storage.LayoutStore
	switch cfg.Storage.Layout {
	case "s3":
		s3Layouts, err := storage.NewS3LayoutStore(cfg.Storage.S3)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init s3 layout store")
		}
		if err := s3Layouts.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		layouts = s3Layouts
	case "file":
		layouts, err = storage.NewFileLayoutStore(cfg.Storage.DataDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init layout store")
		}
	}

	tourStore, err := storage.NewFileTourStore(cfg.Storage.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tour store")
	}

	authService := service.NewAuthService(users, tokens, auditLog, tx, mailer, limiter, cfg, logger)
	adminService := service.NewAdminService(users, auditLog, logger)
	tourService := service.NewTourService(tourStore, logger)

	if err := service.EnsureAdmin(ctx, users, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("admin bootstrap failed")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, authService, adminService, tourService, layouts, dbPool, redisClient)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(tokens, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
