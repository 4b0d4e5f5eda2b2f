package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/bridgesync/bridgesync/internal/api"
	"github.com/bridgesync/bridgesync/internal/auth"
	"github.com/bridgesync/bridgesync/internal/config"
	"github.com/bridgesync/bridgesync/internal/database"
	"github.com/bridgesync/bridgesync/internal/presenter"
	"github.com/bridgesync/bridgesync/internal/queue"
	"github.com/bridgesync/bridgesync/internal/repository"
	"github.com/bridgesync/bridgesync/internal/s3storage"
	"github.com/bridgesync/bridgesync/internal/uploader"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	store, err := s3storage.New(cfg)
	if err != nil {
		logger.Error("init storage", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Error("ensure bucket", "error", err)
		os.Exit(1)
	}

	users := repository.NewUserRepository(pool)
	profiles := repository.NewProfileRepository(pool)
	uploads := repository.NewUploadRepository(pool)
	summaries := repository.NewSummaryRepository(pool)
	tasks := repository.NewTaskRepository(pool)

	authSvc := auth.NewService(users, cfg.JWTSecret, cfg.TokenTTL)
	orchestrator := uploader.New(auth.ContextAccessor{}, store, uploads, cfg.SignedURLTTL, logger)
	lister := presenter.New(uploads, store, cfg.SignedURLTTL, logger)

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	a := api.NewAPI(cfg, authSvc, profiles, orchestrator, lister, summaries, tasks, queue.NewEnqueuer(queueClient), logger)
	srv := api.NewServer(cfg, a, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
