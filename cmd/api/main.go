package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumeBuilder/internal/ai"
	"resumeBuilder/internal/api"
	"resumeBuilder/internal/auth"
	"resumeBuilder/internal/config"
	"resumeBuilder/internal/database"
	"resumeBuilder/internal/render"
	"resumeBuilder/internal/storage"
	"resumeBuilder/internal/store"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	logger.Info("api bootstrapped",
		slog.String("db_host", cfg.Database.Host),
		slog.Int("db_port", cfg.Database.Port),
		slog.String("db_name", cfg.Database.Name),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	logger.Info("database ready")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer queue.Close()

	storageClient, err := storage.NewClient(ctx, cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	authService, err := auth.NewAuthServiceFromFiles(
		cfg.Auth.PrivateKeyPath,
		cfg.Auth.PublicKeyPath,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	generator, err := ai.NewGeminiGenerator(ctx, cfg.AI.APIKey, cfg.AI.Model)
	if err != nil {
		log.Fatalf("init gemini client: %v", err)
	}

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, api.Deps{
		DB:        db,
		Auth:      authService,
		Redis:     redisClient,
		Notify:    redisClient,
		Resumes:   store.New(db),
		Templates: render.NewRegistry(),
		Assistant: ai.NewService(generator, cfg.AI.Timeout, logger),
		Queue:     queue,
		Objects:   storageClient,
		LoginGuard: api.LoginGuard{
			RateLimit:     cfg.Auth.LoginRateLimit,
			RateWindow:    cfg.Auth.LoginRateWindow,
			LockThreshold: cfg.Auth.LockThreshold,
			LockTTL:       cfg.Auth.LockTTL,
		},
		CookieSecure:   cfg.Auth.CookieSecure,
		ExportMaxRetry: cfg.Worker.ExportMaxRetry,
		LinkTTL:        cfg.Auth.DownloadLinkTTL,
		AllowedOrigins: cfg.API.Origins(),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
