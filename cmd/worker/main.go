package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumeBuilder/internal/config"
	"resumeBuilder/internal/database"
	"resumeBuilder/internal/metrics"
	"resumeBuilder/internal/pdf"
	"resumeBuilder/internal/render"
	"resumeBuilder/internal/storage"
	"resumeBuilder/internal/store"
	"resumeBuilder/internal/tasks"
	"resumeBuilder/internal/worker"
)

const (
	printTimeout    = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.String("service", "worker"))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	storageClient, err := storage.NewClient(ctx, cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}
	logger.Info("dependencies ready",
		slog.String("bucket", cfg.MinIO.Bucket),
		slog.String("redis_addr", cfg.Redis.Addr()),
	)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password},
		asynq.Config{
			Concurrency:     cfg.Worker.Concurrency,
			ShutdownTimeout: shutdownTimeout,
			ErrorHandler:    exhaustedLogger(logger),
		},
	)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeResumeExport, worker.NewExportTaskHandler(
		store.New(db),
		render.NewRegistry(),
		pdf.NewRodPrinter(printTimeout),
		storageClient,
		worker.NewRedisNotifier(rdb),
		logger,
	))

	if err := srv.Start(mux); err != nil {
		log.Fatalf("start worker: %v", err)
	}
	logger.Info("worker started", slog.Int("concurrency", cfg.Worker.Concurrency))

	<-ctx.Done()
	logger.Info("shutting down worker")
	srv.Shutdown()
}

// exhaustedLogger 只记录已耗尽重试的任务，中间失败由 asynq 自行重排。
func exhaustedLogger(logger *slog.Logger) asynq.ErrorHandler {
	return asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		if retried < maxRetry {
			return
		}
		logger.Error("task retries exhausted",
			slog.String("task_type", task.Type()),
			slog.Int("retried", retried),
			slog.Any("error", err),
		)
	})
}
