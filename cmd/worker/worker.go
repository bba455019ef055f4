package main

import (
	"context"
	"log"
	"os"

	"findocbot/internal/app"
	"findocbot/internal/config"
	"findocbot/internal/logger"
	"findocbot/internal/queue"

	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)
	defer logger.Sync()

	ctx := context.Background()
	container, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to build application", "error", err)
		os.Exit(1)
	}
	defer container.Shutdown(context.Background())

	if err := container.Start(ctx); err != nil {
		logger.Error("Failed to start application", "error", err)
		return
	}

	redisOpt, err := queue.RedisConnOpt(cfg)
	if err != nil {
		logger.Error("Invalid Redis configuration", "error", err)
		return
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 20,
			Queues: map[string]int{
				queue.QueueIngestion: 6,
				"default":            3,
				"low":                1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Error("Task failed",
					"type", task.Type(),
					"retried", retried,
					"max_retry", maxRetry,
					"error", err,
				)
			}),
			Logger: queue.NewAsynqLogger(),
		},
	)

	processor := queue.NewTaskProcessor(container.Upload)

	mux := asynq.NewServeMux()
	processor.Register(mux)

	logger.Info("Starting Asynq worker",
		"concurrency", 20,
		"queues", "critical(6), default(3), low(1)",
		"store", cfg.StoreBackend,
		"vectors", cfg.VectorBackend,
	)

	// Run blocks until SIGTERM or SIGINT
	if err := server.Run(mux); err != nil {
		logger.Error("Worker stopped", "error", err)
	}
}
