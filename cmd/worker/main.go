package main

import (
	"log"

	"github.com/hibiken/asynq"

	"club-finance/internal/config"
	"club-finance/internal/consumers"
	"club-finance/internal/database"
	"club-finance/internal/logger"
	"club-finance/internal/services"
	"club-finance/internal/worker"
)

func main() {
	cfg, err := config.Load("../../.env", ".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLog := logger.New(cfg.LogLevel, cfg.LogFile)

	// Connect DB
	if err := database.Connect(cfg, appLog); err != nil {
		appLog.Fatal(err)
	}

	processor := consumers.NewNotificationProcessor(services.NewNotificationService(database.DB, nil, appLog), appLog)

	// Redis
	redisURL := cfg.RedisURL
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		appLog.Fatalf("Invalid REDIS_URL: %v", err)
	}

	appLog.Info("Starting Asynq Worker...")
	if err := worker.StartWorker(redisOpt, processor, appLog); err != nil {
		appLog.Fatalf("could not run server: %v", err)
	}
}
