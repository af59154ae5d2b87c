package main

import (
	"context"
	"log"

	"club-finance/internal/auth"
	"club-finance/internal/config"
	"club-finance/internal/database"
	"club-finance/internal/logger"
	"club-finance/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLog := logger.New(cfg.LogLevel, cfg.LogFile)

	// Initialize Database
	if err := database.Connect(cfg, appLog); err != nil {
		appLog.Fatal(err)
	}

	// Run Migrations
	appLog.Info("Running database migrations...")
	if err := database.Migrate(database.DB); err != nil {
		appLog.Fatal(err)
	}

	if cfg.AdminEmail != "" {
		members := services.NewMemberService(database.DB, auth.NewTokenManager(cfg.JWTSecret, 0),
			services.NewNotificationService(database.DB, nil, appLog), appLog)
		created, err := members.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword, "Administrator")
		if err != nil {
			appLog.Fatalf("Failed to seed admin: %v", err)
		}
		if created {
			appLog.Infof("Admin account %s created", cfg.AdminEmail)
		}
	}

	appLog.Info("Migrations completed successfully!")
}
