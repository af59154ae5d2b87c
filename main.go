package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"club-finance/internal/auth"
	"club-finance/internal/config"
	"club-finance/internal/database"
	grpcServer "club-finance/internal/grpc"
	"club-finance/internal/handlers"
	"club-finance/internal/lock"
	"club-finance/internal/logger"
	"club-finance/internal/router"
	"club-finance/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLog := logger.New(cfg.LogLevel, cfg.LogFile)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// Initialize Database
	if err := database.Connect(cfg, appLog); err != nil {
		appLog.Fatal(err)
	}
	if err := database.Migrate(database.DB); err != nil {
		appLog.Fatal(err)
	}
	db := database.DB

	// Redis backs the reconciliation lock and, with NOTIFY_ASYNC, the notification queue.
	var locker lock.Locker = lock.NewLocalLocker()
	var queue *asynq.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			appLog.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			appLog.Fatalf("Failed to reach redis: %v", err)
		}
		locker = lock.NewRedisLocker(rdb)

		if cfg.NotifyAsync {
			redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
			if err != nil {
				appLog.Fatalf("Invalid REDIS_URL: %v", err)
			}
			queue = asynq.NewClient(redisOpt)
			defer queue.Close()
		}
	} else if cfg.NotifyAsync {
		appLog.Warn("NOTIFY_ASYNC is set without REDIS_URL, notifications are written inline")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)

	// Init Services
	notificationService := services.NewNotificationService(db, queue, appLog)
	ticketService := services.NewTicketService(db, appLog)
	syncService := services.NewGroupSyncService(db, locker, notificationService, appLog)
	memberService := services.NewMemberService(db, tokens, notificationService, appLog)
	paymentService := services.NewPaymentService(db, notificationService, appLog)
	cleanupService := services.NewCleanupService(db, notificationService, appLog,
		cfg.ProofRetentionDays, cfg.NotificationRetentionDays)

	if cfg.AdminEmail != "" {
		created, err := memberService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword, "Administrator")
		if err != nil {
			appLog.Fatalf("Failed to seed admin: %v", err)
		}
		if created {
			appLog.Infof("Admin account %s created", cfg.AdminEmail)
		}
	}

	h := &handlers.Handler{
		Tokens:        tokens,
		Members:       memberService,
		Payments:      paymentService,
		Proofs:        services.NewProofService(db, notificationService, appLog),
		Review:        services.NewReviewService(db, ticketService, notificationService, appLog),
		Tickets:       ticketService,
		Groups:        services.NewGroupService(db, syncService, appLog),
		Sync:          syncService,
		Notifications: notificationService,
		Logger:        appLog,
	}
	r := router.New(h, appLog)

	// Start gRPC server
	go func() {
		err := grpcServer.StartGRPCServer(cfg.GrpcPort, &grpcServer.Server{
			Tickets:  ticketService,
			Payments: paymentService,
			Cleanup:  cleanupService,
			Logger:   appLog,
		})
		if err != nil {
			appLog.Fatalf("gRPC server stopped: %v", err)
		}
	}()

	// Start Cron Schedulers
	if c := cleanupService.StartScheduler(); c != nil {
		defer c.Stop()
	}

	appLog.Infof("HTTP Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		appLog.Fatal("Failed to start server: ", err)
	}
}
