package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"club-finance/internal/logger"
	"club-finance/internal/models"
)

const CleanupSchedule = "0 3 * * *"

type CleanupService struct {
	DB                    *gorm.DB
	Notifications         *NotificationService
	Logger                *logger.Logger
	ProofRetention        time.Duration
	NotificationRetention time.Duration
}

func NewCleanupService(db *gorm.DB, notifications *NotificationService, log *logger.Logger, proofDays, notificationDays int) *CleanupService {
	return &CleanupService{
		DB:                    db,
		Notifications:         notifications,
		Logger:                log,
		ProofRetention:        time.Duration(proofDays) * 24 * time.Hour,
		NotificationRetention: time.Duration(notificationDays) * 24 * time.Hour,
	}
}

type CleanupReport struct {
	Proofs        int64 `json:"proofs"`
	Notifications int64 `json:"notifications"`
}

// CleanupProofs deletes approved proofs older than the retention whose payment already has
// a ticket. The ticket keeps its own copy of the proof images.
func (s *CleanupService) CleanupProofs(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.ProofRetention)
	ticketed := s.DB.Model(&models.PaymentTicket{}).Select("payment_id")

	res := s.DB.WithContext(ctx).
		Where("status = ? AND reviewed_at < ? AND payment_id IN (?)", models.ProofStatusApproved, cutoff, ticketed).
		Delete(&models.PaymentProof{})
	return res.RowsAffected, res.Error
}

func (s *CleanupService) CleanupNotifications(ctx context.Context) (int64, error) {
	return s.Notifications.CleanupRead(ctx, s.NotificationRetention)
}

func (s *CleanupService) Run(ctx context.Context) (*CleanupReport, error) {
	s.Logger.Info("Starting cleanup...")

	proofs, err := s.CleanupProofs(ctx)
	if err != nil {
		return nil, err
	}
	notifications, err := s.CleanupNotifications(ctx)
	if err != nil {
		return nil, err
	}

	s.Logger.Infof("Cleanup removed %d proofs and %d notifications", proofs, notifications)
	return &CleanupReport{Proofs: proofs, Notifications: notifications}, nil
}

// StartScheduler runs the cleanup daily at 03:00. Stop the returned cron on shutdown.
func (s *CleanupService) StartScheduler() *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc(CleanupSchedule, func() {
		if _, err := s.Run(context.Background()); err != nil {
			s.Logger.Errorf("Scheduled cleanup failed: %v", err)
		}
	})
	if err != nil {
		s.Logger.Errorf("Error scheduling cleanup task: %v", err)
		return nil
	}
	c.Start()
	s.Logger.Infof("Cleanup scheduler started (%s)", CleanupSchedule)
	return c
}
