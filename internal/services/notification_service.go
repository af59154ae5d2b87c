package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"club-finance/internal/logger"
	"club-finance/internal/metrics"
	"club-finance/internal/models"
)

// TypeNotification is the asynq task type handled by the worker.
const TypeNotification = "notification:create"

type NotificationPayload struct {
	UserID  string `json:"userId"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Notifier is what the business services use to reach members and admins.
type Notifier interface {
	NotifyMember(ctx context.Context, userID, title, message, kind string)
	NotifyAdmins(ctx context.Context, title, message, kind string)
}

type NotificationService struct {
	DB     *gorm.DB
	Queue  *asynq.Client // nil: write rows inline
	Logger *logger.Logger
}

func NewNotificationService(db *gorm.DB, queue *asynq.Client, log *logger.Logger) *NotificationService {
	return &NotificationService{DB: db, Queue: queue, Logger: log}
}

func NewNotificationTask(payload NotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotification, data), nil
}

// Save writes the notification row. The worker calls this for queued notifications.
func (s *NotificationService) Save(ctx context.Context, p NotificationPayload) error {
	if p.Type == "" {
		p.Type = models.NotificationInfo
	}
	n := models.Notification{
		UserID:  p.UserID,
		Title:   p.Title,
		Message: p.Message,
		Type:    p.Type,
	}
	return s.DB.WithContext(ctx).Create(&n).Error
}

func (s *NotificationService) dispatch(ctx context.Context, p NotificationPayload) error {
	if s.Queue == nil {
		if err := s.Save(ctx, p); err != nil {
			return err
		}
		metrics.NotificationsSent.WithLabelValues("inline").Inc()
		return nil
	}

	task, err := NewNotificationTask(p)
	if err != nil {
		return err
	}
	if _, err := s.Queue.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.Queue("default")); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	metrics.NotificationsSent.WithLabelValues("queued").Inc()
	return nil
}

// NotifyMember notifies a member. Admin recipients are skipped and failures are only logged:
// a notification never fails the operation that triggered it.
func (s *NotificationService) NotifyMember(ctx context.Context, userID, title, message, kind string) {
	var profile models.Profile
	if err := s.DB.WithContext(ctx).Select("id", "role").First(&profile, "id = ?", userID).Error; err != nil {
		s.Logger.Warnf("notification to %s skipped: profile lookup failed: %v", userID, err)
		return
	}
	if profile.IsAdmin() {
		return
	}
	if err := s.dispatch(ctx, NotificationPayload{UserID: userID, Title: title, Message: message, Type: kind}); err != nil {
		s.Logger.Errorf("notification to %s failed: %v", userID, err)
	}
}

func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message, kind string) {
	var adminIDs []string
	if err := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("role = ? AND account_status = ?", models.RoleAdmin, models.AccountActive).
		Pluck("id", &adminIDs).Error; err != nil {
		s.Logger.Errorf("admin notification skipped: %v", err)
		return
	}
	for _, id := range adminIDs {
		if err := s.dispatch(ctx, NotificationPayload{UserID: id, Title: title, Message: message, Type: kind}); err != nil {
			s.Logger.Errorf("notification to admin %s failed: %v", id, err)
		}
	}
}

func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var list []models.Notification
	if err := query.Order("created_at DESC").Limit(100).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		s.DB.WithContext(ctx).Model(&models.Notification{}).Where("id = ? AND user_id = ?", id, userID).Count(&count)
		if count == 0 {
			return NewNotFoundError("notification not found")
		}
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// CleanupRead deletes read notifications created before the cutoff.
func (s *NotificationService) CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := s.DB.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
