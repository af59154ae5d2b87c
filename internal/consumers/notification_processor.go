package consumers

import (
	"context"
	"errors"
	"strings"

	"club-finance/internal/logger"
	"club-finance/internal/services"
)

// ErrInvalidNotification marks payloads that can never be stored. They are not retried.
var ErrInvalidNotification = errors.New("notification payload is missing user or title")

type NotificationProcessor struct {
	Notifications *services.NotificationService
	Logger        *logger.Logger
}

func NewNotificationProcessor(notifications *services.NotificationService, log *logger.Logger) *NotificationProcessor {
	return &NotificationProcessor{
		Notifications: notifications,
		Logger:        log,
	}
}

// ProcessNotification stores a queued notification.
func (p *NotificationProcessor) ProcessNotification(ctx context.Context, data services.NotificationPayload) error {
	if strings.TrimSpace(data.UserID) == "" || strings.TrimSpace(data.Title) == "" {
		p.Logger.Warnf("dropping notification %+v: %v", data, ErrInvalidNotification)
		return ErrInvalidNotification
	}
	p.Logger.Debugf("Processing notification for %s: %s", data.UserID, data.Title)
	return p.Notifications.Save(ctx, data)
}
