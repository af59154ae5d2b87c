package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

type Notification struct {
	ID        string    `gorm:"column:id;size:36;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;size:36;not null;index" json:"user_id"`
	Title     string    `gorm:"column:title;size:255;not null" json:"title"`
	Message   string    `gorm:"column:message" json:"message"`
	Type      string    `gorm:"column:type;size:20;default:info" json:"type"`
	Read      bool      `gorm:"column:is_read;default:false;index" json:"read"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = newID()
	}
	return nil
}
