package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GroupCharge is the parent of the per-member Payment rows billed to a group.
type GroupCharge struct {
	ID          string          `gorm:"column:id;size:36;primaryKey" json:"id"`
	GroupID     string          `gorm:"column:group_id;size:36;not null;index" json:"group_id"`
	Category    string          `gorm:"column:category;size:100;not null" json:"category"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	DueDate     time.Time       `gorm:"column:due_date" json:"due_date"`
	Observation string          `gorm:"column:observation" json:"observation"`
	PixKey      string          `gorm:"column:pix_key;size:255" json:"pix_key"`
	PixName     string          `gorm:"column:pix_name;size:255" json:"pix_name"`
	CreatedBy   string          `gorm:"column:created_by;size:36" json:"created_by"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (GroupCharge) TableName() string {
	return "group_charges"
}

func (c *GroupCharge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}
