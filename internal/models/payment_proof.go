package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProofStatusPending  = "pending"
	ProofStatusApproved = "approved"
	ProofStatusRejected = "rejected"
)

type PaymentProof struct {
	ID            string          `gorm:"column:id;size:36;primaryKey" json:"id"`
	PaymentID     string          `gorm:"column:payment_id;size:36;not null;index" json:"payment_id"`
	UserID        string          `gorm:"column:user_id;size:36;not null;index" json:"user_id"`
	ProofAmount   decimal.Decimal `gorm:"column:proof_amount;type:decimal(12,2);not null" json:"proof_amount"`
	PaymentMethod string          `gorm:"column:payment_method;size:50;not null" json:"payment_method"`
	TransactionID *string         `gorm:"column:transaction_id;size:255" json:"transaction_id"`
	Image         string          `gorm:"column:image" json:"image,omitempty"` // data URL
	ImageMime     string          `gorm:"column:image_mime;size:100" json:"image_mime"`
	Status        string          `gorm:"column:status;size:20;not null;default:pending;index" json:"status"`
	SubmittedAt   time.Time       `gorm:"column:submitted_at;not null" json:"submitted_at"`
	ReviewedAt    *time.Time      `gorm:"column:reviewed_at" json:"reviewed_at"`
	ReviewedBy    *string         `gorm:"column:reviewed_by;size:36" json:"reviewed_by"`
	AdminMessage  *string         `gorm:"column:admin_message;size:255" json:"admin_message"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PaymentProof) TableName() string {
	return "payment_proofs"
}

func (p *PaymentProof) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}
