package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const TicketValidity = 30 * 24 * time.Hour

type PaymentTicket struct {
	ID            string          `gorm:"column:id;size:36;primaryKey" json:"id"`
	Code          string          `gorm:"column:code;size:20;not null;index" json:"code"`
	PaymentID     string          `gorm:"column:payment_id;size:36;not null;uniqueIndex" json:"payment_id"`
	UserID        string          `gorm:"column:user_id;size:36;not null;index" json:"user_id"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Category      string          `gorm:"column:category;size:100" json:"category"`
	PaymentMethod string          `gorm:"column:payment_method;size:255" json:"payment_method"`
	ProofImage    string          `gorm:"column:proof_image" json:"proof_image,omitempty"`
	ProofID       string          `gorm:"column:proof_id;size:36" json:"proof_id,omitempty"` // set with ProofImage
	ProofBundle   datatypes.JSON  `gorm:"column:proof_bundle" json:"proof_bundle,omitempty"`
	ProofCount    int             `gorm:"column:proof_count;default:0" json:"proof_count"`
	ApprovedBy    string          `gorm:"column:approved_by;size:36" json:"approved_by"`
	ApprovedAt    time.Time       `gorm:"column:approved_at" json:"approved_at"`
	ExpiresAt     time.Time       `gorm:"column:expires_at;index" json:"expires_at"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PaymentTicket) TableName() string {
	return "payment_tickets"
}

func (t *PaymentTicket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = newID()
	}
	return nil
}

// TicketProof is one entry of a ticket's proof bundle.
type TicketProof struct {
	ProofID       string          `json:"proof_id"`
	Image         string          `json:"image"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	ReviewedAt    *time.Time      `json:"reviewed_at"`
}
