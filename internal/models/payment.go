package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
	PaymentStatusExpense = "expense"
)

type Payment struct {
	ID            string  `gorm:"column:id;size:36;primaryKey" json:"id"`
	MemberID      *string `gorm:"column:member_id;size:36;index" json:"member_id"` // nil: general expense
	GroupID       *string `gorm:"column:group_id;size:36;index" json:"group_id"`
	GroupChargeID *string `gorm:"column:group_charge_id;size:36;index" json:"group_charge_id"`
	// Set while the row is detached from the group charge it was billed under.
	OriginalGroupID       *string         `gorm:"column:original_group_id;size:36" json:"original_group_id,omitempty"`
	OriginalGroupChargeID *string         `gorm:"column:original_group_charge_id;size:36;index" json:"original_group_charge_id,omitempty"`
	Amount                decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	PaidAmount            decimal.Decimal `gorm:"column:paid_amount;type:decimal(12,2);not null;default:0" json:"paid_amount"`
	Category              string          `gorm:"column:category;size:100;not null;index" json:"category"`
	Status                string          `gorm:"column:status;size:20;not null;default:pending;index" json:"status"`
	DueDate               time.Time       `gorm:"column:due_date" json:"due_date"`
	Observation           string          `gorm:"column:observation" json:"observation"`
	PixKey                string          `gorm:"column:pix_key;size:255" json:"pix_key"`
	PixName               string          `gorm:"column:pix_name;size:255" json:"pix_name"`
	PaidAt                *time.Time      `gorm:"column:paid_at" json:"paid_at"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

// IsExpense reports whether the row is a club expense rather than a member charge.
func (p *Payment) IsExpense() bool {
	return p.MemberID == nil || p.Status == PaymentStatusExpense
}

// Outstanding is what is still owed, never negative.
func (p *Payment) Outstanding() decimal.Decimal {
	rest := p.Amount.Sub(p.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Credit is the amount approved beyond the expected total.
func (p *Payment) Credit() decimal.Decimal {
	extra := p.PaidAmount.Sub(p.Amount)
	if extra.IsPositive() {
		return extra
	}
	return decimal.Zero
}
