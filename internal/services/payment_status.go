package services

import (
	"time"

	"github.com/shopspring/decimal"

	"club-finance/internal/models"
)

// DeriveStatus is the single source of truth for a member payment's status.
func DeriveStatus(paid, amount decimal.Decimal) string {
	switch {
	case !paid.IsPositive():
		return models.PaymentStatusPending
	case paid.GreaterThanOrEqual(amount):
		return models.PaymentStatusPaid
	default:
		return models.PaymentStatusPartial
	}
}

// StatusConsistent reports whether the stored status agrees with the amounts.
func StatusConsistent(p *models.Payment) bool {
	if p.MemberID == nil {
		return p.Status == models.PaymentStatusExpense
	}
	return p.Status == DeriveStatus(p.PaidAmount, p.Amount)
}

// applyProof returns the column updates that add one approved proof of delta to p. paid_at
// is set when the payment first becomes paid and kept on later approvals.
func applyProof(p *models.Payment, delta decimal.Decimal, now time.Time) map[string]interface{} {
	paid := p.PaidAmount.Add(delta)
	status := DeriveStatus(paid, p.Amount)

	var paidAt interface{}
	if status == models.PaymentStatusPaid {
		paidAt = now
		if p.Status == models.PaymentStatusPaid && p.PaidAt != nil {
			paidAt = *p.PaidAt
		}
	}
	return map[string]interface{}{
		"paid_amount": paid,
		"status":      status,
		"paid_at":     paidAt,
		"updated_at":  now,
	}
}
