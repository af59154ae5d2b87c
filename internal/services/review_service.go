package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"club-finance/internal/logger"
	"club-finance/internal/metrics"
	"club-finance/internal/models"
	"club-finance/pkg/common"
)

const (
	RejectWrongAmount = "valor_divergente"
	RejectWrongDate   = "data_incorreta"
	RejectOther       = "outro"
)

var rejectReasons = map[string]string{
	RejectWrongAmount: "the amount on the proof does not match",
	RejectWrongDate:   "the date on the proof is incorrect",
	RejectOther:       "the proof could not be accepted",
}

// maxApproveAttempts bounds the retries when the payment row changed under an approval.
const maxApproveAttempts = 3

var errPaymentMoved = errors.New("payment changed during approval")

type ReviewService struct {
	DB       *gorm.DB
	Tickets  *TicketService
	Notifier Notifier
	Logger   *logger.Logger
	now      func() time.Time
}

func NewReviewService(db *gorm.DB, tickets *TicketService, notifier Notifier, log *logger.Logger) *ReviewService {
	return &ReviewService{DB: db, Tickets: tickets, Notifier: notifier, Logger: log, now: time.Now}
}

type ApproveProofDTO struct {
	ProofID string
	AdminID string
}

type ReviewResult struct {
	Proof   models.PaymentProof   `json:"proof"`
	Payment models.Payment        `json:"payment"`
	Ticket  *models.PaymentTicket `json:"ticket,omitempty"`
	Credit  decimal.Decimal       `json:"credit"`
}

// claimProof moves a pending proof to the given status. Exactly one concurrent review wins.
func claimProof(tx *gorm.DB, proofID string, updates map[string]interface{}) (*models.PaymentProof, error) {
	res := tx.Model(&models.PaymentProof{}).
		Where("id = ? AND status = ?", proofID, models.ProofStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}

	var proof models.PaymentProof
	if err := tx.First(&proof, "id = ?", proofID).Error; err != nil {
		return nil, notFound(err, ErrProofNotFound)
	}
	if res.RowsAffected == 0 {
		return nil, ErrProofReviewed
	}
	return &proof, nil
}

// Approve accepts a proof and adds its amount to the payment. Once the payment is covered a
// ticket is issued; ticket and notification failures are logged and never undo the approval.
func (s *ReviewService) Approve(ctx context.Context, data ApproveProofDTO) (*ReviewResult, error) {
	if data.ProofID == "" || data.AdminID == "" {
		return nil, NewValidationError("proof id and admin id are required")
	}

	now := s.now()
	var proof *models.PaymentProof

	var err error
	for attempt := 1; ; attempt++ {
		proof, err = s.approveOnce(ctx, data, now)
		if !errors.Is(err, errPaymentMoved) || attempt == maxApproveAttempts {
			break
		}
		s.Logger.Warnf("proof %s: payment changed during approval, retrying", data.ProofID)
	}
	if err != nil {
		return nil, err
	}
	metrics.ProofsReviewed.WithLabelValues("approved").Inc()

	var payment models.Payment
	if err := s.DB.WithContext(ctx).First(&payment, "id = ?", proof.PaymentID).Error; err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}

	result := &ReviewResult{Proof: *proof, Payment: payment, Credit: payment.Credit()}
	if payment.MemberID == nil {
		return result, nil
	}

	if payment.Status == models.PaymentStatusPaid {
		ticket, err := s.Tickets.Issue(ctx, payment.ID, data.AdminID)
		if err != nil {
			s.Logger.Errorf("ticket for payment %s not issued: %v", payment.ID, err)
		}
		result.Ticket = ticket

		msg := fmt.Sprintf("Your payment for %s of %s is complete.", payment.Category, common.FormatBRL(payment.Amount))
		if ticket != nil {
			msg += " Your ticket " + ticket.Code + " is available."
		}
		s.Notifier.NotifyMember(ctx, *payment.MemberID, "Payment complete", msg, models.NotificationSuccess)
	} else {
		msg := fmt.Sprintf("Partial payment approved: %s of %s paid for %s.",
			common.FormatBRL(payment.PaidAmount), common.FormatBRL(payment.Amount), payment.Category)
		s.Notifier.NotifyMember(ctx, *payment.MemberID, "Partial payment approved", msg, models.NotificationInfo)
	}

	s.Logger.Infof("proof %s approved by %s: payment %s now %s (%s/%s)",
		proof.ID, data.AdminID, payment.ID, payment.Status, payment.PaidAmount, payment.Amount)
	return result, nil
}

// approveOnce claims the proof and adds its amount to the payment in one transaction. The
// payment row is locked for update and the new total is computed with decimal arithmetic;
// the guarded update fails with errPaymentMoved if paid_amount changed since the read.
func (s *ReviewService) approveOnce(ctx context.Context, data ApproveProofDTO, now time.Time) (*models.PaymentProof, error) {
	var proof *models.PaymentProof
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		proof, err = claimProof(tx, data.ProofID, map[string]interface{}{
			"status":      models.ProofStatusApproved,
			"reviewed_at": now,
			"reviewed_by": data.AdminID,
		})
		if err != nil {
			return err
		}

		var payment models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payment, "id = ?", proof.PaymentID).Error; err != nil {
			return notFound(err, ErrPaymentNotFound)
		}
		if payment.MemberID == nil {
			return ErrPaymentNotFound
		}

		res := tx.Model(&models.Payment{}).
			Where("id = ? AND paid_amount = ?", payment.ID, payment.PaidAmount).
			Updates(applyProof(&payment, proof.ProofAmount, now))
		if res.Error != nil {
			return fmt.Errorf("apply proof to payment: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			return errPaymentMoved
		}
		return nil
	})
	return proof, err
}

type RejectProofDTO struct {
	ProofID string
	AdminID string
	Reason  string
}

// Reject marks a pending proof as rejected. The payment is never touched.
func (s *ReviewService) Reject(ctx context.Context, data RejectProofDTO) (*models.PaymentProof, error) {
	text, ok := rejectReasons[data.Reason]
	if !ok {
		return nil, ErrInvalidReason
	}
	if data.ProofID == "" || data.AdminID == "" {
		return nil, NewValidationError("proof id and admin id are required")
	}

	proof, err := claimProof(s.DB.WithContext(ctx), data.ProofID, map[string]interface{}{
		"status":        models.ProofStatusRejected,
		"reviewed_at":   s.now(),
		"reviewed_by":   data.AdminID,
		"admin_message": data.Reason,
	})
	if err != nil {
		return nil, err
	}
	metrics.ProofsReviewed.WithLabelValues("rejected").Inc()

	var payment models.Payment
	category := "your payment"
	if err := s.DB.WithContext(ctx).Select("id", "category").First(&payment, "id = ?", proof.PaymentID).Error; err == nil {
		category = payment.Category
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.Logger.Warnf("payment lookup for rejected proof %s failed: %v", proof.ID, err)
	}

	msg := fmt.Sprintf("Your proof of %s for %s was rejected: %s. Please submit a new proof.",
		common.FormatBRL(proof.ProofAmount), category, text)
	s.Notifier.NotifyMember(ctx, proof.UserID, "Proof rejected", msg, models.NotificationWarning)

	s.Logger.Infof("proof %s rejected by %s (%s)", proof.ID, data.AdminID, data.Reason)
	return proof, nil
}
