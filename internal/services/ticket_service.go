package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"club-finance/internal/logger"
	"club-finance/internal/metrics"
	"club-finance/internal/models"
	"club-finance/pkg/common"
)

type TicketService struct {
	DB     *gorm.DB
	Logger *logger.Logger
	now    func() time.Time
}

func NewTicketService(db *gorm.DB, log *logger.Logger) *TicketService {
	return &TicketService{DB: db, Logger: log, now: time.Now}
}

// Issue creates or refreshes the ticket of a fully paid payment, bundling every approved
// proof in review order. Missing member, profile or approver are soft failures: they are
// logged and (nil, nil) is returned.
func (s *TicketService) Issue(ctx context.Context, paymentID, approvedBy string) (*models.PaymentTicket, error) {
	db := s.DB.WithContext(ctx)

	var payment models.Payment
	if err := db.First(&payment, "id = ?", paymentID).Error; err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	if payment.Status != models.PaymentStatusPaid {
		return nil, NewConflictError("payment is not fully paid", nil)
	}
	if payment.MemberID == nil {
		s.Logger.Warnf("ticket for payment %s skipped: payment has no member", payment.ID)
		metrics.TicketsIssued.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	var member models.Profile
	if err := db.Select("id").First(&member, "id = ?", *payment.MemberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.Logger.Warnf("ticket for payment %s skipped: profile %s not found", payment.ID, *payment.MemberID)
			metrics.TicketsIssued.WithLabelValues("skipped").Inc()
			return nil, nil
		}
		return nil, err
	}

	if approvedBy == "" {
		var admin models.Profile
		err := db.Select("id").Where("role = ?", models.RoleAdmin).Order("created_at ASC").First(&admin).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.Logger.Warnf("ticket for payment %s skipped: no admin to attribute the approval to", payment.ID)
				metrics.TicketsIssued.WithLabelValues("skipped").Inc()
				return nil, nil
			}
			return nil, err
		}
		approvedBy = admin.ID
	}

	var proofs []models.PaymentProof
	if err := db.Where("payment_id = ? AND status = ?", payment.ID, models.ProofStatusApproved).
		Order("reviewed_at ASC").Order("submitted_at ASC").
		Find(&proofs).Error; err != nil {
		return nil, err
	}

	// Proofs already on the ticket may have been removed by the cleanup job; keep them.
	kept, err := s.retainedEntries(ctx, payment.ID, proofs)
	if err != nil {
		return nil, err
	}
	entries := append(kept, ticketEntries(proofs)...)
	if len(entries) == 0 {
		s.Logger.Warnf("ticket for payment %s skipped: no approved proofs", payment.ID)
		metrics.TicketsIssued.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	now := s.now()
	ticket := models.PaymentTicket{
		Code:          common.GenerateTicketCode(),
		PaymentID:     payment.ID,
		UserID:        *payment.MemberID,
		Amount:        payment.PaidAmount,
		Category:      payment.Category,
		PaymentMethod: methodSummary(entries),
		ProofCount:    len(entries),
		ApprovedBy:    approvedBy,
		ApprovedAt:    now,
		ExpiresAt:     now.Add(models.TicketValidity),
	}
	if len(entries) == 1 {
		ticket.ProofImage = entries[0].Image
		ticket.ProofID = entries[0].ProofID
	} else {
		bundle, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		ticket.ProofBundle = datatypes.JSON(bundle)
	}

	// payment_id is unique: a second issue for the same payment updates the existing row.
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "payment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "amount", "category", "payment_method", "proof_image", "proof_id", "proof_bundle",
			"proof_count", "approved_by", "approved_at", "expires_at", "updated_at",
		}),
	}).Create(&ticket).Error
	if err != nil {
		metrics.TicketsIssued.WithLabelValues("failed").Inc()
		return nil, err
	}

	var stored models.PaymentTicket
	if err := db.First(&stored, "payment_id = ?", payment.ID).Error; err != nil {
		return nil, err
	}
	metrics.TicketsIssued.WithLabelValues("issued").Inc()
	s.Logger.Infof("ticket %s issued for payment %s (%d proofs)", stored.Code, payment.ID, len(entries))
	return &stored, nil
}

// retainedEntries returns the entries of the payment's current ticket whose proof rows no
// longer exist.
func (s *TicketService) retainedEntries(ctx context.Context, paymentID string, proofs []models.PaymentProof) ([]models.TicketProof, error) {
	var current models.PaymentTicket
	err := s.DB.WithContext(ctx).First(&current, "payment_id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	previous, err := BundledProofs(&current)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(proofs))
	for _, p := range proofs {
		present[p.ID] = true
	}
	var kept []models.TicketProof
	for _, e := range previous {
		if e.ProofID != "" && present[e.ProofID] {
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}

func ticketEntries(proofs []models.PaymentProof) []models.TicketProof {
	entries := make([]models.TicketProof, 0, len(proofs))
	for _, p := range proofs {
		entries = append(entries, models.TicketProof{
			ProofID:       p.ID,
			Image:         p.Image,
			Amount:        p.ProofAmount,
			PaymentMethod: p.PaymentMethod,
			TransactionID: p.TransactionID,
			ReviewedAt:    p.ReviewedAt,
		})
	}
	return entries
}

func methodSummary(entries []models.TicketProof) string {
	seen := make(map[string]bool)
	var methods []string
	for _, e := range entries {
		for _, m := range strings.Split(e.PaymentMethod, ",") {
			m = strings.TrimSpace(m)
			if m == "" || seen[m] {
				continue
			}
			seen[m] = true
			methods = append(methods, m)
		}
	}
	return strings.Join(methods, ", ")
}

// BundledProofs decodes a ticket's proofs regardless of how they were stored.
func BundledProofs(t *models.PaymentTicket) ([]models.TicketProof, error) {
	if len(t.ProofBundle) == 0 {
		if t.ProofImage == "" {
			return nil, nil
		}
		return []models.TicketProof{{ProofID: t.ProofID, Image: t.ProofImage, Amount: t.Amount, PaymentMethod: t.PaymentMethod}}, nil
	}
	var entries []models.TicketProof
	if err := json.Unmarshal(t.ProofBundle, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *TicketService) Get(ctx context.Context, id string) (*models.PaymentTicket, error) {
	var ticket models.PaymentTicket
	if err := s.DB.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrTicketNotFound)
	}
	return &ticket, nil
}

func (s *TicketService) GetByPayment(ctx context.Context, paymentID string) (*models.PaymentTicket, error) {
	var ticket models.PaymentTicket
	if err := s.DB.WithContext(ctx).First(&ticket, "payment_id = ?", paymentID).Error; err != nil {
		return nil, notFound(err, ErrTicketNotFound)
	}
	return &ticket, nil
}

type ListTicketsDTO struct {
	UserID      string
	OnlyCurrent bool
	Page        int
	Limit       int
}

// List returns tickets newest first, without the heavy image columns.
func (s *TicketService) List(ctx context.Context, data ListTicketsDTO) (common.PaginationResult, error) {
	page, limit, offset := common.Page(data.Page, data.Limit)

	query := s.DB.WithContext(ctx).Model(&models.PaymentTicket{})
	if data.UserID != "" {
		query = query.Where("user_id = ?", data.UserID)
	}
	if data.OnlyCurrent {
		query = query.Where("expires_at > ?", s.now())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return common.PaginationResult{}, err
	}

	var tickets []models.PaymentTicket
	if err := query.Omit("proof_image", "proof_bundle").
		Order("approved_at DESC").Limit(limit).Offset(offset).
		Find(&tickets).Error; err != nil {
		return common.PaginationResult{}, err
	}
	return common.PaginateResponse(tickets, total, page, limit, "Tickets fetched"), nil
}
