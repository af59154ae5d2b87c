package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"club-finance/internal/logger"
	"club-finance/internal/metrics"
	"club-finance/internal/models"
	"club-finance/pkg/common"
)

const MaxProofSize = 5 << 20

var allowedProofTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}

type ProofService struct {
	DB       *gorm.DB
	Notifier Notifier
	Logger   *logger.Logger
}

func NewProofService(db *gorm.DB, notifier Notifier, log *logger.Logger) *ProofService {
	return &ProofService{DB: db, Notifier: notifier, Logger: log}
}

type SubmitProofDTO struct {
	PaymentID     string
	UserID        string
	IsAdmin       bool
	Amount        decimal.Decimal
	PaymentMethod string
	TransactionID string
	File          []byte
}

// sniffProof checks size and content type of an uploaded proof and returns its mime type.
func sniffProof(file []byte) (string, error) {
	if len(file) == 0 {
		return "", NewValidationError("proof file is required")
	}
	if len(file) > MaxProofSize {
		return "", NewValidationError("proof file must be at most 5MB")
	}
	mtype := mimetype.Detect(file)
	for _, allowed := range allowedProofTypes {
		if mtype.Is(allowed) {
			return allowed, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("unsupported proof type %s", mtype.String()))
}

func (s *ProofService) Submit(ctx context.Context, data SubmitProofDTO) (*models.PaymentProof, error) {
	if !data.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	method := strings.TrimSpace(data.PaymentMethod)
	if method == "" {
		return nil, NewValidationError("payment method is required")
	}
	mime, err := sniffProof(data.File)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	var payment models.Payment
	if err := db.First(&payment, "id = ?", data.PaymentID).Error; err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	if payment.IsExpense() {
		return nil, NewValidationError("proofs cannot be submitted for expenses")
	}
	if !data.IsAdmin && *payment.MemberID != data.UserID {
		return nil, ErrNotAllowed
	}

	proof := models.PaymentProof{
		PaymentID:     payment.ID,
		UserID:        *payment.MemberID,
		ProofAmount:   data.Amount,
		PaymentMethod: method,
		Image:         "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data.File),
		ImageMime:     mime,
		Status:        models.ProofStatusPending,
		SubmittedAt:   time.Now(),
	}
	if tid := strings.TrimSpace(data.TransactionID); tid != "" {
		proof.TransactionID = &tid
	}
	if err := db.Create(&proof).Error; err != nil {
		return nil, err
	}
	metrics.ProofsSubmitted.Inc()

	amount := common.FormatBRL(data.Amount)
	s.Notifier.NotifyMember(ctx, proof.UserID, "Proof received",
		fmt.Sprintf("Your proof of %s for %s was received and is awaiting review.", amount, payment.Category),
		models.NotificationInfo)
	s.Notifier.NotifyAdmins(ctx, "New proof to review",
		fmt.Sprintf("A proof of %s for %s is waiting for review.", amount, payment.Category),
		models.NotificationInfo)

	s.Logger.Infof("proof %s submitted for payment %s by %s", proof.ID, payment.ID, data.UserID)
	return &proof, nil
}

func (s *ProofService) Get(ctx context.Context, id string) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	if err := s.DB.WithContext(ctx).First(&proof, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrProofNotFound)
	}
	return &proof, nil
}

// ListForPayment returns the proofs of a payment, oldest first, without image data.
func (s *ProofService) ListForPayment(ctx context.Context, paymentID string) ([]models.PaymentProof, error) {
	var proofs []models.PaymentProof
	err := s.DB.WithContext(ctx).Omit("image").
		Where("payment_id = ?", paymentID).
		Order("submitted_at ASC").
		Find(&proofs).Error
	return proofs, err
}

// ListPending is the admin review queue.
func (s *ProofService) ListPending(ctx context.Context, page, limit int) (common.PaginationResult, error) {
	page, limit, offset := common.Page(page, limit)
	query := s.DB.WithContext(ctx).Model(&models.PaymentProof{}).Where("status = ?", models.ProofStatusPending)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return common.PaginationResult{}, err
	}
	var proofs []models.PaymentProof
	if err := query.Omit("image").Order("submitted_at ASC").Limit(limit).Offset(offset).Find(&proofs).Error; err != nil {
		return common.PaginationResult{}, err
	}
	return common.PaginateResponse(proofs, total, page, limit, "Pending proofs fetched"), nil
}
