package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"club-finance/internal/logger"
	"club-finance/internal/models"
	"club-finance/pkg/common"
)

type PaymentService struct {
	DB       *gorm.DB
	Notifier Notifier
	Logger   *logger.Logger
}

func NewPaymentService(db *gorm.DB, notifier Notifier, log *logger.Logger) *PaymentService {
	return &PaymentService{DB: db, Notifier: notifier, Logger: log}
}

type CreatePaymentDTO struct {
	MemberID    string          `json:"member_id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	DueDate     time.Time       `json:"due_date"`
	Observation string          `json:"observation"`
	PixKey      string          `json:"pix_key"`
	PixName     string          `json:"pix_name"`
}

func (d CreatePaymentDTO) validate() error {
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(d.Category) == "" {
		return NewValidationError("category is required")
	}
	return nil
}

// CreateMemberPayment records a single charge owed by one member.
func (s *PaymentService) CreateMemberPayment(ctx context.Context, data CreatePaymentDTO) (*models.Payment, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	if data.MemberID == "" {
		return nil, NewValidationError("member_id is required")
	}
	var member models.Profile
	if err := s.DB.WithContext(ctx).Select("id").First(&member, "id = ?", data.MemberID).Error; err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}

	memberID := member.ID
	payment := models.Payment{
		MemberID:    &memberID,
		Amount:      data.Amount,
		Category:    strings.TrimSpace(data.Category),
		Status:      models.PaymentStatusPending,
		DueDate:     data.DueDate,
		Observation: data.Observation,
		PixKey:      data.PixKey,
		PixName:     data.PixName,
	}
	if err := s.DB.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}

	s.Notifier.NotifyMember(ctx, memberID, "New payment",
		payment.Category+": "+common.FormatBRL(payment.Amount)+" due "+payment.DueDate.Format("02/01/2006")+".",
		models.NotificationInfo)
	return &payment, nil
}

// CreateExpense records money spent by the club. Expenses have no member and never
// take part in proof review.
func (s *PaymentService) CreateExpense(ctx context.Context, data CreatePaymentDTO) (*models.Payment, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	payment := models.Payment{
		Amount:      data.Amount,
		Category:    strings.TrimSpace(data.Category),
		Status:      models.PaymentStatusExpense,
		DueDate:     data.DueDate,
		Observation: data.Observation,
		PixKey:      data.PixKey,
		PixName:     data.PixName,
	}
	if err := s.DB.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

type PaymentView struct {
	models.Payment
	Outstanding decimal.Decimal `json:"outstanding"`
	Credit      decimal.Decimal `json:"credit"`
	HasTicket   bool            `json:"has_ticket"`
}

func (s *PaymentService) Get(ctx context.Context, id string) (*PaymentView, error) {
	var payment models.Payment
	if err := s.DB.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	var tickets int64
	if err := s.DB.WithContext(ctx).Model(&models.PaymentTicket{}).Where("payment_id = ?", id).Count(&tickets).Error; err != nil {
		return nil, err
	}
	return &PaymentView{
		Payment:     payment,
		Outstanding: payment.Outstanding(),
		Credit:      payment.Credit(),
		HasTicket:   tickets > 0,
	}, nil
}

type ListPaymentsDTO struct {
	MemberID string
	GroupID  string
	Status   string
	Category string
	Page     int
	Limit    int
}

func (s *PaymentService) List(ctx context.Context, data ListPaymentsDTO) (common.PaginationResult, error) {
	page, limit, offset := common.Page(data.Page, data.Limit)

	query := s.DB.WithContext(ctx).Model(&models.Payment{})
	if data.MemberID != "" {
		query = query.Where("member_id = ?", data.MemberID)
	}
	if data.GroupID != "" {
		query = query.Where("group_id = ?", data.GroupID)
	}
	if data.Status != "" {
		query = query.Where("status = ?", data.Status)
	}
	if data.Category != "" {
		query = query.Where("category = ?", data.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return common.PaginationResult{}, err
	}
	var payments []models.Payment
	if err := query.Order("due_date DESC").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&payments).Error; err != nil {
		return common.PaginationResult{}, err
	}
	return common.PaginateResponse(payments, total, page, limit, "Payments fetched"), nil
}

// UpdatePaymentDTO carries the descriptive fields an admin may edit. Amounts and status
// only change through proof review.
type UpdatePaymentDTO struct {
	Category    *string    `json:"category"`
	DueDate     *time.Time `json:"due_date"`
	Observation *string    `json:"observation"`
	PixKey      *string    `json:"pix_key"`
	PixName     *string    `json:"pix_name"`
}

func (s *PaymentService) Update(ctx context.Context, id string, data UpdatePaymentDTO) (*models.Payment, error) {
	updates := map[string]interface{}{}
	if data.Category != nil {
		if strings.TrimSpace(*data.Category) == "" {
			return nil, NewValidationError("category cannot be empty")
		}
		updates["category"] = strings.TrimSpace(*data.Category)
	}
	if data.DueDate != nil {
		updates["due_date"] = *data.DueDate
	}
	if data.Observation != nil {
		updates["observation"] = *data.Observation
	}
	if data.PixKey != nil {
		updates["pix_key"] = *data.PixKey
	}
	if data.PixName != nil {
		updates["pix_name"] = *data.PixName
	}

	db := s.DB.WithContext(ctx)
	var payment models.Payment
	if err := db.First(&payment, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	if len(updates) == 0 {
		return &payment, nil
	}
	if err := db.Model(&payment).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := db.First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// Delete removes a payment and its proofs. Ticketed payments are receipts and stay.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	db := s.DB.WithContext(ctx)
	var payment models.Payment
	if err := db.Select("id").First(&payment, "id = ?", id).Error; err != nil {
		return notFound(err, ErrPaymentNotFound)
	}
	var tickets int64
	if err := db.Model(&models.PaymentTicket{}).Where("payment_id = ?", id).Count(&tickets).Error; err != nil {
		return err
	}
	if tickets > 0 {
		return NewConflictError("payment has a ticket and cannot be deleted", nil)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payment_id = ?", id).Delete(&models.PaymentProof{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Payment{}).Error
	})
}

type PaymentSummary struct {
	TotalDue      decimal.Decimal `json:"total_due"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Pending       int64           `json:"pending"`
	Partial       int64           `json:"partial"`
	Paid          int64           `json:"paid"`
}

// Summary totals member charges and expenses. With a member id only that member's
// charges are counted and expenses are left at zero.
func (s *PaymentService) Summary(ctx context.Context, memberID string) (*PaymentSummary, error) {
	type row struct {
		Status string
		Count  int64
		Due    decimal.Decimal
		Paid   decimal.Decimal
	}
	query := s.DB.WithContext(ctx).Model(&models.Payment{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS due, COALESCE(SUM(paid_amount), 0) AS paid").
		Group("status")
	if memberID != "" {
		query = query.Where("member_id = ?", memberID)
	}
	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	sum := &PaymentSummary{
		TotalDue:      decimal.Zero,
		TotalPaid:     decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, r := range rows {
		due := r.Due.Round(2)
		paid := r.Paid.Round(2)
		switch r.Status {
		case models.PaymentStatusExpense:
			sum.TotalExpenses = sum.TotalExpenses.Add(due)
			continue
		case models.PaymentStatusPending:
			sum.Pending = r.Count
		case models.PaymentStatusPartial:
			sum.Partial = r.Count
		case models.PaymentStatusPaid:
			sum.Paid = r.Count
		}
		sum.TotalDue = sum.TotalDue.Add(due)
		sum.TotalPaid = sum.TotalPaid.Add(paid)
	}
	sum.Outstanding = sum.TotalDue.Sub(sum.TotalPaid)
	if sum.Outstanding.IsNegative() {
		sum.Outstanding = decimal.Zero
	}
	return sum, nil
}
