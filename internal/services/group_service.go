package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"club-finance/internal/logger"
	"club-finance/internal/models"
)

type GroupService struct {
	DB     *gorm.DB
	Sync   *GroupSyncService
	Logger *logger.Logger
}

func NewGroupService(db *gorm.DB, sync *GroupSyncService, log *logger.Logger) *GroupService {
	return &GroupService{DB: db, Sync: sync, Logger: log}
}

type CreateGroupDTO struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type GroupDetails struct {
	models.Group
	Members []models.Profile `json:"members"`
}

type GroupSummary struct {
	models.Group
	MemberCount int64 `json:"member_count"`
}

func (s *GroupService) Create(ctx context.Context, data CreateGroupDTO) (*models.Group, error) {
	name := strings.TrimSpace(data.Name)
	if name == "" {
		return nil, NewValidationError("group name is required")
	}
	group := models.Group{Name: name, Type: data.Type, Description: data.Description}
	if err := s.DB.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *GroupService) Update(ctx context.Context, id string, data CreateGroupDTO) (*models.Group, error) {
	group, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(data.Name); name != "" {
		group.Name = name
	}
	group.Type = data.Type
	group.Description = data.Description
	if err := s.DB.WithContext(ctx).Save(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) find(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := s.DB.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrGroupNotFound)
	}
	return &group, nil
}

func (s *GroupService) Get(ctx context.Context, id string) (*GroupDetails, error) {
	group, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	var members []models.Profile
	err = s.DB.WithContext(ctx).
		Joins("JOIN group_memberships ON group_memberships.user_id = profiles.id").
		Where("group_memberships.group_id = ?", id).
		Order("profiles.full_name").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return &GroupDetails{Group: *group, Members: members}, nil
}

func (s *GroupService) List(ctx context.Context) ([]GroupSummary, error) {
	var groups []models.Group
	if err := s.DB.WithContext(ctx).Order("name").Find(&groups).Error; err != nil {
		return nil, err
	}

	type row struct {
		GroupID string
		Total   int64
	}
	var counts []row
	if err := s.DB.WithContext(ctx).Model(&models.GroupMembership{}).
		Select("group_id, COUNT(*) AS total").Group("group_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byGroup := make(map[string]int64, len(counts))
	for _, c := range counts {
		byGroup[c.GroupID] = c.Total
	}

	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupSummary{Group: g, MemberCount: byGroup[g.ID]})
	}
	return out, nil
}

// Delete removes a group and its memberships. Groups that still have charges are kept.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	var charges int64
	if err := s.DB.WithContext(ctx).Model(&models.GroupCharge{}).Where("group_id = ?", id).Count(&charges).Error; err != nil {
		return err
	}
	if charges > 0 {
		return NewConflictError("group has charges and cannot be deleted", nil)
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMembership{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Group{}).Error
	})
}

// AddMember puts an approved member in the group, taking them out of any other group.
// Existing charges are not touched until the group is synchronized.
func (s *GroupService) AddMember(ctx context.Context, groupID, userID string) error {
	if _, err := s.find(ctx, groupID); err != nil {
		return err
	}
	var profile models.Profile
	if err := s.DB.WithContext(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		return notFound(err, ErrProfileNotFound)
	}
	if profile.Status != models.ProfileStatusApproved {
		return NewValidationError("only approved members can join a group")
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND group_id <> ?", userID, groupID).
			Delete(&models.GroupMembership{}).Error; err != nil {
			return err
		}
		var existing models.GroupMembership
		err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&models.GroupMembership{GroupID: groupID, UserID: userID}).Error
	})
}

func (s *GroupService) RemoveMember(ctx context.Context, groupID, userID string) error {
	res := s.DB.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMembership{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NewNotFoundError("member is not in this group")
	}
	return nil
}

type CreateChargeDTO struct {
	GroupID     string          `json:"group_id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	Observation string          `json:"observation"`
	PixKey      string          `json:"pix_key"`
	PixName     string          `json:"pix_name"`
	CreatedBy   string          `json:"-"`
}

type ChargeResult struct {
	Charge models.GroupCharge `json:"charge"`
	Report *SyncReport        `json:"report"`
}

// CreateCharge bills every current member of the group by reconciling the new charge.
func (s *GroupService) CreateCharge(ctx context.Context, data CreateChargeDTO) (*ChargeResult, error) {
	if !data.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	category := strings.TrimSpace(data.Category)
	if category == "" {
		return nil, NewValidationError("category is required")
	}
	if _, err := s.find(ctx, data.GroupID); err != nil {
		return nil, err
	}

	charge := models.GroupCharge{
		GroupID:     data.GroupID,
		Category:    category,
		Amount:      data.Amount,
		DueDate:     data.DueDate,
		Observation: data.Observation,
		PixKey:      data.PixKey,
		PixName:     data.PixName,
		CreatedBy:   data.CreatedBy,
	}
	if err := s.DB.WithContext(ctx).Create(&charge).Error; err != nil {
		return nil, err
	}

	report, err := s.Sync.Sync(ctx, SyncGroupDTO{ChargeID: charge.ID})
	if err != nil {
		return nil, err
	}
	return &ChargeResult{Charge: charge, Report: report}, nil
}

type ChargeSummary struct {
	models.GroupCharge
	Payments  int64           `json:"payments"`
	PaidCount int64           `json:"paid_count"`
	TotalDue  decimal.Decimal `json:"total_due"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

func (s *GroupService) ListCharges(ctx context.Context, groupID string) ([]ChargeSummary, error) {
	if _, err := s.find(ctx, groupID); err != nil {
		return nil, err
	}
	var charges []models.GroupCharge
	if err := s.DB.WithContext(ctx).Where("group_id = ?", groupID).
		Order("due_date DESC").Find(&charges).Error; err != nil {
		return nil, err
	}

	type row struct {
		GroupChargeID string
		Payments      int64
		PaidCount     int64
		TotalDue      decimal.Decimal
		TotalPaid     decimal.Decimal
	}
	var totals []row
	err := s.DB.WithContext(ctx).Model(&models.Payment{}).
		Select("group_charge_id, COUNT(*) AS payments, "+
			"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS paid_count, "+
			"COALESCE(SUM(amount), 0) AS total_due, COALESCE(SUM(paid_amount), 0) AS total_paid",
			models.PaymentStatusPaid).
		Where("group_id = ? AND group_charge_id IS NOT NULL", groupID).
		Group("group_charge_id").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	byCharge := make(map[string]row, len(totals))
	for _, t := range totals {
		byCharge[t.GroupChargeID] = t
	}

	out := make([]ChargeSummary, 0, len(charges))
	for _, c := range charges {
		t := byCharge[c.ID]
		out = append(out, ChargeSummary{
			GroupCharge: c,
			Payments:    t.Payments,
			PaidCount:   t.PaidCount,
			TotalDue:    t.TotalDue.Round(2),
			TotalPaid:   t.TotalPaid.Round(2),
		})
	}
	return out, nil
}

// SyncGroup reconciles every charge of a group. It stops at the first charge that fails
// or needs confirmation; charges already synchronized stay synchronized.
func (s *GroupService) SyncGroup(ctx context.Context, groupID string, confirm bool) ([]*SyncReport, error) {
	if _, err := s.find(ctx, groupID); err != nil {
		return nil, err
	}
	var chargeIDs []string
	if err := s.DB.WithContext(ctx).Model(&models.GroupCharge{}).Where("group_id = ?", groupID).
		Order("created_at").Pluck("id", &chargeIDs).Error; err != nil {
		return nil, err
	}

	reports := make([]*SyncReport, 0, len(chargeIDs))
	for _, id := range chargeIDs {
		report, err := s.Sync.Sync(ctx, SyncGroupDTO{ChargeID: id, Confirm: confirm})
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
