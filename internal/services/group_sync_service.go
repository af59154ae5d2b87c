package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"club-finance/internal/lock"
	"club-finance/internal/logger"
	"club-finance/internal/metrics"
	"club-finance/internal/models"
	"club-finance/pkg/common"
)

const syncLockTTL = 2 * time.Minute

// originMarker tags the observation of a payment detached from its group charge.
func originMarker(groupID string) string {
	return fmt.Sprintf("[original group: %s]", groupID)
}

type GroupSyncService struct {
	DB       *gorm.DB
	Locker   lock.Locker
	Notifier Notifier
	Logger   *logger.Logger
}

func NewGroupSyncService(db *gorm.DB, locker lock.Locker, notifier Notifier, log *logger.Logger) *GroupSyncService {
	return &GroupSyncService{DB: db, Locker: locker, Notifier: notifier, Logger: log}
}

type SyncGroupDTO struct {
	ChargeID string
	Confirm  bool // allow deleting paid rows that have no ticket
}

type SyncReport struct {
	ChargeID          string   `json:"chargeId"`
	GroupID           string   `json:"groupId"`
	Added             []string `json:"added"`
	Reattached        []string `json:"reattached"`
	Detached          []string `json:"detached"`
	Deleted           []string `json:"deleted"`
	NeedsConfirmation []string `json:"needsConfirmation,omitempty"`
	Message           string   `json:"message"`
}

func (r *SyncReport) empty() bool {
	return len(r.Added)+len(r.Reattached)+len(r.Detached)+len(r.Deleted) == 0
}

type syncPlan struct {
	charge   models.GroupCharge
	create   []string                  // member ids without any payment for the charge
	reattach map[string]models.Payment // member id -> orphaned payment
	detach   []models.Payment
	remove   []models.Payment
	confirm  []string // payment ids of paid rows without ticket
}

func (p *syncPlan) report() *SyncReport {
	r := &SyncReport{
		ChargeID:          p.charge.ID,
		GroupID:           p.charge.GroupID,
		Added:             append([]string{}, p.create...),
		Reattached:        []string{},
		Detached:          []string{},
		Deleted:           []string{},
		NeedsConfirmation: p.confirm,
	}
	for member := range p.reattach {
		r.Reattached = append(r.Reattached, member)
	}
	sort.Strings(r.Reattached)
	for _, pay := range p.detach {
		r.Detached = append(r.Detached, *pay.MemberID)
	}
	for _, pay := range p.remove {
		r.Deleted = append(r.Deleted, *pay.MemberID)
	}
	return r
}

func (s *GroupSyncService) plan(ctx context.Context, chargeID string) (*syncPlan, error) {
	db := s.DB.WithContext(ctx)

	var charge models.GroupCharge
	if err := db.First(&charge, "id = ?", chargeID).Error; err != nil {
		return nil, notFound(err, ErrChargeNotFound)
	}

	var roster []string
	if err := db.Model(&models.GroupMembership{}).Where("group_id = ?", charge.GroupID).
		Order("user_id").Pluck("user_id", &roster).Error; err != nil {
		return nil, err
	}
	var existing []models.Payment
	if err := db.Where("group_charge_id = ? AND member_id IS NOT NULL", charge.ID).
		Find(&existing).Error; err != nil {
		return nil, err
	}

	inRoster := make(map[string]bool, len(roster))
	for _, id := range roster {
		inRoster[id] = true
	}
	billed := make(map[string]bool, len(existing))
	for _, p := range existing {
		billed[*p.MemberID] = true
	}

	plan := &syncPlan{charge: charge, reattach: map[string]models.Payment{}}

	for _, member := range roster {
		if billed[member] {
			continue
		}
		var orphan models.Payment
		err := db.Where("member_id = ? AND group_id IS NULL AND original_group_charge_id = ?", member, charge.ID).
			Order("created_at ASC").First(&orphan).Error
		switch {
		case err == nil:
			plan.reattach[member] = orphan
		case errors.Is(err, gorm.ErrRecordNotFound):
			plan.create = append(plan.create, member)
		default:
			return nil, err
		}
	}

	var stale []models.Payment
	var staleIDs []string
	for _, p := range existing {
		if !inRoster[*p.MemberID] {
			stale = append(stale, p)
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(stale) == 0 {
		return plan, nil
	}

	var ticketed []string
	if err := db.Model(&models.PaymentTicket{}).Where("payment_id IN ?", staleIDs).
		Pluck("payment_id", &ticketed).Error; err != nil {
		return nil, err
	}
	hasTicket := make(map[string]bool, len(ticketed))
	for _, id := range ticketed {
		hasTicket[id] = true
	}

	for _, p := range stale {
		if hasTicket[p.ID] {
			plan.detach = append(plan.detach, p)
			continue
		}
		if p.Status == models.PaymentStatusPaid {
			plan.confirm = append(plan.confirm, p.ID)
		}
		plan.remove = append(plan.remove, p)
	}
	return plan, nil
}

// Preview reports what Sync would do without writing anything.
func (s *GroupSyncService) Preview(ctx context.Context, chargeID string) (*SyncReport, error) {
	plan, err := s.plan(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	report := plan.report()
	if report.empty() {
		report.Message = "already synchronized"
	} else {
		report.Message = "changes pending"
	}
	return report, nil
}

// Sync brings the payments of a group charge in line with the group's current roster.
// Members that joined get a payment (or their detached one back), members that left lose
// theirs, except ticketed payments which are detached and kept.
func (s *GroupSyncService) Sync(ctx context.Context, data SyncGroupDTO) (*SyncReport, error) {
	release, err := s.Locker.Acquire(ctx, "group-sync:"+data.ChargeID, syncLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			metrics.GroupSyncs.WithLabelValues("locked").Inc()
			return nil, ErrSyncInProgress
		}
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	defer func() {
		if err := release(); err != nil {
			s.Logger.Warnf("group sync lock for charge %s: %v", data.ChargeID, err)
		}
	}()

	plan, err := s.plan(ctx, data.ChargeID)
	if err != nil {
		return nil, err
	}
	report := plan.report()

	if report.empty() {
		report.Message = "already synchronized"
		metrics.GroupSyncs.WithLabelValues("noop").Inc()
		return report, nil
	}
	if len(plan.confirm) > 0 && !data.Confirm {
		report.Message = "paid payments without ticket would be deleted, confirmation required"
		metrics.GroupSyncs.WithLabelValues("needs_confirmation").Inc()
		return nil, NewConflictError(report.Message, report)
	}
	report.NeedsConfirmation = nil

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, member := range plan.create {
			if err := tx.Create(newChargePayment(plan.charge, member)).Error; err != nil {
				return err
			}
		}
		for _, orphan := range plan.reattach {
			if err := reattachPayment(tx, plan.charge, orphan); err != nil {
				return err
			}
		}
		for _, p := range plan.detach {
			if err := detachPayment(tx, plan.charge, p); err != nil {
				return err
			}
		}
		if len(plan.remove) > 0 {
			ids := make([]string, 0, len(plan.remove))
			for _, p := range plan.remove {
				ids = append(ids, p.ID)
			}
			if err := tx.Where("payment_id IN ?", ids).Delete(&models.PaymentProof{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ids).Delete(&models.Payment{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		metrics.GroupSyncs.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.GroupSyncs.WithLabelValues("applied").Inc()

	msg := fmt.Sprintf("New charge for %s: %s due %s.", plan.charge.Category,
		common.FormatBRL(plan.charge.Amount), plan.charge.DueDate.Format("02/01/2006"))
	for _, member := range report.Added {
		s.Notifier.NotifyMember(ctx, member, "New payment", msg, models.NotificationInfo)
	}
	for _, member := range report.Reattached {
		s.Notifier.NotifyMember(ctx, member, "Payment restored",
			fmt.Sprintf("Your payment for %s is linked to your group again.", plan.charge.Category),
			models.NotificationInfo)
	}

	report.Message = fmt.Sprintf("%d added, %d reattached, %d detached, %d deleted",
		len(report.Added), len(report.Reattached), len(report.Detached), len(report.Deleted))
	s.Logger.Infof("group charge %s synchronized: %s", plan.charge.ID, report.Message)
	return report, nil
}

func newChargePayment(charge models.GroupCharge, memberID string) *models.Payment {
	member := memberID
	groupID := charge.GroupID
	chargeID := charge.ID
	return &models.Payment{
		MemberID:      &member,
		GroupID:       &groupID,
		GroupChargeID: &chargeID,
		Amount:        charge.Amount,
		Category:      charge.Category,
		Status:        models.PaymentStatusPending,
		DueDate:       charge.DueDate,
		Observation:   charge.Observation,
		PixKey:        charge.PixKey,
		PixName:       charge.PixName,
	}
}

func reattachPayment(tx *gorm.DB, charge models.GroupCharge, p models.Payment) error {
	observation := p.Observation
	if p.OriginalGroupID != nil {
		observation = strings.TrimSpace(strings.ReplaceAll(observation, originMarker(*p.OriginalGroupID), ""))
	}
	return tx.Model(&models.Payment{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"group_id":                 charge.GroupID,
		"group_charge_id":          charge.ID,
		"original_group_id":        nil,
		"original_group_charge_id": nil,
		"observation":              observation,
	}).Error
}

func detachPayment(tx *gorm.DB, charge models.GroupCharge, p models.Payment) error {
	observation := p.Observation
	marker := originMarker(charge.GroupID)
	if !strings.Contains(observation, marker) {
		observation = strings.TrimSpace(observation + " " + marker)
	}
	return tx.Model(&models.Payment{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"group_id":                 nil,
		"group_charge_id":          nil,
		"original_group_id":        charge.GroupID,
		"original_group_charge_id": charge.ID,
		"observation":              observation,
	}).Error
}
