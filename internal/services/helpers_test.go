package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"club-finance/internal/auth"
	"club-finance/internal/database"
	"club-finance/internal/lock"
	"club-finance/internal/logger"
	"club-finance/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testEnv struct {
	DB            *gorm.DB
	Locker        *lock.LocalLocker
	Notifications *NotificationService
	Tickets       *TicketService
	Review        *ReviewService
	Proofs        *ProofService
	Sync          *GroupSyncService
	Groups        *GroupService
	Payments      *PaymentService
	Members       *MemberService
	Cleanup       *CleanupService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()[:8]
	db, err := database.OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := logger.Discard()

	env := &testEnv{DB: db, Locker: lock.NewLocalLocker()}
	env.Notifications = NewNotificationService(db, nil, log)
	env.Tickets = NewTicketService(db, log)
	env.Review = NewReviewService(db, env.Tickets, env.Notifications, log)
	env.Proofs = NewProofService(db, env.Notifications, log)
	env.Sync = NewGroupSyncService(db, env.Locker, env.Notifications, log)
	env.Groups = NewGroupService(db, env.Sync, log)
	env.Payments = NewPaymentService(db, env.Notifications, log)
	env.Members = NewMemberService(db, auth.NewTokenManager("test-secret", time.Hour), env.Notifications, log)
	env.Cleanup = NewCleanupService(db, env.Notifications, log, 180, 30)
	return env
}

func (e *testEnv) profile(t *testing.T, role string) *models.Profile {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	p := &models.Profile{
		Email:         uuid.NewString()[:8] + "@club.test",
		FullName:      role + " " + uuid.NewString()[:4],
		PasswordHash:  hash,
		Status:        models.ProfileStatusApproved,
		Role:          role,
		AccountStatus: models.AccountActive,
	}
	require.NoError(t, e.DB.Create(p).Error)
	return p
}

func (e *testEnv) payment(t *testing.T, memberID string, amount int64) *models.Payment {
	t.Helper()
	p := &models.Payment{
		MemberID: &memberID,
		Amount:   decimal.NewFromInt(amount),
		Category: "monthly fee",
		Status:   models.PaymentStatusPending,
		DueDate:  time.Now().AddDate(0, 0, 10),
	}
	require.NoError(t, e.DB.Create(p).Error)
	return p
}

// proof inserts a pending proof directly, bypassing upload validation.
func (e *testEnv) proof(t *testing.T, payment *models.Payment, amount int64, method string) *models.PaymentProof {
	t.Helper()
	p := &models.PaymentProof{
		PaymentID:     payment.ID,
		UserID:        *payment.MemberID,
		ProofAmount:   decimal.NewFromInt(amount),
		PaymentMethod: method,
		Image:         "data:image/png;base64,AAAA",
		ImageMime:     "image/png",
		Status:        models.ProofStatusPending,
		SubmittedAt:   time.Now(),
	}
	require.NoError(t, e.DB.Create(p).Error)
	return p
}

func (e *testEnv) reload(t *testing.T, p *models.Payment) *models.Payment {
	t.Helper()
	var out models.Payment
	require.NoError(t, e.DB.First(&out, "id = ?", p.ID).Error)
	return &out
}

func (e *testEnv) notificationsFor(t *testing.T, userID string) []models.Notification {
	t.Helper()
	var list []models.Notification
	require.NoError(t, e.DB.Where("user_id = ?", userID).Order("created_at").Find(&list).Error)
	return list
}

func (e *testEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.DB.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
