package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"club-finance/internal/auth"
	"club-finance/internal/logger"
	"club-finance/internal/models"
	"club-finance/pkg/common"
)

const (
	minPasswordLength       = 6
	generatedPasswordLength = 12
)

type MemberService struct {
	DB       *gorm.DB
	Tokens   *auth.TokenManager
	Notifier Notifier
	Logger   *logger.Logger
}

func NewMemberService(db *gorm.DB, tokens *auth.TokenManager, notifier Notifier, log *logger.Logger) *MemberService {
	return &MemberService{DB: db, Tokens: tokens, Notifier: notifier, Logger: log}
}

type RegisterDTO struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a pending athlete account. An admin must approve it before sign-in.
func (s *MemberService) Register(ctx context.Context, data RegisterDTO) (*models.Profile, error) {
	email := normalizeEmail(data.Email)
	if !strings.Contains(email, "@") {
		return nil, NewValidationError("a valid email is required")
	}
	if strings.TrimSpace(data.FullName) == "" {
		return nil, NewValidationError("full name is required")
	}
	if len(data.Password) < minPasswordLength {
		return nil, NewValidationError("password must have at least 6 characters")
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Profile{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, NewConflictError("email already registered", nil)
	}

	hash, err := auth.HashPassword(data.Password)
	if err != nil {
		return nil, err
	}
	profile := models.Profile{
		Email:         email,
		FullName:      strings.TrimSpace(data.FullName),
		Phone:         data.Phone,
		PasswordHash:  hash,
		Status:        models.ProfileStatusPending,
		Role:          models.RoleAthlete,
		AccountStatus: models.AccountActive,
	}
	if err := s.DB.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, err
	}

	s.Notifier.NotifyAdmins(ctx, "New registration", profile.FullName+" is waiting for approval.", models.NotificationInfo)
	return &profile, nil
}

// EnsureAdmin creates the first administrator when none exists. Returns true when created.
func (s *MemberService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Profile{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if email == "" || len(password) < minPasswordLength {
		return false, NewValidationError("admin email and a password of at least 6 characters are required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := models.Profile{
		Email:         normalizeEmail(email),
		FullName:      name,
		PasswordHash:  hash,
		Status:        models.ProfileStatusApproved,
		Role:          models.RoleAdmin,
		AccountStatus: models.AccountActive,
	}
	if err := s.DB.WithContext(ctx).Create(&admin).Error; err != nil {
		return false, err
	}
	return true, nil
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"profile"`
}

func (s *MemberService) Login(ctx context.Context, data LoginDTO) (*LoginResult, error) {
	var profile models.Profile
	err := s.DB.WithContext(ctx).First(&profile, "email = ?", normalizeEmail(data.Email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(profile.PasswordHash, data.Password) {
		return nil, ErrInvalidLogin
	}
	if !profile.CanSignIn() {
		return nil, ErrAccountNotActive
	}

	token, err := s.Tokens.Generate(profile.ID, profile.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Profile: &profile}, nil
}

// Session rebuilds the caller's identity from the database for a verified token subject.
func (s *MemberService) Session(ctx context.Context, userID string) (*auth.Session, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.CanSignIn() {
		return nil, ErrAccountNotActive
	}
	return &auth.Session{UserID: profile.ID, Role: profile.Role, Profile: profile}, nil
}

func (s *MemberService) Get(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.DB.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &profile, nil
}

type ListMembersDTO struct {
	Status string
	Search string
	Page   int
	Limit  int
}

func (s *MemberService) List(ctx context.Context, data ListMembersDTO) (common.PaginationResult, error) {
	page, limit, offset := common.Page(data.Page, data.Limit)

	query := s.DB.WithContext(ctx).Model(&models.Profile{})
	if data.Status != "" {
		query = query.Where("status = ?", data.Status)
	}
	if q := strings.TrimSpace(data.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return common.PaginationResult{}, err
	}
	var profiles []models.Profile
	if err := query.Order("full_name").Limit(limit).Offset(offset).Find(&profiles).Error; err != nil {
		return common.PaginationResult{}, err
	}
	return common.PaginateResponse(profiles, total, page, limit, "Members fetched"), nil
}

func (s *MemberService) update(ctx context.Context, id string, updates map[string]interface{}) (*models.Profile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(profile).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *MemberService) Approve(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.update(ctx, id, map[string]interface{}{"status": models.ProfileStatusApproved})
	if err != nil {
		return nil, err
	}
	s.Notifier.NotifyMember(ctx, id, "Registration approved", "Welcome to the club, your account is now active.", models.NotificationSuccess)
	return profile, nil
}

func (s *MemberService) Reject(ctx context.Context, id string) (*models.Profile, error) {
	return s.update(ctx, id, map[string]interface{}{"status": models.ProfileStatusRejected})
}

func (s *MemberService) SetAccountStatus(ctx context.Context, id, status string) (*models.Profile, error) {
	if status != models.AccountActive && status != models.AccountInactive {
		return nil, NewValidationError("account status must be active or inactive")
	}
	return s.update(ctx, id, map[string]interface{}{"account_status": status})
}

func (s *MemberService) SetRole(ctx context.Context, id, role string) (*models.Profile, error) {
	if role != models.RoleAdmin && role != models.RoleAthlete {
		return nil, NewValidationError("role must be athlete or admin")
	}
	return s.update(ctx, id, map[string]interface{}{"role": role})
}

// Delete removes a member with everything that references them.
func (s *MemberService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := tx.Model(&models.Payment{}).Select("id").Where("member_id = ?", id)
		steps := []func() error{
			func() error { return tx.Where("user_id = ?", id).Delete(&models.Notification{}).Error },
			func() error {
				return tx.Where("user_id = ? OR payment_id IN (?)", id, payments).Delete(&models.PaymentProof{}).Error
			},
			func() error {
				return tx.Where("user_id = ? OR payment_id IN (?)", id, payments).Delete(&models.PaymentTicket{}).Error
			},
			func() error { return tx.Where("member_id = ?", id).Delete(&models.Payment{}).Error },
			func() error { return tx.Where("user_id = ?", id).Delete(&models.GroupMembership{}).Error },
			func() error { return tx.Where("id = ?", id).Delete(&models.Profile{}).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
}

type ChangePasswordDTO struct {
	UserID          string `json:"-"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *MemberService) ChangePassword(ctx context.Context, data ChangePasswordDTO) error {
	profile, err := s.Get(ctx, data.UserID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(profile.PasswordHash, data.CurrentPassword) {
		return ErrInvalidLogin
	}
	if len(data.NewPassword) < minPasswordLength {
		return NewValidationError("password must have at least 6 characters")
	}
	hash, err := auth.HashPassword(data.NewPassword)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Model(profile).Updates(map[string]interface{}{
		"password_hash":        hash,
		"must_change_password": false,
	}).Error
}

type ResetPasswordDTO struct {
	CallerID    string // verified token subject
	AdminUserID string
	UserID      string // profile id or email
	NewPassword string
}

// ResetPassword sets a new password for a member on behalf of an admin and forces a change
// on next sign-in. The plaintext password is returned once.
func (s *MemberService) ResetPassword(ctx context.Context, data ResetPasswordDTO) (string, error) {
	if strings.TrimSpace(data.UserID) == "" {
		return "", NewValidationError("userId is required")
	}
	if data.AdminUserID != "" && data.AdminUserID != data.CallerID {
		return "", ErrNotAllowed
	}

	var caller models.Profile
	err := s.DB.WithContext(ctx).Select("id", "role").First(&caller, "id = ?", data.CallerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotAllowed
	}
	if err != nil {
		return "", err
	}
	if !caller.IsAdmin() {
		return "", ErrNotAllowed
	}

	var target models.Profile
	err = s.DB.WithContext(ctx).First(&target, "id = ?", data.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.DB.WithContext(ctx).First(&target, "email = ?", normalizeEmail(data.UserID)).Error
	}
	if err != nil {
		return "", notFound(err, ErrProfileNotFound)
	}

	password := data.NewPassword
	if password == "" {
		password = common.GeneratePassword(generatedPasswordLength)
	} else if len(password) < minPasswordLength {
		return "", NewValidationError("password must have at least 6 characters")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	if err := s.DB.WithContext(ctx).Model(&target).Updates(map[string]interface{}{
		"password_hash":        hash,
		"must_change_password": true,
	}).Error; err != nil {
		return "", err
	}

	s.Logger.Infof("password of %s reset by admin %s", target.ID, caller.ID)
	return password, nil
}
