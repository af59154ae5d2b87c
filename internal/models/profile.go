package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProfileStatusPending  = "pending"
	ProfileStatusApproved = "approved"
	ProfileStatusRejected = "rejected"

	RoleAthlete = "athlete"
	RoleAdmin   = "admin"

	AccountActive   = "active"
	AccountInactive = "inactive"
)

type Profile struct {
	ID                 string    `gorm:"column:id;size:36;primaryKey" json:"id"`
	Email              string    `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	FullName           string    `gorm:"column:full_name;size:255;not null" json:"full_name"`
	Phone              string    `gorm:"column:phone;size:50" json:"phone"`
	PasswordHash       string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	Status             string    `gorm:"column:status;size:20;not null;default:pending;index" json:"status"`
	Role               string    `gorm:"column:role;size:20;not null;default:athlete" json:"role"`
	AccountStatus      string    `gorm:"column:account_status;size:20;not null;default:active" json:"account_status"`
	MustChangePassword bool      `gorm:"column:must_change_password;default:false" json:"must_change_password"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanSignIn reports whether the account may hold a session.
func (p *Profile) CanSignIn() bool {
	return p.Status == ProfileStatusApproved && p.AccountStatus == AccountActive
}
