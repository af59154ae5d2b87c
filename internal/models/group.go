package models

import (
	"time"

	"gorm.io/gorm"
)

type Group struct {
	ID          string    `gorm:"column:id;size:36;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;size:150;not null" json:"name"`
	Type        string    `gorm:"column:type;size:50" json:"type"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Group) TableName() string {
	return "club_groups"
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = newID()
	}
	return nil
}

type GroupMembership struct {
	ID        string    `gorm:"column:id;size:36;primaryKey" json:"id"`
	GroupID   string    `gorm:"column:group_id;size:36;not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID    string    `gorm:"column:user_id;size:36;not null;uniqueIndex:idx_group_member;index" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (GroupMembership) TableName() string {
	return "group_memberships"
}

func (m *GroupMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = newID()
	}
	return nil
}
