package models

import (
	"time"

	"github.com/electrogest/electrogest-backend/pkg/enums"
)

// User represents an operator account.
type User struct {
	ID           uint             `gorm:"column:id;primaryKey;autoIncrement"`
	Login        string           `gorm:"column:login;not null;uniqueIndex"`
	DisplayName  string           `gorm:"column:display_name;not null"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	AccessTier   enums.AccessTier `gorm:"column:access_tier;not null"`
	IsActive     bool             `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
