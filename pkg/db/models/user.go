package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uint           `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string         `gorm:"column:email;type:varchar(255);not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;type:varchar(255);not null"`
	Role         enums.UserRole `gorm:"column:role;type:varchar(32);not null"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	Profile      *UserProfile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
