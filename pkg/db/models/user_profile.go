package models

import "time"

// UserProfile holds the public facing details of a user. Created alongside the
// user in a single transaction.
type UserProfile struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      uint      `gorm:"column:user_id;not null;uniqueIndex"`
	DisplayName string    `gorm:"column:display_name;type:varchar(120);not null"`
	Bio         *string   `gorm:"column:bio;type:text"`
	AvatarURL   *string   `gorm:"column:avatar_url;type:varchar(512)"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
