package models

import "time"

type ReviewReply struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	ReviewID  uint      `gorm:"column:review_id;not null;index"`
	UserID    uint      `gorm:"column:user_id;not null;index"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
