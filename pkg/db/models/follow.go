package models

import "time"

// Follow is a directed edge between two users.
type Follow struct {
	FollowerID  uint      `gorm:"column:follower_id;primaryKey;autoIncrement:false"`
	FollowingID uint      `gorm:"column:following_id;primaryKey;autoIncrement:false;index"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
