package models

import "time"

// Review is a user's rating of a product.
type Review struct {
	ID        uint          `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID uint          `gorm:"column:product_id;not null;index"`
	UserID    uint          `gorm:"column:user_id;not null;index"`
	Rating    int           `gorm:"column:rating;not null"`
	Content   string        `gorm:"column:content;type:text;not null"`
	IsVisible bool          `gorm:"column:is_visible;not null"`
	Replies   []ReviewReply `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
