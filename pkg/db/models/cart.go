package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the single per-user cart. Total is derived from Items and rewritten
// after every mutation.
type Cart struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint            `gorm:"column:user_id;not null;uniqueIndex"`
	Total     decimal.Decimal `gorm:"column:total;type:decimal(12,2);not null"`
	Items     []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
