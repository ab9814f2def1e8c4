package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a product line inside a cart. PriceAtTime is the unit price
// snapshotted when the product was first added.
type CartItem struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	CartID      uint            `gorm:"column:cart_id;not null;uniqueIndex:idx_cart_items_cart_product,priority:1"`
	ProductID   uint            `gorm:"column:product_id;not null;uniqueIndex:idx_cart_items_cart_product,priority:2"`
	Quantity    int             `gorm:"column:quantity;not null"`
	PriceAtTime decimal.Decimal `gorm:"column:price_at_time;type:decimal(12,2);not null"`
	Product     *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
