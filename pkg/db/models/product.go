package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog listing. Stock is only mutated when a cart is
// cleared.
type Product struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;type:varchar(200);not null"`
	Slug        string          `gorm:"column:slug;type:varchar(220);not null;uniqueIndex"`
	Description *string         `gorm:"column:description;type:text"`
	ImageURL    *string         `gorm:"column:image_url;type:varchar(512)"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null"`
	Stock       int             `gorm:"column:stock;not null"`
	IsSpecial   bool            `gorm:"column:is_special;not null"`
	Rating      decimal.Decimal `gorm:"column:rating;type:decimal(3,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
