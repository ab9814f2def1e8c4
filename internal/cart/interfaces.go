package cart

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
// Mutating helpers expect to run inside the transaction that locked the cart.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUserID(ctx context.Context, userID uint) (*models.Cart, error)
	LockByUserID(ctx context.Context, userID uint) (*models.Cart, error)
	EnsureForUser(ctx context.Context, userID uint) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error)
	FindItemByProduct(ctx context.Context, cartID, productID uint) (*models.CartItem, error)
	ListItems(ctx context.Context, cartID uint) ([]models.CartItem, error)
	UpsertItem(ctx context.Context, cartID, productID uint, quantity int, price decimal.Decimal) error
	SetItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) (int64, error)
	DeleteItem(ctx context.Context, cartID, itemID uint) (int64, error)
	DeleteItems(ctx context.Context, cartID uint) error
	RecomputeTotal(ctx context.Context, cartID uint) (decimal.Decimal, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
