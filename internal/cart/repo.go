package cart

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	return &Repository{base: r.base.Bind(tx)}
}

// FindByUserID loads the user's cart with items and their products.
func (r *Repository) FindByUserID(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.base.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// LockByUserID reads the cart row with SELECT ... FOR UPDATE. Drivers without
// row locks (sqlite) serialize writers at the database level instead.
func (r *Repository) LockByUserID(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.base.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// EnsureForUser creates the cart if missing and returns it locked. Concurrent
// callers converge on the single row guarded by the unique user_id index.
func (r *Repository) EnsureForUser(ctx context.Context, userID uint) (*models.Cart, error) {
	fresh := models.Cart{UserID: userID, Total: decimal.Zero}
	err := r.base.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&fresh).Error
	if err != nil {
		return nil, err
	}
	return r.LockByUserID(ctx, userID)
}

// FindItem loads an item scoped to its cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.base.DB(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByProduct loads the cart line for a product.
func (r *Repository) FindItemByProduct(ctx context.Context, cartID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.base.DB(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns items belonging to a cart.
func (r *Repository) ListItems(ctx context.Context, cartID uint) ([]models.CartItem, error) {
	var rows []models.CartItem
	if err := r.base.DB(ctx).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertItem inserts a new line or, when the product is already in the cart,
// adds quantity to the existing line. The stored price snapshot of an existing
// line is never touched.
func (r *Repository) UpsertItem(ctx context.Context, cartID, productID uint, quantity int, price decimal.Decimal) error {
	item := models.CartItem{
		CartID:      cartID,
		ProductID:   productID,
		Quantity:    quantity,
		PriceAtTime: price,
	}
	return r.base.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(&item).Error
}

// SetItemQuantity overwrites an item's quantity and reports affected rows.
func (r *Repository) SetItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Update("quantity", quantity)
	return res.RowsAffected, res.Error
}

// DeleteItem removes one item scoped to its cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uint) (int64, error) {
	res := r.base.DB(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteItems removes every item in the cart.
func (r *Repository) DeleteItems(ctx context.Context, cartID uint) error {
	return r.base.DB(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// RecomputeTotal sums quantity * price_at_time for the cart, persists it on the
// cart row and returns it.
func (r *Repository) RecomputeTotal(ctx context.Context, cartID uint) (decimal.Decimal, error) {
	db := r.base.DB(ctx)

	var total decimal.Decimal
	row := db.Model(&models.CartItem{}).
		Select("COALESCE(SUM(quantity * price_at_time), 0)").
		Where("cart_id = ?", cartID).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	total = total.Round(2)

	if err := db.Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("total", total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
