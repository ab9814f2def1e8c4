package products

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ProductRepository defines the catalog persistence surface.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) (int64, error)
	SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	DecrementStock(ctx context.Context, productID uint, qty int) error
	DetachFromCarts(ctx context.Context, productID uint) ([]uint, error)
	RefreshCartTotals(ctx context.Context, cartIDs []uint) error
}

// Repository is the GORM-backed ProductRepository.
type Repository struct {
	base repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) ProductRepository {
	return &Repository{base: r.base.Bind(tx)}
}

// FindByID loads a single product.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.base.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns up to limit products ordered newest first, starting after cursor.
func (r *Repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.base.DB(ctx).Model(&models.Product{})

	if filter.Special != nil {
		query = query.Where("is_special = ?", *filter.Special)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", like, like)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a new product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.base.DB(ctx).Create(product).Error
}

// Update saves every column of the product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.base.DB(ctx).Save(product).Error
}

// Delete removes a product and reports the affected row count.
func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.base.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// SlugTaken reports whether another product already uses slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	query := r.base.DB(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DecrementStock atomically subtracts qty from the product's stock. Stock may
// go negative; availability is not checked.
func (r *Repository) DecrementStock(ctx context.Context, productID uint, qty int) error {
	res := r.base.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DetachFromCarts deletes every cart line that references the product and
// returns the ids of the carts that lost a line.
func (r *Repository) DetachFromCarts(ctx context.Context, productID uint) ([]uint, error) {
	db := r.base.DB(ctx)

	var cartIDs []uint
	if err := db.Model(&models.CartItem{}).
		Where("product_id = ?", productID).
		Distinct().
		Pluck("cart_id", &cartIDs).Error; err != nil {
		return nil, err
	}
	if len(cartIDs) == 0 {
		return nil, nil
	}
	if err := db.Where("product_id = ?", productID).Delete(&models.CartItem{}).Error; err != nil {
		return nil, err
	}
	return cartIDs, nil
}

// RefreshCartTotals rewrites the stored total of each cart from its lines.
func (r *Repository) RefreshCartTotals(ctx context.Context, cartIDs []uint) error {
	if len(cartIDs) == 0 {
		return nil
	}
	return r.base.DB(ctx).Exec(`
		UPDATE carts
		SET total = COALESCE((
			SELECT ROUND(SUM(cart_items.quantity * cart_items.price_at_time), 2)
			FROM cart_items
			WHERE cart_items.cart_id = carts.id
		), 0),
		updated_at = ?
		WHERE id IN ?`, time.Now().UTC(), cartIDs).Error
}
