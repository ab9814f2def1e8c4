package reviews

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ReviewRepository is the persistence surface for reviews and replies.
type ReviewRepository interface {
	WithTx(tx *gorm.DB) ReviewRepository
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uint) (*models.Review, error)
	ListVisibleByProduct(ctx context.Context, productID uint, cursor *pagination.Cursor, limit int) ([]models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	SetVisibility(ctx context.Context, id uint, visible bool) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
	DeleteReplies(ctx context.Context, reviewID uint) error
	CreateReply(ctx context.Context, reply *models.ReviewReply) error
	FindReply(ctx context.Context, id uint) (*models.ReviewReply, error)
	DeleteReply(ctx context.Context, id uint) (int64, error)
	Engagement(ctx context.Context, limit int) ([]EngagementRow, error)
}

// EngagementRow is one product's visible review aggregate.
type EngagementRow struct {
	ProductID     uint
	ProductName   string
	ReviewCount   int64
	AverageRating decimal.Decimal
}

// Repository is the GORM-backed ReviewRepository.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a review repository bound to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ReviewRepository {
	return &Repository{base: r.base.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.base.DB(ctx).Create(review).Error
}

// FindByID loads a review with its replies, oldest reply first.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	err := r.base.DB(ctx).
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&review, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListVisibleByProduct pages visible reviews newest first.
func (r *Repository) ListVisibleByProduct(ctx context.Context, productID uint, cursor *pagination.Cursor, limit int) ([]models.Review, error) {
	query := r.base.DB(ctx).
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("product_id = ? AND is_visible = ?", productID, true)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Review
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update persists rating and content edits.
func (r *Repository) Update(ctx context.Context, review *models.Review) error {
	return r.base.DB(ctx).
		Model(review).
		Select("rating", "content", "updated_at").
		Updates(review).Error
}

func (r *Repository) SetVisibility(ctx context.Context, id uint, visible bool) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Update("is_visible", visible)
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.base.DB(ctx).Delete(&models.Review{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// DeleteReplies removes every reply attached to a review.
func (r *Repository) DeleteReplies(ctx context.Context, reviewID uint) error {
	return r.base.DB(ctx).Where("review_id = ?", reviewID).Delete(&models.ReviewReply{}).Error
}

func (r *Repository) CreateReply(ctx context.Context, reply *models.ReviewReply) error {
	return r.base.DB(ctx).Create(reply).Error
}

func (r *Repository) FindReply(ctx context.Context, id uint) (*models.ReviewReply, error) {
	var reply models.ReviewReply
	if err := r.base.DB(ctx).First(&reply, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *Repository) DeleteReply(ctx context.Context, id uint) (int64, error) {
	res := r.base.DB(ctx).Delete(&models.ReviewReply{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// Engagement aggregates visible reviews per product ordered by average rating
// descending, then product id ascending.
func (r *Repository) Engagement(ctx context.Context, limit int) ([]EngagementRow, error) {
	var rows []EngagementRow
	err := r.base.DB(ctx).
		Table("reviews").
		Select("reviews.product_id AS product_id, products.name AS product_name, COUNT(reviews.id) AS review_count, AVG(reviews.rating) AS average_rating").
		Joins("JOIN products ON products.id = reviews.product_id").
		Where("reviews.is_visible = ?", true).
		Group("reviews.product_id, products.name").
		Order("average_rating DESC").
		Order("reviews.product_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
