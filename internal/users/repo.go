package users

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.base.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateProfile inserts the profile row for a freshly created user.
func (r *Repository) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	return r.base.DB(ctx).Create(profile).Error
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.base.DB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user together with their profile.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.base.DB(ctx).Preload("Profile").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user row with id is present.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.base.DB(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.base.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// SaveProfile persists every column of the profile.
func (r *Repository) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	return r.base.DB(ctx).Save(profile).Error
}

// Delete removes the user and everything owned by them. Child rows are deleted
// explicitly so the outcome does not depend on the driver enforcing foreign keys.
func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	db := r.base.DB(ctx)

	cartIDs := db.Model(&models.Cart{}).Select("id").Where("user_id = ?", id)
	if err := db.Where("cart_id IN (?)", cartIDs).Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("user_id = ?", id).Delete(&models.Cart{}).Error; err != nil {
		return 0, err
	}

	reviewIDs := db.Model(&models.Review{}).Select("id").Where("user_id = ?", id)
	if err := db.Where("review_id IN (?) OR user_id = ?", reviewIDs, id).Delete(&models.ReviewReply{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("user_id = ?", id).Delete(&models.Review{}).Error; err != nil {
		return 0, err
	}

	if err := db.Where("follower_id = ? OR following_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("user_id = ?", id).Delete(&models.UserProfile{}).Error; err != nil {
		return 0, err
	}

	res := db.Delete(&models.User{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
