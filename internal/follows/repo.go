package follows

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists follow edges between users.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a follows repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// Connection is a user on the other end of a follow edge.
type Connection struct {
	UserID      uint
	DisplayName string
	FollowedAt  time.Time
}

// Add inserts the edge, ignoring duplicates.
func (r *Repository) Add(ctx context.Context, followerID, followingID uint) error {
	edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
	return r.base.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge).Error
}

// Remove deletes the edge if present.
func (r *Repository) Remove(ctx context.Context, followerID, followingID uint) error {
	return r.base.DB(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
}

// UserExists reports whether a user row is present.
func (r *Repository) UserExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.base.DB(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Followers lists users following userID, most recent first.
func (r *Repository) Followers(ctx context.Context, userID uint) ([]Connection, error) {
	return r.connections(ctx, "follows.follower_id", "follows.following_id = ?", userID)
}

// Following lists users that userID follows, most recent first.
func (r *Repository) Following(ctx context.Context, userID uint) ([]Connection, error) {
	return r.connections(ctx, "follows.following_id", "follows.follower_id = ?", userID)
}

func (r *Repository) connections(ctx context.Context, otherColumn, where string, userID uint) ([]Connection, error) {
	var rows []Connection
	err := r.base.DB(ctx).
		Table("follows").
		Select(otherColumn+" AS user_id, COALESCE(user_profiles.display_name, '') AS display_name, follows.created_at AS followed_at").
		Joins("LEFT JOIN user_profiles ON user_profiles.user_id = "+otherColumn).
		Where(where, userID).
		Order("follows.created_at DESC").
		Order(otherColumn + " ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
