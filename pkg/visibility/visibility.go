package visibility

import (
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Viewer identifies who is asking to read a review. A zero UserID means an
// anonymous caller.
type Viewer struct {
	UserID  uint
	IsAdmin bool
}

// EnsureReviewVisible hides reviews an admin has taken down from everyone
// except admins and the review author. Hidden reviews look missing.
func EnsureReviewVisible(review *models.Review, viewer Viewer) error {
	if review == nil {
		return pkgerrors.NotFound("Review not found")
	}
	if review.IsVisible || viewer.IsAdmin {
		return nil
	}
	if viewer.UserID != 0 && viewer.UserID == review.UserID {
		return nil
	}
	return pkgerrors.NotFound("Review not found")
}

// CanModerate reports whether the viewer may edit or delete content owned by authorID.
func CanModerate(authorID uint, viewer Viewer) bool {
	if viewer.IsAdmin {
		return true
	}
	return viewer.UserID != 0 && viewer.UserID == authorID
}
