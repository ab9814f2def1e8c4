package reviews

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
)

type createReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Content string `json:"content" validate:"required"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Content *string `json:"content,omitempty"`
}

type visibilityRequest struct {
	IsVisible *bool `json:"is_visible" validate:"required"`
}

type replyRequest struct {
	Content string `json:"content" validate:"required"`
}

func viewerFrom(r *http.Request) visibility.Viewer {
	ctx := r.Context()
	return visibility.Viewer{
		UserID:  middleware.UserIDFromContext(ctx),
		IsAdmin: middleware.IsAdmin(ctx),
	}
}
