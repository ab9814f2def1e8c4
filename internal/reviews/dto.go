package reviews

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// ReviewDTO is the review payload returned to clients.
type ReviewDTO struct {
	ID        uint       `json:"id"`
	ProductID uint       `json:"product_id"`
	UserID    uint       `json:"user_id"`
	Rating    int        `json:"rating"`
	Content   string     `json:"content"`
	IsVisible bool       `json:"is_visible"`
	Replies   []ReplyDTO `json:"replies"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ReplyDTO struct {
	ID        uint      `json:"id"`
	ReviewID  uint      `json:"review_id"`
	UserID    uint      `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewListResult is a page of a product's visible reviews.
type ReviewListResult struct {
	Reviews    []ReviewDTO `json:"reviews"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// EngagementDTO summarises visible reviews for one product.
type EngagementDTO struct {
	ProductID     uint    `json:"product_id"`
	ProductName   string  `json:"product_name"`
	ReviewCount   int64   `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

func NewReviewDTO(review *models.Review) *ReviewDTO {
	if review == nil {
		return nil
	}
	dto := &ReviewDTO{
		ID:        review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Content:   review.Content,
		IsVisible: review.IsVisible,
		Replies:   make([]ReplyDTO, 0, len(review.Replies)),
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
	for i := range review.Replies {
		dto.Replies = append(dto.Replies, *NewReplyDTO(&review.Replies[i]))
	}
	return dto
}

func NewReplyDTO(reply *models.ReviewReply) *ReplyDTO {
	if reply == nil {
		return nil
	}
	return &ReplyDTO{
		ID:        reply.ID,
		ReviewID:  reply.ReviewID,
		UserID:    reply.UserID,
		Content:   reply.Content,
		CreatedAt: reply.CreatedAt,
	}
}

func newEngagementDTOs(rows []EngagementRow) []EngagementDTO {
	out := make([]EngagementDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, EngagementDTO{
			ProductID:     row.ProductID,
			ProductName:   row.ProductName,
			ReviewCount:   row.ReviewCount,
			AverageRating: types.Money(row.AverageRating),
		})
	}
	return out
}
