package reviews

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
)

const (
	maxContentLength   = 5000
	maxEngagementLimit = 500
	engagementCacheTTL = time.Minute

	msgReviewNotFound = "Review not found"
	msgReplyNotFound  = "Reply not found"
)

// Service exposes review CRUD plus the engagement aggregate.
type Service interface {
	Create(ctx context.Context, userID, productID uint, input CreateReviewInput) (*ReviewDTO, error)
	ListByProduct(ctx context.Context, productID uint, params pagination.Params) (*ReviewListResult, error)
	Get(ctx context.Context, id uint, viewer visibility.Viewer) (*ReviewDTO, error)
	Update(ctx context.Context, viewer visibility.Viewer, id uint, input UpdateReviewInput) (*ReviewDTO, error)
	SetVisibility(ctx context.Context, id uint, visible bool) (*ReviewDTO, error)
	Delete(ctx context.Context, viewer visibility.Viewer, id uint) error
	Reply(ctx context.Context, viewer visibility.Viewer, reviewID uint, content string) (*ReplyDTO, error)
	DeleteReply(ctx context.Context, viewer visibility.Viewer, replyID uint) error
	FetchProductEngagement(ctx context.Context, limit int) ([]EngagementDTO, error)
}

type CreateReviewInput struct {
	Rating  int
	Content string
}

// UpdateReviewInput carries optional edits; nil fields are left untouched.
type UpdateReviewInput struct {
	Rating  *int
	Content *string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the review service collaborators. Cache and Logger are optional.
type ServiceParams struct {
	Repo            ReviewRepository
	Products        products.ProductRepository
	Tx              txRunner
	Cache           redis.JSONCache
	Logger          *logger.Logger
	EngagementLimit int
}

type service struct {
	repo            ReviewRepository
	products        products.ProductRepository
	tx              txRunner
	cache           redis.JSONCache
	logg            *logger.Logger
	engagementLimit int
}

// NewService builds a review service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	limit := params.EngagementLimit
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	return &service{
		repo:            params.Repo,
		products:        params.Products,
		tx:              params.Tx,
		cache:           params.Cache,
		logg:            params.Logger,
		engagementLimit: limit,
	}, nil
}

func (s *service) Create(ctx context.Context, userID, productID uint, input CreateReviewInput) (*ReviewDTO, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	content, err := normalizeContent(input.Content)
	if err != nil {
		return nil, err
	}
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Content:   content,
		IsVisible: true,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	s.invalidateEngagement(ctx)
	return NewReviewDTO(review), nil
}

func (s *service) ListByProduct(ctx context.Context, productID uint, params pagination.Params) (*ReviewListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListVisibleByProduct(ctx, productID, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}

	page := pagination.Trim(rows, limit, func(r models.Review) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	result := &ReviewListResult{
		Reviews:    make([]ReviewDTO, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for i := range page.Items {
		result.Reviews = append(result.Reviews, *NewReviewDTO(&page.Items[i]))
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uint, viewer visibility.Viewer) (*ReviewDTO, error) {
	review, err := s.loadVisible(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	return NewReviewDTO(review), nil
}

func (s *service) Update(ctx context.Context, viewer visibility.Viewer, id uint, input UpdateReviewInput) (*ReviewDTO, error) {
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
	}
	var content *string
	if input.Content != nil {
		normalized, err := normalizeContent(*input.Content)
		if err != nil {
			return nil, err
		}
		content = &normalized
	}

	review, err := s.loadVisible(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	if review.UserID != viewer.UserID {
		return nil, pkgerrors.Forbidden("only the author can edit a review")
	}

	if input.Rating != nil {
		review.Rating = *input.Rating
	}
	if content != nil {
		review.Content = *content
	}
	if err := s.repo.Update(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
	}
	s.invalidateEngagement(ctx)
	return NewReviewDTO(review), nil
}

// SetVisibility checks existence by lookup rather than by affected rows: MySQL
// reports zero affected rows when the flag already has the requested value.
func (s *service) SetVisibility(ctx context.Context, id uint, visible bool) (*ReviewDTO, error) {
	var review *models.Review
	changed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLookupErr(err, msgReviewNotFound, "load review")
		}
		if found.IsVisible != visible {
			if _, err := repo.SetVisibility(ctx, id, visible); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set review visibility")
			}
			found.IsVisible = visible
			changed = true
		}
		review = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.invalidateEngagement(ctx)
	}
	return NewReviewDTO(review), nil
}

func (s *service) Delete(ctx context.Context, viewer visibility.Viewer, id uint) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		review, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLookupErr(err, msgReviewNotFound, "load review")
		}
		if err := visibility.EnsureReviewVisible(review, viewer); err != nil {
			return err
		}
		if !visibility.CanModerate(review.UserID, viewer) {
			return pkgerrors.Forbidden("only the author or an admin can delete a review")
		}
		if err := repo.DeleteReplies(ctx, review.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review replies")
		}
		if _, err := repo.Delete(ctx, review.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateEngagement(ctx)
	return nil
}

func (s *service) Reply(ctx context.Context, viewer visibility.Viewer, reviewID uint, content string) (*ReplyDTO, error) {
	normalized, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadVisible(ctx, reviewID, viewer); err != nil {
		return nil, err
	}

	reply := &models.ReviewReply{
		ReviewID: reviewID,
		UserID:   viewer.UserID,
		Content:  normalized,
	}
	if err := s.repo.CreateReply(ctx, reply); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reply")
	}
	return NewReplyDTO(reply), nil
}

func (s *service) DeleteReply(ctx context.Context, viewer visibility.Viewer, replyID uint) error {
	reply, err := s.repo.FindReply(ctx, replyID)
	if err != nil {
		return mapLookupErr(err, msgReplyNotFound, "load reply")
	}
	if !visibility.CanModerate(reply.UserID, viewer) {
		return pkgerrors.Forbidden("only the author or an admin can delete a reply")
	}
	affected, err := s.repo.DeleteReply(ctx, reply.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reply")
	}
	if affected == 0 {
		return pkgerrors.NotFound(msgReplyNotFound)
	}
	return nil
}

// FetchProductEngagement returns per-product review counts and average
// ratings. Results for the default limit are cached when a cache is wired.
func (s *service) FetchProductEngagement(ctx context.Context, limit int) ([]EngagementDTO, error) {
	if limit <= 0 {
		limit = s.engagementLimit
	}
	if limit > maxEngagementLimit {
		limit = maxEngagementLimit
	}
	cacheable := s.cache != nil && limit == s.engagementLimit

	if cacheable {
		var cached []EngagementDTO
		err := s.cache.GetJSON(ctx, s.engagementKey(), &cached)
		switch {
		case err == nil:
			return cached, nil
		case !errors.Is(err, redis.ErrCacheMiss):
			s.warn(ctx, "engagement cache read failed", err)
		}
	}

	rows, err := s.repo.Engagement(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate engagement")
	}
	result := newEngagementDTOs(rows)

	if cacheable {
		if err := s.cache.SetJSON(ctx, s.engagementKey(), result, engagementCacheTTL); err != nil {
			s.warn(ctx, "engagement cache write failed", err)
		}
	}
	return result, nil
}

func (s *service) loadVisible(ctx context.Context, id uint, viewer visibility.Viewer) (*models.Review, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, msgReviewNotFound, "load review")
	}
	if err := visibility.EnsureReviewVisible(review, viewer); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *service) ensureProduct(ctx context.Context, productID uint) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return mapLookupErr(err, "Product not found", "load product")
	}
	return nil
}

func (s *service) engagementKey() string {
	return s.cache.CacheKey("engagement", strconv.Itoa(s.engagementLimit))
}

func (s *service) invalidateEngagement(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.engagementKey()); err != nil {
		s.warn(ctx, "engagement cache invalidation failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.Validation("rating must be between 1 and 5")
	}
	return nil
}

func normalizeContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", pkgerrors.Validation("content is required")
	}
	if utf8.RuneCountInString(trimmed) > maxContentLength {
		return "", pkgerrors.Validation(fmt.Sprintf("content must be at most %d characters", maxContentLength))
	}
	return trimmed, nil
}

func mapLookupErr(err error, notFoundMsg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound(notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
