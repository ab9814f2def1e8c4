package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	msgCartNotFound     = "Cart not found"
	msgCartItemNotFound = "Cart item not found"
	msgProductNotFound  = "Product not found"

	// MaxItemQuantity caps a single cart line, including the result of
	// repeated adds.
	MaxItemQuantity = 1000
)

// Service exposes the cart operations. Every mutation runs in one transaction
// that holds the cart row lock, so concurrent requests for the same user apply
// one after another and the stored total always matches the items.
type Service interface {
	GetCart(ctx context.Context, userID uint) (*CartDTO, error)
	AddItem(ctx context.Context, userID uint, input AddItemInput) (*CartItemDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uint) error
	UpdateItem(ctx context.Context, userID, itemID uint, quantity int) (*CartItemDTO, error)
	ClearCart(ctx context.Context, userID uint) error
}

// AddItemInput carries the add-to-cart payload. A nil Price snapshots the
// product's current price.
type AddItemInput struct {
	ProductID uint
	Quantity  int
	Price     *decimal.Decimal
}

type service struct {
	repo     CartRepository
	products products.ProductRepository
	tx       txRunner
	logg     *logger.Logger
	metrics  *metrics.CartMetrics
}

// NewService builds a cart service backed by the provided stack. The logger
// and metrics are optional.
func NewService(repo CartRepository, productRepo products.ProductRepository, tx txRunner, logg *logger.Logger, m *metrics.CartMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		products: productRepo,
		tx:       tx,
		logg:     logg,
		metrics:  m,
	}, nil
}

func (s *service) GetCart(ctx context.Context, userID uint) (dto *CartDTO, err error) {
	defer s.observe(ctx, enums.CartOperationGet, userID, time.Now(), &err)

	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, msgCartNotFound, "load cart")
	}
	return NewCartDTO(cart), nil
}

func (s *service) AddItem(ctx context.Context, userID uint, input AddItemInput) (dto *CartItemDTO, err error) {
	defer s.observe(ctx, enums.CartOperationAddItem, userID, time.Now(), &err)

	if input.ProductID == 0 {
		return nil, pkgerrors.Validation("productId is required")
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.Validation("price must be non-negative")
	}

	var item *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.products.WithTx(tx).FindByID(ctx, input.ProductID)
		if err != nil {
			return mapNotFound(err, msgProductNotFound, "load product")
		}

		price := product.Price
		if input.Price != nil {
			price = *input.Price
		}
		price = price.Round(2)

		repo := s.repo.WithTx(tx)
		cart, err := repo.EnsureForUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find or create cart")
		}
		existing, err := repo.FindItemByProduct(ctx, cart.ID, product.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		case existing.Quantity+input.Quantity > MaxItemQuantity:
			return pkgerrors.Validation(fmt.Sprintf("quantity for a cart line must be at most %d", MaxItemQuantity))
		}
		if err := repo.UpsertItem(ctx, cart.ID, product.ID, input.Quantity, price); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}
		if _, err := repo.RecomputeTotal(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute cart total")
		}

		item, err = repo.FindItemByProduct(ctx, cart.ID, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewCartItemDTO(item), nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uint) (err error) {
	defer s.observe(ctx, enums.CartOperationRemoveItem, userID, time.Now(), &err)

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.LockByUserID(ctx, userID)
		if err != nil {
			return mapNotFound(err, msgCartNotFound, "load cart")
		}

		affected, err := repo.DeleteItem(ctx, cart.ID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		if affected == 0 {
			return pkgerrors.NotFound(msgCartItemNotFound)
		}

		if _, err := repo.RecomputeTotal(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute cart total")
		}
		return nil
	})
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uint, quantity int) (dto *CartItemDTO, err error) {
	defer s.observe(ctx, enums.CartOperationUpdateItem, userID, time.Now(), &err)

	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	var item *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.LockByUserID(ctx, userID)
		if err != nil {
			return mapNotFound(err, msgCartNotFound, "load cart")
		}

		item, err = repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			return mapNotFound(err, msgCartItemNotFound, "load cart item")
		}

		if _, err := repo.SetItemQuantity(ctx, cart.ID, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		item.Quantity = quantity

		if _, err := repo.RecomputeTotal(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute cart total")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewCartItemDTO(item), nil
}

func (s *service) ClearCart(ctx context.Context, userID uint) (err error) {
	defer s.observe(ctx, enums.CartOperationClear, userID, time.Now(), &err)

	consumed := 0
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.LockByUserID(ctx, userID)
		if err != nil {
			return mapNotFound(err, msgCartNotFound, "load cart")
		}

		items, err := repo.ListItems(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
		}

		productRepo := s.products.WithTx(tx)
		for _, item := range items {
			if err := productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					s.warn(s.withCart(ctx, cart.ID), fmt.Sprintf("product %d vanished before stock decrement", item.ProductID))
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement product stock")
			}
			consumed += item.Quantity
		}

		if err := repo.DeleteItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart items")
		}
		if _, err := repo.RecomputeTotal(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute cart total")
		}
		return nil
	})
	if err == nil {
		s.metrics.AddStockDecrement(consumed)
	}
	return err
}

func (s *service) observe(ctx context.Context, op enums.CartOperation, userID uint, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}

	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case pkgerrors.Is(err, pkgerrors.CodeNotFound):
		outcome = metrics.OutcomeNotFound
	case pkgerrors.Is(err, pkgerrors.CodeValidation):
		outcome = metrics.OutcomeInvalid
	default:
		outcome = metrics.OutcomeError
	}
	s.metrics.Observe(op.String(), outcome, time.Since(start))

	if s.logg == nil || outcome != metrics.OutcomeError {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"op":         op.String(),
		"cart_owner": userID,
	})
	s.logg.Error(logCtx, "cart operation failed", err)
}

func (s *service) withCart(ctx context.Context, cartID uint) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithCartID(ctx, cartID)
}

func (s *service) warn(ctx context.Context, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(ctx, msg)
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return pkgerrors.Validation("quantity must be at least 1")
	}
	if quantity > MaxItemQuantity {
		return pkgerrors.Validation(fmt.Sprintf("quantity must be at most %d", MaxItemQuantity))
	}
	return nil
}

func mapNotFound(err error, notFoundMsg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound(notFoundMsg)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
