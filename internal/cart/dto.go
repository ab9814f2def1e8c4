package cart

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CartDTO is the cart payload returned to the owner.
type CartDTO struct {
	ID        uint          `json:"id"`
	UserID    uint          `json:"user_id"`
	Total     float64       `json:"total"`
	Items     []CartItemDTO `json:"items"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CartItemDTO is a single cart line. Product is populated on cart reads only.
type CartItemDTO struct {
	ID          uint                 `json:"id"`
	CartID      uint                 `json:"cart_id"`
	ProductID   uint                 `json:"product_id"`
	Quantity    int                  `json:"quantity"`
	PriceAtTime float64              `json:"price_at_time"`
	Product     *products.ProductDTO `json:"product,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewCartDTO maps a cart with its preloaded items.
func NewCartDTO(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	dto := &CartDTO{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Total:     types.Money(cart.Total),
		Items:     make([]CartItemDTO, 0, len(cart.Items)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for i := range cart.Items {
		dto.Items = append(dto.Items, *NewCartItemDTO(&cart.Items[i]))
	}
	return dto
}

func NewCartItemDTO(item *models.CartItem) *CartItemDTO {
	if item == nil {
		return nil
	}
	return &CartItemDTO{
		ID:          item.ID,
		CartID:      item.CartID,
		ProductID:   item.ProductID,
		Quantity:    item.Quantity,
		PriceAtTime: types.Money(item.PriceAtTime),
		Product:     products.NewProductDTO(item.Product),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}
