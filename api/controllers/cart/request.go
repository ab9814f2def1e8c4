package cart

import (
	"github.com/shopspring/decimal"

	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
)

// addItemRequest mirrors the storefront client body. Price is optional and
// defaults to the live product price.
type addItemRequest struct {
	ProductID uint             `json:"productId" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,min=1,max=1000"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

func (r addItemRequest) toInput() cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Price:     r.Price,
	}
}

type updateItemRequest struct {
	ItemID   uint `json:"itemId" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,min=1,max=1000"`
}
