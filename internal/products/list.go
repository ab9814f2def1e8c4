package products

import "github.com/angelmondragon/storefront-backend/pkg/pagination"

// ListFilter describes the supported filter knobs for the browse endpoint.
type ListFilter struct {
	Special *bool  `json:"special,omitempty"`
	Search  string `json:"q,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate and filter the catalog.
type ListProductsInput struct {
	Filter     ListFilter
	Pagination pagination.Params
}
