package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const maxSlugAttempts = 50

// Service exposes catalog read and admin management operations.
type Service interface {
	GetProduct(ctx context.Context, id uint) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uint, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uint) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Description *string
	ImageURL    *string
	Price       decimal.Decimal
	Stock       int
	IsSpecial   bool
	Rating      *decimal.Decimal
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	Description *string
	ImageURL    *string
	Price       *decimal.Decimal
	Stock       *int
	IsSpecial   *bool
	Rating      *decimal.Decimal
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo ProductRepository
	tx   txRunner
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo ProductRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetProduct(ctx context.Context, id uint) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, input.Filter, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	page := pagination.Trim(rows, limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})

	result := &ProductListResult{
		Products:   make([]ProductDTO, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for i := range page.Items {
		result.Products = append(result.Products, *NewProductDTO(&page.Items[i]))
	}
	return result, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if err := validateFields(&name, &input.Price, &input.Stock, input.Rating); err != nil {
		return nil, err
	}

	productSlug, err := s.uniqueSlug(ctx, name, 0)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        name,
		Slug:        productSlug,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
		IsSpecial:   input.IsSpecial,
		Rating:      decimal.Zero,
	}
	if input.Rating != nil {
		product.Rating = input.Rating.Round(2)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return NewProductDTO(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, id uint, input UpdateProductInput) (*ProductDTO, error) {
	var name *string
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		name = &trimmed
	}
	if err := validateFields(name, input.Price, input.Stock, input.Rating); err != nil {
		return nil, err
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}

	if name != nil && *name != product.Name {
		productSlug, err := s.uniqueSlug(ctx, *name, product.ID)
		if err != nil {
			return nil, err
		}
		product.Name = *name
		product.Slug = productSlug
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.Price != nil {
		product.Price = input.Price.Round(2)
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.IsSpecial != nil {
		product.IsSpecial = *input.IsSpecial
	}
	if input.Rating != nil {
		product.Rating = input.Rating.Round(2)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return NewProductDTO(product), nil
}

// DeleteProduct removes the product together with any cart lines holding it,
// then refreshes the totals of the carts that changed.
func (s *service) DeleteProduct(ctx context.Context, id uint) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cartIDs, err := repo.DetachFromCarts(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach product from carts")
		}
		affected, err := repo.Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		if affected == 0 {
			return pkgerrors.NotFound("Product not found")
		}
		if err := repo.RefreshCartTotals(ctx, cartIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh cart totals")
		}
		return nil
	})
}

// uniqueSlug derives a slug from name, appending -2, -3, ... until unused.
func (s *service) uniqueSlug(ctx context.Context, name string, excludeID uint) (string, error) {
	root := slug.Make(name)
	if root == "" {
		return "", pkgerrors.Validation("name must contain letters or digits")
	}

	candidate := root
	for attempt := 2; attempt <= maxSlugAttempts+1; attempt++ {
		taken, err := s.repo.SlugTaken(ctx, candidate, excludeID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", root, attempt)
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique slug")
}

func validateFields(name *string, price *decimal.Decimal, stock *int, rating *decimal.Decimal) error {
	if name != nil && *name == "" {
		return pkgerrors.Validation("name is required")
	}
	if price != nil && price.IsNegative() {
		return pkgerrors.Validation("price must be non-negative")
	}
	if stock != nil && *stock < 0 {
		return pkgerrors.Validation("stock must be non-negative")
	}
	if rating != nil && (rating.IsNegative() || rating.GreaterThan(decimal.NewFromInt(5))) {
		return pkgerrors.Validation("rating must be between 0 and 5")
	}
	return nil
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound("Product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}
