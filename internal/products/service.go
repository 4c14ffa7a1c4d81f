package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
)

type productsRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// VariantInput is one duration tier supplied when creating a product.
type VariantInput struct {
	Label string          `json:"label" validate:"required"`
	Price decimal.Decimal `json:"price" validate:"required"`
}

// CreateProductInput is the back-office payload for a new listing.
type CreateProductInput struct {
	Slug        string         `json:"slug" validate:"required"`
	Name        string         `json:"name" validate:"required"`
	Tagline     *string        `json:"tagline,omitempty"`
	Description *string        `json:"description,omitempty"`
	Category    string         `json:"category" validate:"required"`
	Status      string         `json:"status,omitempty"`
	Features    []string       `json:"features,omitempty"`
	ImageURL    *string        `json:"image_url,omitempty"`
	IsFeatured  bool           `json:"is_featured,omitempty"`
	Variants    []VariantInput `json:"variants" validate:"required,min=1,dive"`
}

// Service exposes catalog reads plus the back-office create path.
type Service interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, slug string) (*models.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) error
}

type service struct {
	repo productsRepository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo productsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	return rows, nil
}

func (s *service) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if len(input.Variants) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one variant required")
	}
	status := enums.ProductStatus(input.Status)
	if input.Status == "" {
		status = enums.ProductStatusAvailable
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	for _, v := range input.Variants {
		if strings.TrimSpace(v.Label) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant label required")
		}
		if v.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant price must be non-negative")
		}
	}

	existing, err := s.repo.FindBySlug(ctx, input.Slug)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking slug")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
	}

	product := &models.Product{
		Slug:        strings.TrimSpace(input.Slug),
		Name:        strings.TrimSpace(input.Name),
		Tagline:     input.Tagline,
		Description: input.Description,
		Category:    input.Category,
		Status:      status,
		Features:    pq.StringArray(input.Features),
		ImageURL:    input.ImageURL,
		IsFeatured:  input.IsFeatured,
	}
	for i, v := range input.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			Label:     strings.TrimSpace(v.Label),
			Price:     v.Price,
			SortOrder: i + 1,
		})
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return created, nil
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	if err := s.repo.UpdateStatus(ctx, id, status.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product status")
	}
	return nil
}
