package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/zaliant/storefront-backend/internal/pricing"
	"github.com/zaliant/storefront-backend/pkg/db/models"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/types"
)

type cartsRepository interface {
	FindByToken(ctx context.Context, token string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, token string) error
	AttachUser(ctx context.Context, token string, userID uuid.UUID) error
}

type catalogRepository interface {
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, *models.Product, error)
}

// View is the cart as returned to callers: raw lines plus the derived quote.
type View struct {
	Token     string          `json:"token"`
	Lines     types.CartLines `json:"lines"`
	PromoCode *string         `json:"promo_code,omitempty"`
	Quote     pricing.Quote   `json:"quote"`
}

// AddItemInput identifies the variant to add and how many.
type AddItemInput struct {
	VariantID uuid.UUID
	Qty       int
}

// Service exposes the shopper-facing cart operations.
type Service interface {
	View(ctx context.Context, token string) (*View, error)
	Replace(ctx context.Context, token string, items []AddItemInput) (*View, error)
	AddItem(ctx context.Context, token string, input AddItemInput) (*View, error)
	UpdateQuantity(ctx context.Context, token string, variantID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, token string, variantID uuid.UUID) (*View, error)
	Clear(ctx context.Context, token string) error
	ApplyPromo(ctx context.Context, token, code string) (*View, error)
	RemovePromo(ctx context.Context, token string) (*View, error)
	AttachUser(ctx context.Context, token string, userID uuid.UUID) error
}

type service struct {
	repo    cartsRepository
	catalog catalogRepository
}

// NewService builds a cart service backed by the provided repositories.
func NewService(repo cartsRepository, catalog catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, catalog: catalog}, nil
}

func (s *service) View(ctx context.Context, token string) (*View, error) {
	cart, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.view(cart), nil
}

func (s *service) Replace(ctx context.Context, token string, items []AddItemInput) (*View, error) {
	cart, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}

	lines := types.CartLines{}
	for _, item := range items {
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if item.VariantID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
		}
		variant, product, err := s.catalog.FindVariant(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil || product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		if product.Status != enums.ProductStatusAvailable {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not purchasable")
		}

		merged := false
		for i := range lines {
			if lines[i].VariantID == variant.ID {
				lines[i].Qty += item.Qty
				merged = true
				break
			}
		}
		if !merged {
			lines = append(lines, types.CartLine{
				ProductID:    product.ID,
				VariantID:    variant.ID,
				ProductName:  product.Name,
				VariantLabel: variant.Label,
				UnitPrice:    variant.Price,
				Qty:          item.Qty,
			})
		}
	}

	// A replace keeps the applied promo; an empty payload empties the cart.
	cart.Lines = lines

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart")
	}
	return s.view(cart), nil
}

func (s *service) AddItem(ctx context.Context, token string, input AddItemInput) (*View, error) {
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}

	variant, product, err := s.catalog.FindVariant(ctx, input.VariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil || product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	if product.Status != enums.ProductStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not purchasable")
	}

	cart, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Lines {
		if cart.Lines[i].VariantID == variant.ID {
			cart.Lines[i].Qty += input.Qty
			merged = true
			break
		}
	}
	if !merged {
		cart.Lines = append(cart.Lines, types.CartLine{
			ProductID:    product.ID,
			VariantID:    variant.ID,
			ProductName:  product.Name,
			VariantLabel: variant.Label,
			UnitPrice:    variant.Price,
			Qty:          input.Qty,
		})
	}

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart")
	}
	return s.view(cart), nil
}

func (s *service) UpdateQuantity(ctx context.Context, token string, variantID uuid.UUID, qty int) (*View, error) {
	if qty <= 0 {
		// Decrementing to zero is an explicit removal.
		return s.RemoveItem(ctx, token, variantID)
	}

	cart, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Lines {
		if cart.Lines[i].VariantID == variantID {
			cart.Lines[i].Qty = qty
			found = true
			break
		}
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart")
	}
	return s.view(cart), nil
}

func (s *service) RemoveItem(ctx context.Context, token string, variantID uuid.UUID) (*View, error) {
	cart, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}

	kept := cart.Lines[:0]
	for _, line := range cart.Lines {
		if line.VariantID != variantID {
			kept = append(kept, line)
		}
	}
	cart.Lines = kept

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart")
	}
	return s.view(cart), nil
}

func (s *service) Clear(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart token required")
	}
	if err := s.repo.Delete(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}

func (s *service) ApplyPromo(ctx context.Context, token, code string) (*View, error) {
	promo, ok := pricing.LookupPromo(code)
	if !ok {
		// The previously applied promo, if any, stays in effect.
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid promo code")
	}

	cart, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	cart.PromoCode = &promo.Code

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart")
	}
	return s.view(cart), nil
}

func (s *service) RemovePromo(ctx context.Context, token string) (*View, error) {
	cart, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	cart.PromoCode = nil

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart")
	}
	return s.view(cart), nil
}

func (s *service) AttachUser(ctx context.Context, token string, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := s.repo.AttachUser(ctx, token, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attaching cart to user")
	}
	return nil
}

func (s *service) load(ctx context.Context, token string) (*models.Cart, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart token required")
	}
	cart, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if cart == nil {
		cart = &models.Cart{Token: token, Lines: types.CartLines{}}
	}
	if cart.Lines == nil {
		cart.Lines = types.CartLines{}
	}
	return cart, nil
}

func (s *service) view(cart *models.Cart) *View {
	var promo *pricing.Promo
	if cart.PromoCode != nil {
		if p, ok := pricing.LookupPromo(*cart.PromoCode); ok {
			promo = &p
		}
	}
	return &View{
		Token:     cart.Token,
		Lines:     cart.Lines,
		PromoCode: cart.PromoCode,
		Quote:     pricing.ComputeQuote(cart.Lines, promo),
	}
}
