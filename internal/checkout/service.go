package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/internal/cart"
	"github.com/zaliant/storefront-backend/internal/licenses"
	"github.com/zaliant/storefront-backend/internal/mailer"
	"github.com/zaliant/storefront-backend/internal/orders"
	"github.com/zaliant/storefront-backend/pkg/db/models"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartReader interface {
	View(ctx context.Context, token string) (*cart.View, error)
	Clear(ctx context.Context, token string) error
}

type orderCreator interface {
	CreateTx(ctx context.Context, tx *gorm.DB, input orders.CreateInput) (*models.Order, error)
}

type licenseIssuer interface {
	IssueTx(ctx context.Context, tx *gorm.DB, input licenses.IssueInput) (*models.LicenseKey, error)
}

type invoiceGenerator interface {
	GenerateTx(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Invoice, error)
}

type mailSender interface {
	Send(ctx context.Context, kind enums.MailTemplate, to string, data any) error
}

// Buyer identifies who is checking out. Authenticated buyers carry a user id
// and the email from their token; guests supply name and email themselves.
type Buyer struct {
	UserID *uuid.UUID
	Name   string `validate:"omitempty,min=1"`
	Email  string `validate:"required,email"`
}

// Input is one checkout request.
type Input struct {
	CartToken     string
	Buyer         Buyer
	PaymentMethod enums.PaymentMethod
}

// Result is everything a completed checkout produced.
type Result struct {
	Order    *models.Order       `json:"order"`
	Licenses []models.LicenseKey `json:"licenses"`
	Invoice  *models.Invoice     `json:"invoice"`
}

// Service executes the checkout flow: one transaction writes the order, its
// licenses, and the invoice; email is best-effort after commit; the cart is
// cleared last.
type Service interface {
	Execute(ctx context.Context, input Input) (*Result, error)
}

type service struct {
	tx       txRunner
	carts    cartReader
	orders   orderCreator
	licenses licenseIssuer
	invoices invoiceGenerator
	mail     mailSender
	logg     *logger.Logger
	validate *validator.Validate
}

func NewService(
	tx txRunner,
	carts cartReader,
	ordersSvc orderCreator,
	licensesSvc licenseIssuer,
	invoicesSvc invoiceGenerator,
	mail mailSender,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if licensesSvc == nil {
		return nil, fmt.Errorf("licenses service required")
	}
	if invoicesSvc == nil {
		return nil, fmt.Errorf("invoices service required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		carts:    carts,
		orders:   ordersSvc,
		licenses: licensesSvc,
		invoices: invoicesSvc,
		mail:     mail,
		logg:     logg,
		validate: validator.New(),
	}, nil
}

func (s *service) Execute(ctx context.Context, input Input) (*Result, error) {
	if strings.TrimSpace(input.CartToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart token required")
	}
	if err := s.validateBuyer(input.Buyer); err != nil {
		return nil, err
	}
	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = enums.PaymentMethodDemo
	}

	view, err := s.carts.View(ctx, input.CartToken)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	result := &Result{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderInput := orders.CreateInput{
			UserID:        input.Buyer.UserID,
			Email:         input.Buyer.Email,
			PromoCode:     view.PromoCode,
			PaymentMethod: paymentMethod,
			Subtotal:      view.Quote.Subtotal,
			Discount:      view.Quote.Discount,
			Total:         view.Quote.Total,
		}
		for _, line := range view.Lines {
			productID := line.ProductID
			orderInput.Lines = append(orderInput.Lines, orders.LineInput{
				ProductID:    &productID,
				ProductName:  line.ProductName,
				VariantLabel: line.VariantLabel,
				UnitPrice:    line.UnitPrice,
				Qty:          line.Qty,
			})
		}

		order, err := s.orders.CreateTx(ctx, tx, orderInput)
		if err != nil {
			return err
		}
		result.Order = order

		// One key per cart line, regardless of quantity.
		for i := range order.Lines {
			lineItemID := order.Lines[i].ID
			key, err := s.licenses.IssueTx(ctx, tx, licenses.IssueInput{
				OrderID:      order.ID,
				LineItemID:   &lineItemID,
				ProductName:  order.Lines[i].ProductName,
				VariantLabel: order.Lines[i].VariantLabel,
				IssuedAt:     order.CreatedAt,
			})
			if err != nil {
				return err
			}
			result.Licenses = append(result.Licenses, *key)
		}

		invoice, err := s.invoices.GenerateTx(ctx, tx, order)
		if err != nil {
			return err
		}
		result.Invoice = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, input.Buyer, result)

	if err := s.carts.Clear(ctx, input.CartToken); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cart_token", input.CartToken), "clearing cart after checkout failed")
	}

	return result, nil
}

func (s *service) validateBuyer(buyer Buyer) error {
	if buyer.UserID == nil && strings.TrimSpace(buyer.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest name required")
	}
	if err := s.validate.Struct(buyer); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid buyer details")
	}
	return nil
}

// notify sends the post-checkout emails. Failures are logged and swallowed:
// the order is already committed and mail must never undo it.
func (s *service) notify(ctx context.Context, buyer Buyer, result *Result) {
	name := strings.TrimSpace(buyer.Name)
	if name == "" {
		name = "there"
	}

	confirmation := mailer.OrderConfirmationData{
		Name:        name,
		OrderNumber: result.Order.Number,
		Total:       mailer.FormatMoney(result.Order.Total),
	}
	if result.Order.Discount.IsPositive() {
		confirmation.Discount = mailer.FormatMoney(result.Order.Discount)
	}
	for _, line := range result.Order.Lines {
		confirmation.Lines = append(confirmation.Lines, mailer.OrderLineData{
			ProductName:  line.ProductName,
			VariantLabel: line.VariantLabel,
			Qty:          line.Qty,
			LineTotal:    mailer.FormatMoney(line.LineTotal),
		})
	}
	if err := s.mail.Send(ctx, enums.MailTemplateOrderConfirmation, buyer.Email, confirmation); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "order_id", result.Order.ID.String()), "order confirmation email failed")
	}

	for _, key := range result.Licenses {
		data := mailer.LicenseKeyData{
			ProductName:  key.ProductName,
			VariantLabel: key.VariantLabel,
			Key:          key.Key,
			ExpiresAt:    mailer.FormatExpiry(key.ExpiresAt),
		}
		if err := s.mail.Send(ctx, enums.MailTemplateLicenseKey, buyer.Email, data); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "license_id", key.ID.String()), "license key email failed")
		}
	}

	// There is no invoice template registered; the mailer rejects the kind
	// and the invoice stays available through the API instead.
	if err := s.mail.Send(ctx, enums.MailTemplate("invoice"), buyer.Email, nil); err != nil {
		s.logg.Info(s.logg.WithField(ctx, "invoice_id", result.Invoice.ID.String()), "invoice email skipped")
	}
}
