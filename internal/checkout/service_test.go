package checkout

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/internal/cart"
	"github.com/zaliant/storefront-backend/internal/licenses"
	"github.com/zaliant/storefront-backend/internal/orders"
	"github.com/zaliant/storefront-backend/internal/pricing"
	"github.com/zaliant/storefront-backend/pkg/db/models"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/logger"
	"github.com/zaliant/storefront-backend/pkg/types"
)

type stubCartReader struct {
	views   map[string]*cart.View
	cleared []string
}

func (s *stubCartReader) View(_ context.Context, token string) (*cart.View, error) {
	if view, ok := s.views[token]; ok {
		return view, nil
	}
	return &cart.View{Token: token, Lines: types.CartLines{}}, nil
}

func (s *stubCartReader) Clear(_ context.Context, token string) error {
	s.cleared = append(s.cleared, token)
	return nil
}

type stubOrderCreator struct {
	created *models.Order
	fail    error
}

func (s *stubOrderCreator) CreateTx(_ context.Context, _ *gorm.DB, input orders.CreateInput) (*models.Order, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	order := &models.Order{
		ID:            uuid.New(),
		Number:        "ZAL-000001",
		UserID:        input.UserID,
		Email:         input.Email,
		Status:        enums.OrderStatusCompleted,
		PaymentMethod: input.PaymentMethod,
		PromoCode:     input.PromoCode,
		Subtotal:      input.Subtotal,
		Discount:      input.Discount,
		Total:         input.Total,
		CreatedAt:     time.Now().UTC(),
	}
	for _, line := range input.Lines {
		order.Lines = append(order.Lines, models.OrderLineItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			VariantLabel: line.VariantLabel,
			UnitPrice:    line.UnitPrice,
			Qty:          line.Qty,
			LineTotal:    line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))),
		})
	}
	s.created = order
	return order, nil
}

type stubLicenseIssuer struct {
	issued []licenses.IssueInput
	fail   error
}

func (s *stubLicenseIssuer) IssueTx(_ context.Context, _ *gorm.DB, input licenses.IssueInput) (*models.LicenseKey, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	s.issued = append(s.issued, input)
	return &models.LicenseKey{
		ID:           uuid.New(),
		Key:          "ZLNT-TEST1-TEST2-TEST3",
		OrderID:      input.OrderID,
		LineItemID:   input.LineItemID,
		ProductName:  input.ProductName,
		VariantLabel: input.VariantLabel,
		Status:       enums.LicenseStatusActive,
	}, nil
}

type stubInvoiceGenerator struct {
	generated *models.Invoice
}

func (s *stubInvoiceGenerator) GenerateTx(_ context.Context, _ *gorm.DB, order *models.Order) (*models.Invoice, error) {
	s.generated = &models.Invoice{
		ID:      uuid.New(),
		Number:  "INV-2025-000001",
		OrderID: order.ID,
		Amount:  order.Total,
		Tax:     decimal.Zero,
		Total:   order.Total,
		Status:  enums.InvoiceStatusPaid,
	}
	return s.generated, nil
}

type sentMail struct {
	kind enums.MailTemplate
	to   string
}

type stubMailer struct {
	sent []sentMail
}

func (s *stubMailer) Send(_ context.Context, kind enums.MailTemplate, to string, _ any) error {
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "no template registered")
	}
	s.sent = append(s.sent, sentMail{kind: kind, to: to})
	return nil
}

type stubTxRunner struct {
	failed bool
}

func (s *stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	err := fn(&gorm.DB{})
	if err != nil {
		s.failed = true
	}
	return err
}

type fixture struct {
	svc      Service
	carts    *stubCartReader
	orders   *stubOrderCreator
	licenses *stubLicenseIssuer
	invoices *stubInvoiceGenerator
	mail     *stubMailer
	tx       *stubTxRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		carts:    &stubCartReader{views: make(map[string]*cart.View)},
		orders:   &stubOrderCreator{},
		licenses: &stubLicenseIssuer{},
		invoices: &stubInvoiceGenerator{},
		mail:     &stubMailer{},
		tx:       &stubTxRunner{},
	}
	svc, err := NewService(f.tx, f.carts, f.orders, f.licenses, f.invoices, f.mail, logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func seedCart(f *fixture, token string, promo *string, lines ...types.CartLine) {
	view := &cart.View{Token: token, Lines: lines, PromoCode: promo}
	view.Quote = pricing.ComputeQuote(lines, promoFor(promo))
	f.carts.views[token] = view
}

func promoFor(code *string) *pricing.Promo {
	if code == nil {
		return nil
	}
	promo, ok := pricing.LookupPromo(*code)
	if !ok {
		return nil
	}
	return &promo
}

func testLine(name, label, price string, qty int) types.CartLine {
	return types.CartLine{
		ProductID:    uuid.New(),
		VariantID:    uuid.New(),
		ProductName:  name,
		VariantLabel: label,
		UnitPrice:    decimal.RequireFromString(price),
		Qty:          qty,
	}
}

func TestExecute_OneLicensePerLine(t *testing.T) {
	f := newFixture(t)
	seedCart(f, "tok-1", nil,
		testLine("Valorant Private", "30 Days", "39.99", 2),
		testLine("Permanent Spoofer", "Lifetime", "39.99", 1),
	)

	result, err := f.svc.Execute(context.Background(), Input{
		CartToken: "tok-1",
		Buyer:     Buyer{Name: "Buyer", Email: "buyer@example.com"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// Two cart lines, one key each, even though the first line has qty 2.
	if len(result.Licenses) != 2 {
		t.Fatalf("expected 2 licenses, got %d", len(result.Licenses))
	}
	for i, issued := range f.licenses.issued {
		if issued.LineItemID == nil {
			t.Fatalf("license %d missing line item ref", i)
		}
	}
}

func TestExecute_InvoiceMatchesOrderTotal(t *testing.T) {
	f := newFixture(t)
	promo := "SAVE20"
	seedCart(f, "tok-2", &promo, testLine("Valorant Pro", "30 Days", "74.99", 1))

	result, err := f.svc.Execute(context.Background(), Input{
		CartToken: "tok-2",
		Buyer:     Buyer{Name: "Buyer", Email: "buyer@example.com"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Invoice.Amount.Equal(result.Order.Total) {
		t.Fatalf("invoice amount %s does not match order total %s", result.Invoice.Amount, result.Order.Total)
	}
	if !result.Invoice.Tax.IsZero() {
		t.Fatalf("expected zero tax, got %s", result.Invoice.Tax)
	}
	if result.Order.PromoCode == nil || *result.Order.PromoCode != "SAVE20" {
		t.Fatalf("expected promo code on order, got %v", result.Order.PromoCode)
	}
}

func TestExecute_ClearsCartAndSendsMail(t *testing.T) {
	f := newFixture(t)
	seedCart(f, "tok-3", nil, testLine("Valorant Private", "7 Days", "14.99", 1))

	_, err := f.svc.Execute(context.Background(), Input{
		CartToken: "tok-3",
		Buyer:     Buyer{Name: "Buyer", Email: "buyer@example.com"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(f.carts.cleared) != 1 || f.carts.cleared[0] != "tok-3" {
		t.Fatalf("expected cart tok-3 cleared, got %v", f.carts.cleared)
	}

	// One confirmation plus one key email; the invoice kind has no template
	// so nothing else goes out.
	var confirmations, keys int
	for _, mail := range f.mail.sent {
		switch mail.kind {
		case enums.MailTemplateOrderConfirmation:
			confirmations++
		case enums.MailTemplateLicenseKey:
			keys++
		}
	}
	if confirmations != 1 || keys != 1 {
		t.Fatalf("expected 1 confirmation and 1 key email, got %d / %d", confirmations, keys)
	}
}

func TestExecute_EmptyCartRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Execute(context.Background(), Input{
		CartToken: "tok-empty",
		Buyer:     Buyer{Name: "Buyer", Email: "buyer@example.com"},
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.orders.created != nil {
		t.Fatal("expected no order for an empty cart")
	}
}

func TestExecute_GuestNeedsNameAndValidEmail(t *testing.T) {
	f := newFixture(t)
	seedCart(f, "tok-4", nil, testLine("Valorant Private", "7 Days", "14.99", 1))

	_, err := f.svc.Execute(context.Background(), Input{
		CartToken: "tok-4",
		Buyer:     Buyer{Email: "buyer@example.com"},
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}

	_, err = f.svc.Execute(context.Background(), Input{
		CartToken: "tok-4",
		Buyer:     Buyer{Name: "Buyer", Email: "not-an-email"},
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad email, got %v", err)
	}
}

func TestExecute_LicenseFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	seedCart(f, "tok-5", nil, testLine("Valorant Private", "7 Days", "14.99", 1))
	f.licenses.fail = pkgerrors.New(pkgerrors.CodeInternal, "boom")

	_, err := f.svc.Execute(context.Background(), Input{
		CartToken: "tok-5",
		Buyer:     Buyer{Name: "Buyer", Email: "buyer@example.com"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !f.tx.failed {
		t.Fatal("expected transaction to report failure")
	}
	if len(f.carts.cleared) != 0 {
		t.Fatal("cart must not be cleared when checkout fails")
	}
	if len(f.mail.sent) != 0 {
		t.Fatal("no mail should go out when checkout fails")
	}
}
