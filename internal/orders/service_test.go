package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/logger"
	"github.com/zaliant/storefront-backend/pkg/outbox"
	pkgpagination "github.com/zaliant/storefront-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	next   int64
	orders []*models.Order
}

func (s *stubOrdersRepo) NextNumberTx(_ *gorm.DB) (int64, error) {
	s.next++
	return s.next, nil
}

func (s *stubOrdersRepo) CreateTx(_ *gorm.DB, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	s.orders = append(s.orders, &copied)
	return nil
}

func (s *stubOrdersRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	for _, order := range s.orders {
		if order.ID == id {
			copied := *order
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubOrdersRepo) ListByEmail(_ context.Context, email string) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range s.orders {
		if order.Email == email {
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (s *stubOrdersRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range s.orders {
		if order.UserID != nil && *order.UserID == userID {
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (s *stubOrdersRepo) List(_ context.Context, limit int, _ *pkgpagination.Cursor) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range s.orders {
		rows = append(rows, *order)
		if len(rows) >= limit {
			break
		}
	}
	return rows, nil
}

func (s *stubOrdersRepo) Stats(_ context.Context) (int64, string, error) {
	total := decimal.Zero
	for _, order := range s.orders {
		if order.Status == enums.OrderStatusCompleted {
			total = total.Add(order.Total)
		}
	}
	return int64(len(s.orders)), total.String(), nil
}

func (s *stubOrdersRepo) DeleteAllTx(_ *gorm.DB) (int64, error) {
	count := int64(len(s.orders))
	s.orders = nil
	return count, nil
}

type stubLicenseWiper struct {
	count int64
}

func (s *stubLicenseWiper) DeleteAllTx(_ *gorm.DB) (int64, error) {
	deleted := s.count
	s.count = 0
	return deleted, nil
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestService(t *testing.T, repo *stubOrdersRepo, wiper *stubLicenseWiper, emitter *stubEmitter) Service {
	t.Helper()
	svc, err := NewService(repo, wiper, emitter, stubTxRunner{}, logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateTx_SnapshotsLinesAndEmits(t *testing.T) {
	repo := &stubOrdersRepo{}
	emitter := &stubEmitter{}
	svc := newTestService(t, repo, &stubLicenseWiper{}, emitter)

	order, err := svc.CreateTx(context.Background(), &gorm.DB{}, CreateInput{
		Email:         "Buyer@Example.com",
		PaymentMethod: enums.PaymentMethodDemo,
		Subtotal:      decimal.RequireFromString("54.98"),
		Discount:      decimal.RequireFromString("11.00"),
		Total:         decimal.RequireFromString("43.98"),
		Lines: []LineInput{
			{ProductName: "Valorant Private", VariantLabel: "30 Days", UnitPrice: decimal.RequireFromString("39.99"), Qty: 1},
			{ProductName: "Permanent Spoofer", VariantLabel: "One-time", UnitPrice: decimal.RequireFromString("14.99"), Qty: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateTx: %v", err)
	}
	if order.Number != "ZAL-000001" {
		t.Fatalf("expected number ZAL-000001, got %s", order.Number)
	}
	if order.Email != "buyer@example.com" {
		t.Fatalf("expected lowercased email, got %s", order.Email)
	}
	if order.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed status, got %s", order.Status)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(order.Lines))
	}
	if !order.Lines[0].LineTotal.Equal(decimal.RequireFromString("39.99")) {
		t.Fatalf("expected line total 39.99, got %s", order.Lines[0].LineTotal)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected one order_created event, got %+v", emitter.events)
	}
}

func TestCreateTx_RejectsEmptyOrder(t *testing.T) {
	svc := newTestService(t, &stubOrdersRepo{}, &stubLicenseWiper{}, &stubEmitter{})

	_, err := svc.CreateTx(context.Background(), &gorm.DB{}, CreateInput{Email: "a@b.c"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGuestLookup_FiltersByEmail(t *testing.T) {
	repo := &stubOrdersRepo{}
	svc := newTestService(t, repo, &stubLicenseWiper{}, &stubEmitter{})

	repo.orders = []*models.Order{
		{ID: uuid.New(), Email: "buyer@example.com"},
		{ID: uuid.New(), Email: "other@example.com"},
	}

	rows, err := svc.GuestLookup(context.Background(), " Buyer@Example.com ")
	if err != nil {
		t.Fatalf("GuestLookup: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one order, got %d", len(rows))
	}
}

func TestStats_SumsCompletedRevenue(t *testing.T) {
	repo := &stubOrdersRepo{}
	svc := newTestService(t, repo, &stubLicenseWiper{}, &stubEmitter{})

	repo.orders = []*models.Order{
		{ID: uuid.New(), Status: enums.OrderStatusCompleted, Total: decimal.RequireFromString("39.99")},
		{ID: uuid.New(), Status: enums.OrderStatusCompleted, Total: decimal.RequireFromString("14.99")},
		{ID: uuid.New(), Status: enums.OrderStatusRefunded, Total: decimal.RequireFromString("99.99")},
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalOrders != 3 {
		t.Fatalf("expected 3 orders, got %d", stats.TotalOrders)
	}
	if !stats.Revenue.Equal(decimal.RequireFromString("54.98")) {
		t.Fatalf("expected revenue 54.98, got %s", stats.Revenue)
	}
}

func TestClearStats_WipesAndEmits(t *testing.T) {
	repo := &stubOrdersRepo{}
	emitter := &stubEmitter{}
	wiper := &stubLicenseWiper{count: 5}
	svc := newTestService(t, repo, wiper, emitter)

	repo.orders = []*models.Order{
		{ID: uuid.New(), Email: "a@b.c"},
		{ID: uuid.New(), Email: "d@e.f"},
	}

	result, err := svc.ClearStats(context.Background())
	if err != nil {
		t.Fatalf("ClearStats: %v", err)
	}
	if result.OrdersDeleted != 2 || result.LicensesDeleted != 5 {
		t.Fatalf("expected 2 orders and 5 licenses deleted, got %d / %d", result.OrdersDeleted, result.LicensesDeleted)
	}
	if len(repo.orders) != 0 {
		t.Fatalf("expected orders wiped, %d remain", len(repo.orders))
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventStatsCleared {
		t.Fatalf("expected one stats_cleared event, got %+v", emitter.events)
	}
}
