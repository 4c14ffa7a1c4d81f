package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/logger"
	"github.com/zaliant/storefront-backend/pkg/outbox"
	"github.com/zaliant/storefront-backend/pkg/outbox/payloads"
	pkgpagination "github.com/zaliant/storefront-backend/pkg/pagination"
)

type ordersRepository interface {
	NextNumberTx(tx *gorm.DB) (int64, error)
	CreateTx(tx *gorm.DB, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByEmail(ctx context.Context, email string) ([]models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	List(ctx context.Context, limit int, cursor *pkgpagination.Cursor) ([]models.Order, error)
	Stats(ctx context.Context) (int64, string, error)
	DeleteAllTx(tx *gorm.DB) (int64, error)
}

// licenseWiper is the slice of the license repository clear-stats needs.
type licenseWiper interface {
	DeleteAllTx(tx *gorm.DB) (int64, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LineInput is one cart line snapshotted into an order.
type LineInput struct {
	ProductID    *uuid.UUID
	ProductName  string
	VariantLabel string
	UnitPrice    decimal.Decimal
	Qty          int
}

// CreateInput carries everything the checkout transaction writes to orders.
type CreateInput struct {
	UserID        *uuid.UUID
	Email         string
	PromoCode     *string
	PaymentMethod enums.PaymentMethod
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	Lines         []LineInput
}

// StatsSummary is the back-office dashboard aggregate.
type StatsSummary struct {
	TotalOrders int64           `json:"total_orders"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// ClearResult reports what a back-office wipe removed.
type ClearResult struct {
	OrdersDeleted   int64     `json:"orders_deleted"`
	LicensesDeleted int64     `json:"licenses_deleted"`
	ClearedAt       time.Time `json:"cleared_at"`
}

// ListResult is one admin page of orders plus the next cursor.
type ListResult struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}

type Service interface {
	CreateTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GuestLookup(ctx context.Context, email string) ([]models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	AdminList(ctx context.Context, params pkgpagination.Params) (*ListResult, error)
	Stats(ctx context.Context) (*StatsSummary, error)
	ClearStats(ctx context.Context) (*ClearResult, error)
}

type service struct {
	repo     ordersRepository
	licenses licenseWiper
	events   eventEmitter
	tx       txRunner
	logg     *logger.Logger
}

func NewService(repo ordersRepository, licenses licenseWiper, events eventEmitter, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if licenses == nil {
		return nil, fmt.Errorf("license wiper required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, licenses: licenses, events: events, tx: tx, logg: logg}, nil
}

func (s *service) CreateTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer email required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one line")
	}

	seq, err := s.repo.NextNumberTx(tx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocating order number")
	}

	order := &models.Order{
		Number:        fmt.Sprintf("ZAL-%06d", seq),
		UserID:        input.UserID,
		Email:         email,
		Status:        enums.OrderStatusCompleted,
		PaymentMethod: input.PaymentMethod,
		PromoCode:     input.PromoCode,
		Subtotal:      input.Subtotal,
		Discount:      input.Discount,
		Total:         input.Total,
	}
	for _, line := range input.Lines {
		order.Lines = append(order.Lines, models.OrderLineItem{
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			VariantLabel: line.VariantLabel,
			UnitPrice:    line.UnitPrice,
			Qty:          line.Qty,
			LineTotal:    line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))),
		})
	}

	if err := s.repo.CreateTx(tx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.OrderCreatedEvent{
			OrderID:     order.ID,
			OrderNumber: order.Number,
			Email:       order.Email,
			PromoCode:   order.PromoCode,
			Subtotal:    order.Subtotal,
			Discount:    order.Discount,
			Total:       order.Total,
			LineCount:   len(order.Lines),
		},
	}
	if err := s.events.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emitting order event")
	}

	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return row, nil
}

func (s *service) GuestLookup(ctx context.Context, email string) ([]models.Order, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	rows, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up orders")
	}
	return rows, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return rows, nil
}

func (s *service) AdminList(ctx context.Context, params pkgpagination.Params) (*ListResult, error) {
	cursor, err := pkgpagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pkgpagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.List(ctx, limit+1, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	result := &ListResult{Items: rows}
	if len(rows) > limit {
		result.Items = rows[:limit]
		last := result.Items[limit-1]
		result.Cursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

func (s *service) Stats(ctx context.Context) (*StatsSummary, error) {
	count, revenueRaw, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregating orders")
	}
	revenue, err := decimal.NewFromString(revenueRaw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parsing revenue aggregate")
	}
	return &StatsSummary{TotalOrders: count, Revenue: revenue}, nil
}

func (s *service) ClearStats(ctx context.Context) (*ClearResult, error) {
	result := &ClearResult{ClearedAt: time.Now().UTC()}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersDeleted, err := s.repo.DeleteAllTx(tx)
		if err != nil {
			return err
		}
		licensesDeleted, err := s.licenses.DeleteAllTx(tx)
		if err != nil {
			return err
		}
		result.OrdersDeleted = ordersDeleted
		result.LicensesDeleted = licensesDeleted
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStatsCleared,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Version:       1,
			Data: payloads.StatsClearedEvent{
				OrdersDeleted:   int(ordersDeleted),
				LicensesDeleted: int(licensesDeleted),
				ClearedAt:       result.ClearedAt,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing stats")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"orders_deleted":   result.OrdersDeleted,
		"licenses_deleted": result.LicensesDeleted,
	}), "back-office stats cleared")
	return result, nil
}
