package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/outbox"
	"github.com/zaliant/storefront-backend/pkg/outbox/payloads"
)

type invoicesRepository interface {
	NextNumberTx(tx *gorm.DB) (int64, error)
	CreateTx(tx *gorm.DB, invoice *models.Invoice) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	FindByOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Invoice, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service issues and reads invoices. Issuance only happens inside the
// checkout transaction; everything else is a read.
type Service interface {
	GenerateTx(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Invoice, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	GetByOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Invoice, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error)
}

type service struct {
	repo   invoicesRepository
	events eventEmitter
}

func NewService(repo invoicesRepository, events eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{repo: repo, events: events}, nil
}

func (s *service) GenerateTx(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Invoice, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if order == nil || order.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	seq, err := s.repo.NextNumberTx(tx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocating invoice number")
	}

	now := time.Now().UTC()
	row := &models.Invoice{
		Number:   fmt.Sprintf("INV-%d-%06d", now.Year(), seq),
		OrderID:  order.ID,
		Amount:   order.Total,
		Tax:      decimal.Zero,
		Total:    order.Total,
		Status:   enums.InvoiceStatusPaid,
		IssuedAt: now,
	}
	if err := s.repo.CreateTx(tx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating invoice")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventInvoiceCreated,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   row.ID,
		Version:       1,
		Data: payloads.InvoiceCreatedEvent{
			InvoiceID:     row.ID,
			InvoiceNumber: row.Number,
			OrderID:       row.OrderID,
			Total:         row.Total,
		},
	}
	if err := s.events.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emitting invoice event")
	}

	return row, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	row, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading invoice")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return row, nil
}

func (s *service) GetByOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Invoice, error) {
	if orderID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and user ids required")
	}
	row, err := s.repo.FindByOrderForUser(ctx, orderID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading invoice")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return row, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing invoices")
	}
	return rows, nil
}
