package invoices

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NextNumberTx pulls the next value from the invoice number sequence. Must
// run inside the checkout transaction so a rollback does not burn a gap the
// caller observed.
func (r *Repository) NextNumberTx(tx *gorm.DB) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	var next int64
	if err := tx.Raw("SELECT nextval('invoice_number_seq')").Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func (r *Repository) CreateTx(tx *gorm.DB, invoice *models.Invoice) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(invoice).Error
}

func (r *Repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	var row models.Invoice
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindByOrderForUser loads an invoice only when the owning order belongs to
// the given user.
func (r *Repository) FindByOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Invoice, error) {
	var row models.Invoice
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = invoices.order_id").
		Where("invoices.order_id = ?", orderID).
		Where("orders.user_id = ?", userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = invoices.order_id").
		Where("orders.user_id = ?", userID).
		Order("invoices.issued_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
