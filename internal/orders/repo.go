package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgpagination "github.com/zaliant/storefront-backend/pkg/pagination"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NextNumberTx pulls the next value from the order number sequence inside
// the checkout transaction.
func (r *Repository) NextNumberTx(tx *gorm.DB) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	var next int64
	if err := tx.Raw("SELECT nextval('order_number_seq')").Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// CreateTx inserts an order together with its line items.
func (r *Repository) CreateTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(order).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var row models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var row models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("number = ?", number).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByEmail powers the guest order lookup.
func (r *Repository) ListByEmail(ctx context.Context, email string) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// List returns orders using cursor pagination for the back office.
func (r *Repository) List(ctx context.Context, limit int, cursor *pkgpagination.Cursor) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Lines")
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// Stats aggregates order count and completed revenue in one pass each.
func (r *Repository) Stats(ctx context.Context) (int64, string, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error; err != nil {
		return 0, "", err
	}
	var revenue *string
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("SUM(total)").
		Where("status = ?", enums.OrderStatusCompleted).
		Scan(&revenue).Error
	if err != nil {
		return 0, "", err
	}
	if revenue == nil {
		zero := "0"
		revenue = &zero
	}
	return count, *revenue, nil
}

// DeleteAllTx wipes every order (line items cascade). Returns rows removed.
func (r *Repository) DeleteAllTx(tx *gorm.DB) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.Where("1 = 1").Delete(&models.Order{})
	return result.RowsAffected, result.Error
}
