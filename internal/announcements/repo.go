package announcements

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindActive(ctx context.Context) (*models.Announcement, error) {
	var row models.Announcement
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("updated_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *Repository) DeactivateAllTx(tx *gorm.DB) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.Announcement{}).
		Where("active = ?", true).
		Update("active", false).Error
}

func (r *Repository) CreateTx(tx *gorm.DB, row *models.Announcement) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(row).Error
}
