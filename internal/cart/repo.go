package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
)

// Repository exposes cart persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByToken returns the cart for the given token, or nil when none exists.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save upserts the cart row. Last write wins.
func (r *Repository) Save(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Save(cart).Error
}

// Delete removes the cart row for the given token.
func (r *Repository) Delete(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Cart{}).Error
}

// DeleteTx removes the cart row inside an existing transaction.
func (r *Repository) DeleteTx(tx *gorm.DB, token string) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Where("token = ?", token).Delete(&models.Cart{}).Error
}

// AttachUser binds an anonymous cart to a signed-in user.
func (r *Repository) AttachUser(ctx context.Context, token string, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("token = ?", token).
		Update("user_id", userID).Error
}
