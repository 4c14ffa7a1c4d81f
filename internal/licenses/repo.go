package licenses

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaliant/storefront-backend/pkg/db/models"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgpagination "github.com/zaliant/storefront-backend/pkg/pagination"
)

// Repository exposes license key persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a license repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a key row inside an existing transaction.
func (r *Repository) CreateTx(tx *gorm.DB, key *models.LicenseKey) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(key).Error
}

// FindByKey returns the row for a key string, or nil when absent.
func (r *Repository) FindByKey(ctx context.Context, key string) (*models.LicenseKey, error) {
	var row models.LicenseKey
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByID returns the row for an id, or nil when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LicenseKey, error) {
	var row models.LicenseKey
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByOrder returns all keys minted for an order.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LicenseKey, error) {
	var rows []models.LicenseKey
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListByUser returns every key on orders owned by the given user.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.LicenseKey, error) {
	var rows []models.LicenseKey
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = license_keys.order_id").
		Where("orders.user_id = ?", userID).
		Order("license_keys.created_at DESC").
		Find(&rows).Error
	return rows, err
}

// List returns keys using cursor pagination, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *enums.LicenseStatus, limit int, cursor *pkgpagination.Cursor) ([]models.LicenseKey, error) {
	query := r.db.WithContext(ctx).Model(&models.LicenseKey{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.LicenseKey
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// Activate binds a key to a hardware id with a single conditional update.
// The guard clauses make the bind atomic: only an unexpired key that is
// either unbound or already bound to the same hardware can flip to used.
// Returns the number of rows changed.
func (r *Repository) Activate(ctx context.Context, key, hwid string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.LicenseKey{}).
		Where("key = ?", key).
		Where("status IN ?", []enums.LicenseStatus{enums.LicenseStatusActive, enums.LicenseStatusUsed}).
		Where("(hwid IS NULL OR hwid = ?)", hwid).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Updates(map[string]any{
			"status":       enums.LicenseStatusUsed,
			"hwid":         hwid,
			"activated_at": gorm.Expr("COALESCE(activated_at, ?)", now),
		})
	return result.RowsAffected, result.Error
}

// UpdateStatus flips a key's status. Returns rows affected.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LicenseStatus) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.LicenseKey{}).
		Where("id = ?", id).
		Update("status", status)
	return result.RowsAffected, result.Error
}

// FindDueForExpiry returns timed keys whose term has lapsed.
func (r *Repository) FindDueForExpiry(ctx context.Context, now time.Time, limit int) ([]models.LicenseKey, error) {
	var rows []models.LicenseKey
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.LicenseStatus{enums.LicenseStatusActive, enums.LicenseStatusUsed}).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// RevokeTx marks a key revoked unless it already is. Returns the number of
// rows changed so callers can skip the event on a no-op.
func (r *Repository) RevokeTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.Model(&models.LicenseKey{}).
		Where("id = ?", id).
		Where("status <> ?", enums.LicenseStatusRevoked).
		Update("status", enums.LicenseStatusRevoked)
	return result.RowsAffected, result.Error
}

// ExpireTx marks one key expired inside an existing transaction, guarding
// against concurrent sweeps.
func (r *Repository) ExpireTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.Model(&models.LicenseKey{}).
		Where("id = ?", id).
		Where("status IN ?", []enums.LicenseStatus{enums.LicenseStatusActive, enums.LicenseStatusUsed}).
		Update("status", enums.LicenseStatusExpired)
	return result.RowsAffected, result.Error
}

// CountByStatus returns how many keys sit in each status.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.LicenseStatus]int64, error) {
	type row struct {
		Status enums.LicenseStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.LicenseKey{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.LicenseStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

// DeleteAllTx removes every key row inside an existing transaction and
// reports how many were deleted.
func (r *Repository) DeleteAllTx(tx *gorm.DB) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.Where("1 = 1").Delete(&models.LicenseKey{})
	return result.RowsAffected, result.Error
}
