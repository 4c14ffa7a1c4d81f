package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zaliant/storefront-backend/pkg/enums"
)

// LicenseKey is a redeemable key minted per purchased unit. A key starts
// active and becomes used once it is bound to a hardware identifier; the
// binding is permanent.
type LicenseKey struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Key          string              `gorm:"column:key;not null;uniqueIndex"`
	OrderID      uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	LineItemID   *uuid.UUID          `gorm:"column:line_item_id;type:uuid"`
	ProductName  string              `gorm:"column:product_name;not null"`
	VariantLabel string              `gorm:"column:variant_label;not null"`
	Status       enums.LicenseStatus `gorm:"column:status;type:license_status;not null;default:'active'"`
	HWID         *string             `gorm:"column:hwid"`
	ActivatedAt  *time.Time          `gorm:"column:activated_at"`
	ExpiresAt    *time.Time          `gorm:"column:expires_at"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
