package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zaliant/storefront-backend/pkg/enums"
)

// Invoice is the billing record issued for a completed order. Digital goods
// carry no tax here, so Total always equals Amount.
type Invoice struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number    string              `gorm:"column:number;not null;uniqueIndex"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Tax       decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	Total     decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Status    enums.InvoiceStatus `gorm:"column:status;type:invoice_status;not null;default:'paid'"`
	IssuedAt  time.Time           `gorm:"column:issued_at;not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
