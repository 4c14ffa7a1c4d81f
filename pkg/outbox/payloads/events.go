package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zaliant/storefront-backend/pkg/enums"
)

// OrderCreatedEvent signals a completed checkout.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Email       string          `json:"email"`
	PromoCode   *string         `json:"promo_code,omitempty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	LineCount   int             `json:"line_count"`
}

// LicenseIssuedEvent is emitted once per key minted at checkout.
type LicenseIssuedEvent struct {
	LicenseID    uuid.UUID  `json:"license_id"`
	OrderID      uuid.UUID  `json:"order_id"`
	ProductName  string     `json:"product_name"`
	VariantLabel string     `json:"variant_label"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// LicenseExpiredEvent is emitted by the expiry sweep when a key lapses.
type LicenseExpiredEvent struct {
	LicenseID uuid.UUID `json:"license_id"`
	OrderID   uuid.UUID `json:"order_id"`
	ExpiredAt time.Time `json:"expired_at"`
}

// LicenseRevokedEvent is emitted when an admin revokes a key.
type LicenseRevokedEvent struct {
	LicenseID uuid.UUID           `json:"license_id"`
	OrderID   uuid.UUID           `json:"order_id"`
	Previous  enums.LicenseStatus `json:"previous_status"`
	Reason    string              `json:"reason,omitempty"`
}

// InvoiceCreatedEvent is emitted alongside the invoice row at checkout.
type InvoiceCreatedEvent struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	Total         decimal.Decimal `json:"total"`
}

// StatsClearedEvent records a back-office wipe of orders and license keys.
type StatsClearedEvent struct {
	OrdersDeleted   int       `json:"orders_deleted"`
	LicensesDeleted int       `json:"licenses_deleted"`
	ClearedAt       time.Time `json:"cleared_at"`
}
