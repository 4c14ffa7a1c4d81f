package enums

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusCanceled  OrderStatus = "canceled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusCompleted,
	OrderStatusRefunded,
	OrderStatusCanceled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical order_status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// PaymentMethod tags how an order was paid. The storefront runs in demo mode,
// so "demo" is the only method written by checkout today.
type PaymentMethod string

const (
	PaymentMethodDemo   PaymentMethod = "demo"
	PaymentMethodCrypto PaymentMethod = "crypto"
	PaymentMethodCard   PaymentMethod = "card"
)

func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the payment method is a known tag.
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodDemo, PaymentMethodCrypto, PaymentMethodCard:
		return true
	}
	return false
}
