package enums

// PromoKind distinguishes the two discount shapes the promo table supports.
type PromoKind string

const (
	// PromoKindPercent discounts a fraction of the subtotal (0.2 = 20% off).
	PromoKindPercent PromoKind = "percent"
	// PromoKindFixed discounts a fixed amount, capped at the subtotal.
	PromoKindFixed PromoKind = "fixed"
)

func (p PromoKind) String() string {
	return string(p)
}

// IsValid reports whether the kind is one of the supported discount shapes.
func (p PromoKind) IsValid() bool {
	return p == PromoKindPercent || p == PromoKindFixed
}
