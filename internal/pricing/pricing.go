package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/zaliant/storefront-backend/pkg/enums"
	"github.com/zaliant/storefront-backend/pkg/types"
)

// Quote is the derived money view of a cart. It is recomputed on every read
// and never stored.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Subtotal sums unit price times quantity across all lines.
func Subtotal(lines types.CartLines) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return sum
}

// DiscountFor computes the promo deduction against a subtotal. A percent
// promo takes subtotal*rate; a fixed promo is capped at the subtotal so the
// discount never exceeds what is being bought.
func DiscountFor(promo *Promo, subtotal decimal.Decimal) decimal.Decimal {
	if promo == nil {
		return decimal.Zero
	}
	switch promo.Kind {
	case enums.PromoKindPercent:
		return subtotal.Mul(promo.Value)
	case enums.PromoKindFixed:
		if promo.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return promo.Value
	default:
		return decimal.Zero
	}
}

// ComputeQuote derives subtotal, discount, and total for a cart. The total is
// floored at zero.
func ComputeQuote(lines types.CartLines, promo *Promo) Quote {
	subtotal := Subtotal(lines)
	discount := DiscountFor(promo, subtotal)
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Quote{Subtotal: subtotal, Discount: discount, Total: total}
}
