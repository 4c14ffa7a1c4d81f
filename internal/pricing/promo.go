package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zaliant/storefront-backend/pkg/enums"
)

// Promo is one redeemable discount code. Percent promos carry a rate in the
// 0..1 range; fixed promos carry a currency amount.
type Promo struct {
	Code        string
	Kind        enums.PromoKind
	Value       decimal.Decimal
	Description string
}

var promoCatalog = map[string]Promo{
	"WELCOME10": {
		Code:        "WELCOME10",
		Kind:        enums.PromoKindFixed,
		Value:       decimal.NewFromInt(10),
		Description: "Welcome bonus",
	},
	"ZALIANT20": {
		Code:        "ZALIANT20",
		Kind:        enums.PromoKindPercent,
		Value:       decimal.RequireFromString("0.2"),
		Description: "20% off",
	},
	"SAVE20": {
		Code:        "SAVE20",
		Kind:        enums.PromoKindPercent,
		Value:       decimal.RequireFromString("0.2"),
		Description: "20% discount",
	},
	"SUMMER15": {
		Code:        "SUMMER15",
		Kind:        enums.PromoKindPercent,
		Value:       decimal.RequireFromString("0.15"),
		Description: "Summer sale 15%",
	},
}

// LookupPromo resolves a user-supplied code. Codes are matched after trimming
// whitespace and uppercasing, so "  save20 " applies SAVE20.
func LookupPromo(code string) (Promo, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	promo, ok := promoCatalog[normalized]
	return promo, ok
}
