package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zaliant/storefront-backend/pkg/types"
)

func line(price string, qty int) types.CartLine {
	return types.CartLine{
		ProductID: uuid.New(),
		VariantID: uuid.New(),
		UnitPrice: decimal.RequireFromString(price),
		Qty:       qty,
	}
}

func TestComputeQuote_PercentPromo(t *testing.T) {
	lines := types.CartLines{line("14.99", 1)}
	promo, ok := LookupPromo("SAVE20")
	if !ok {
		t.Fatalf("SAVE20 should resolve")
	}

	quote := ComputeQuote(lines, &promo)

	if !quote.Subtotal.Equal(decimal.RequireFromString("14.99")) {
		t.Fatalf("unexpected subtotal %s", quote.Subtotal)
	}
	if !quote.Discount.Equal(decimal.RequireFromString("2.998")) {
		t.Fatalf("unexpected discount %s", quote.Discount)
	}
	if !quote.Total.Equal(decimal.RequireFromString("11.992")) {
		t.Fatalf("unexpected total %s", quote.Total)
	}
}

func TestComputeQuote_FixedPromoCappedAtSubtotal(t *testing.T) {
	lines := types.CartLines{line("4.50", 1)}
	promo, ok := LookupPromo("WELCOME10")
	if !ok {
		t.Fatalf("WELCOME10 should resolve")
	}

	quote := ComputeQuote(lines, &promo)

	if !quote.Discount.Equal(decimal.RequireFromString("4.50")) {
		t.Fatalf("fixed discount should cap at subtotal, got %s", quote.Discount)
	}
	if !quote.Total.IsZero() {
		t.Fatalf("expected zero total, got %s", quote.Total)
	}
}

func TestComputeQuote_NoPromo(t *testing.T) {
	lines := types.CartLines{line("14.99", 2), line("39.99", 1)}

	quote := ComputeQuote(lines, nil)

	if !quote.Discount.IsZero() {
		t.Fatalf("expected zero discount, got %s", quote.Discount)
	}
	if !quote.Total.Equal(decimal.RequireFromString("69.97")) {
		t.Fatalf("unexpected total %s", quote.Total)
	}
}

func TestComputeQuote_EmptyCart(t *testing.T) {
	promo, _ := LookupPromo("ZALIANT20")
	quote := ComputeQuote(nil, &promo)

	if !quote.Subtotal.IsZero() || !quote.Discount.IsZero() || !quote.Total.IsZero() {
		t.Fatalf("empty cart should quote all zeros, got %+v", quote)
	}
}

func TestLookupPromo_Normalization(t *testing.T) {
	if _, ok := LookupPromo("  save20 "); !ok {
		t.Fatalf("expected trimmed lowercase code to resolve")
	}
	if _, ok := LookupPromo("BOGUS"); ok {
		t.Fatalf("unknown code should not resolve")
	}
	if _, ok := LookupPromo(""); ok {
		t.Fatalf("empty code should not resolve")
	}
}

func TestLookupPromo_Catalog(t *testing.T) {
	promo, ok := LookupPromo("SUMMER15")
	if !ok {
		t.Fatalf("SUMMER15 should resolve")
	}
	if !promo.Value.Equal(decimal.RequireFromString("0.15")) {
		t.Fatalf("unexpected rate %s", promo.Value)
	}
}
