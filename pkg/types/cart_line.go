package types

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one product variant held in a cart. Price is snapshotted when
// the line is added so the cart survives catalog edits; checkout re-reads the
// catalog for the authoritative amount.
type CartLine struct {
	ProductID    uuid.UUID       `json:"product_id"`
	VariantID    uuid.UUID       `json:"variant_id"`
	ProductName  string          `json:"product_name"`
	VariantLabel string          `json:"variant_label"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Qty          int             `json:"qty"`
}

// CartLines is the jsonb blob persisted on a cart. Malformed stored payloads
// decode to an empty slice rather than erroring, so a corrupted cart self-heals
// on next read.
type CartLines []CartLine

func (c *CartLines) UnmarshalJSON(data []byte) error {
	type alias CartLines
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		*c = CartLines{}
		return nil
	}

	valid := make(CartLines, 0, len(decoded))
	for _, line := range decoded {
		if line.ProductID == uuid.Nil || line.VariantID == uuid.Nil || line.Qty <= 0 {
			continue
		}
		valid = append(valid, line)
	}
	*c = valid
	return nil
}
