package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestCartLinesUnmarshal_MalformedPayload(t *testing.T) {
	var lines CartLines
	if err := json.Unmarshal([]byte(`{"not":"an array"}`), &lines); err != nil {
		t.Fatalf("expected malformed payload to decode without error, got %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}

func TestCartLinesUnmarshal_DropsInvalidLines(t *testing.T) {
	productID := uuid.New()
	variantID := uuid.New()

	payload := []CartLine{
		{ProductID: productID, VariantID: variantID, ProductName: "Valorant Premium", VariantLabel: "1 Week", UnitPrice: decimal.RequireFromString("14.99"), Qty: 2},
		{ProductID: uuid.Nil, VariantID: variantID, Qty: 1},
		{ProductID: productID, VariantID: variantID, Qty: 0},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var lines CartLines
	if err := json.Unmarshal(raw, &lines); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 surviving line, got %d", len(lines))
	}
	if lines[0].Qty != 2 || lines[0].ProductName != "Valorant Premium" {
		t.Fatalf("unexpected surviving line: %+v", lines[0])
	}
}
