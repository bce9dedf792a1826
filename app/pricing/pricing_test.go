package pricing

import "testing"

func TestAmountSumsQuantityTimesUnitPrice(t *testing.T) {
	items := []LineItem{{ID: "A", Qty: 2, UnitPrice: 500}}
	if got := Amount(items); got != 1000 {
		t.Fatalf("Amount = %d, want 1000", got)
	}
}

func TestAmountUsesCatalogPriceWhenUnitPriceAbsent(t *testing.T) {
	items := []LineItem{
		{ID: "shirt", Qty: 1},
		{ID: "sticker", Qty: 3},
	}
	if got := Amount(items); got != 1400+3*300 {
		t.Fatalf("Amount = %d, want %d", got, 1400+3*300)
	}
}

func TestAmountDefaultsMissingQuantityToOne(t *testing.T) {
	items := []LineItem{{ID: "mug"}}
	if got := Amount(items); got != 900 {
		t.Fatalf("Amount = %d, want 900", got)
	}
}

func TestAmountNeverNegative(t *testing.T) {
	items := []LineItem{
		{ID: "A", Qty: -4, UnitPrice: 500},
		{ID: "B", Qty: 2, UnitPrice: -100},
		{ID: "unknown-sku", Qty: 5},
	}
	if got := Amount(items); got != 0 {
		t.Fatalf("Amount = %d, want 0", got)
	}
	if Amount(nil) != 0 {
		t.Fatal("Amount(nil) must be 0")
	}
}

func TestPriceOfUnknownSKU(t *testing.T) {
	if PriceOf("does-not-exist") != 0 {
		t.Fatal("unknown SKU must price at zero")
	}
}
