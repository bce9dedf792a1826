package pricing

// LineItem is one row of a checkout basket. UnitPrice is in minor units; a
// zero UnitPrice means the catalog price for the SKU applies.
type LineItem struct {
	ID        string `json:"id"`
	Qty       int64  `json:"qty"`
	UnitPrice int64  `json:"unitPrice"`
}

// catalogPrices is the fixed per-SKU price table in minor units. Unknown SKUs
// price at zero.
var catalogPrices = map[string]int64{
	"shirt":    1400,
	"mug":      900,
	"sticker":  300,
	"poster":   1200,
	"tote-bag": 1800,
}

// Amount computes the deterministic order total in minor units. Negative
// quantities and prices are clamped to zero per line; a missing quantity
// counts as one. The result is always a non-negative integer.
func Amount(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		price := item.UnitPrice
		if price <= 0 {
			price = catalogPrices[item.ID]
		}
		if price < 0 {
			continue
		}
		qty := item.Qty
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			continue
		}
		total += qty * price
	}
	if total < 0 {
		return 0
	}
	return total
}

// PriceOf returns the catalog price for a SKU, zero when unknown.
func PriceOf(id string) int64 {
	return catalogPrices[id]
}
