package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/models"
)

const (
	// taxRate is the flat GST applied to the item subtotal.
	taxRate = 0.18
	// freeShippingAbove is the subtotal above which shipping is free.
	freeShippingAbove = 500
	shippingFee       = 50
)

type Totals struct {
	ItemsPrice    float64 `json:"items_price"`
	TaxPrice      float64 `json:"tax_price"`
	ShippingPrice float64 `json:"shipping_price"`
	TotalPrice    float64 `json:"total_price"`
}

// ComputeTotals derives tax, shipping and grand total from the item
// subtotal. All amounts are rounded to two decimal places.
func ComputeTotals(itemsPrice float64) Totals {
	items := decimal.NewFromFloat(itemsPrice).Round(2)

	tax := items.Mul(decimal.NewFromFloat(taxRate)).Round(2)

	shipping := decimal.NewFromInt(shippingFee)
	if items.GreaterThan(decimal.NewFromInt(freeShippingAbove)) {
		shipping = decimal.Zero
	}

	total := items.Add(tax).Add(shipping).Round(2)

	return Totals{
		ItemsPrice:    items.InexactFloat64(),
		TaxPrice:      tax.InexactFloat64(),
		ShippingPrice: shipping.InexactFloat64(),
		TotalPrice:    total.InexactFloat64(),
	}
}

// CartTotal is Σ(price×quantity) over the lines, always recomputed and
// never read back from a stored field.
func CartTotal(items []models.CartItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum = sum.Add(line)
	}
	return sum.Round(2).InexactFloat64()
}

// OrderItemsSubtotal sums the snapshot prices of an order's lines.
func OrderItemsSubtotal(items []models.OrderItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum = sum.Add(line)
	}
	return sum.Round(2).InexactFloat64()
}

// AverageRating rounds the mean of the ratings to one decimal place.
// Returns 0 for an empty slice.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	total := 0
	for _, r := range ratings {
		total += r
	}
	mean := float64(total) / float64(len(ratings))
	return math.Round(mean*10) / 10
}
