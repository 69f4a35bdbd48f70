package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func TestComputeTotalsFreeShipping(t *testing.T) {
	totals := ComputeTotals(1000)

	require.Equal(t, 1000.0, totals.ItemsPrice)
	require.Equal(t, 180.0, totals.TaxPrice)
	require.Equal(t, 0.0, totals.ShippingPrice)
	require.Equal(t, 1180.0, totals.TotalPrice)
}

func TestComputeTotalsWithShipping(t *testing.T) {
	totals := ComputeTotals(100)

	require.Equal(t, 100.0, totals.ItemsPrice)
	require.Equal(t, 18.0, totals.TaxPrice)
	require.Equal(t, 50.0, totals.ShippingPrice)
	require.Equal(t, 168.0, totals.TotalPrice)
}

func TestComputeTotalsShippingBoundary(t *testing.T) {
	// exactly 500 still pays shipping, free kicks in strictly above
	totals := ComputeTotals(500)
	require.Equal(t, 50.0, totals.ShippingPrice)

	totals = ComputeTotals(500.01)
	require.Equal(t, 0.0, totals.ShippingPrice)
}

func TestCartTotal(t *testing.T) {
	items := []models.CartItem{
		{Price: 99.99, Quantity: 2},
		{Price: 10.5, Quantity: 1},
	}
	require.Equal(t, 210.48, CartTotal(items))

	require.Equal(t, 0.0, CartTotal(nil))
}

func TestOrderItemsSubtotal(t *testing.T) {
	items := []models.OrderItem{
		{Price: 250, Quantity: 2},
		{Price: 0.1, Quantity: 3},
	}
	require.Equal(t, 500.3, OrderItemsSubtotal(items))
}

func TestAverageRating(t *testing.T) {
	require.Equal(t, 0.0, AverageRating(nil))
	require.Equal(t, 4.5, AverageRating([]int{4, 5}))
	require.Equal(t, 4.0, AverageRating([]int{4}))
	require.Equal(t, 3.7, AverageRating([]int{3, 4, 4}))
}
