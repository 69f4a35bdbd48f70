package cart

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/service"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return &Service{DB: db, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := models.Product{
		Name:         name,
		Description:  "d",
		Price:        price,
		Image:        "img.jpg",
		Category:     "c",
		Brand:        "b",
		CountInStock: stock,
		IsActive:     true,
		OwnerID:      99,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func TestGetCreatesAndPersistsEmptyCart(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	cart, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.Equal(t, 0.0, cart.Total)

	var count int64
	require.NoError(t, s.DB.Model(&models.Cart{}).Where("user_id = ?", 1).Count(&count).Error)
	require.Equal(t, int64(1), count)

	// second call reuses the same row
	again, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, cart.ID, again.ID)
}

func TestAddItemMergesDuplicateLines(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB, "Keyboard", 120, 10)

	cart, err := s.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	cart, err = s.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, uint(3), cart.Items[0].Quantity)
	require.Equal(t, 360.0, cart.Total)
}

func TestAddItemSnapshotsProduct(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB, "Monitor", 250, 5)

	cart, err := s.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)
	require.Equal(t, "Monitor", cart.Items[0].Name)
	require.Equal(t, 250.0, cart.Items[0].Price)
	require.Equal(t, "img.jpg", cart.Items[0].Image)
	require.True(t, cart.Items[0].Resolved)
}

func TestAddItemUnknownProduct(t *testing.T) {
	s := newTestService(t)

	_, err := s.AddItem(context.Background(), 1, 42, 1)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestAddItemZeroQuantity(t *testing.T) {
	s := newTestService(t)

	_, err := s.AddItem(context.Background(), 1, 1, 0)
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestUpdateQuantityOverwrites(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB, "Mouse", 40, 10)

	_, err := s.AddItem(ctx, 1, p.ID, 5)
	require.NoError(t, err)

	cart, err := s.UpdateQuantity(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	require.Equal(t, uint(2), cart.Items[0].Quantity)
	require.Equal(t, 80.0, cart.Total)
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedProduct(t, s.DB, "Mouse", 40, 10)

	_, err := s.UpdateQuantity(ctx, 1, 1, 2)
	require.ErrorIs(t, err, service.ErrNotFound) // no cart yet

	_, err = s.Get(ctx, 1)
	require.NoError(t, err)
	_, err = s.UpdateQuantity(ctx, 1, 1, 2)
	require.ErrorIs(t, err, service.ErrNotFound) // cart exists, line does not
}

func TestRemoveItemPreservesOrder(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p1 := seedProduct(t, s.DB, "A", 10, 5)
	p2 := seedProduct(t, s.DB, "B", 20, 5)
	p3 := seedProduct(t, s.DB, "C", 30, 5)

	for _, p := range []*models.Product{p1, p2, p3} {
		_, err := s.AddItem(ctx, 1, p.ID, 1)
		require.NoError(t, err)
	}

	cart, err := s.RemoveItem(ctx, 1, p2.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	require.Equal(t, "A", cart.Items[0].Name)
	require.Equal(t, "C", cart.Items[1].Name)
	require.Equal(t, 40.0, cart.Total)
}

func TestRemoveItemFallsBackToLineID(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	cart, err := s.Get(ctx, 1)
	require.NoError(t, err)

	// a line with no product reference can only be removed by its own id
	orphan := models.CartItem{CartID: cart.ID, Name: "Ghost", Price: 15, Quantity: 1}
	require.NoError(t, s.DB.Create(&orphan).Error)

	cart, err = s.RemoveItem(ctx, 1, orphan.ID)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
}

func TestRemoveItemByID(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB, "A", 10, 5)

	cart, err := s.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)

	cart, err = s.RemoveItemByID(ctx, 1, cart.Items[0].ID)
	require.NoError(t, err)
	require.Empty(t, cart.Items)

	_, err = s.RemoveItemByID(ctx, 1, 999)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestClearKeepsCartRow(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB, "A", 10, 5)

	_, err := s.AddItem(ctx, 1, p.ID, 3)
	require.NoError(t, err)

	cart, err := s.Clear(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.Equal(t, 0.0, cart.Total)

	var count int64
	require.NoError(t, s.DB.Model(&models.Cart{}).Where("user_id = ?", 1).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestBuyNowReplacesWholeCart(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p1 := seedProduct(t, s.DB, "A", 10, 5)
	p2 := seedProduct(t, s.DB, "B", 20, 5)

	_, err := s.AddItem(ctx, 1, p1.ID, 4)
	require.NoError(t, err)

	cart, err := s.SetBuyNow(ctx, 1, p2.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, "B", cart.Items[0].Name)
	require.Equal(t, uint(2), cart.Items[0].Quantity)
	require.Equal(t, 40.0, cart.Total)
}

func TestRepairRestoresExactMatch(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB, "Headphones", 89.99, 5)

	cart, err := s.Get(ctx, 1)
	require.NoError(t, err)

	// a line written without a product reference, snapshot still intact
	line := models.CartItem{CartID: cart.ID, Name: "Headphones", Price: 89.99, Quantity: 1}
	require.NoError(t, s.DB.Create(&line).Error)

	cart, err = s.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.True(t, cart.Items[0].Resolved)
	require.NotNil(t, cart.Items[0].ProductID)
	require.Equal(t, p.ID, *cart.Items[0].ProductID)

	// the repaired reference is persisted, not just returned
	var stored models.CartItem
	require.NoError(t, s.DB.First(&stored, line.ID).Error)
	require.NotNil(t, stored.ProductID)
	require.Equal(t, p.ID, *stored.ProductID)
}

func TestRepairLeavesPriceMismatchUnresolved(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedProduct(t, s.DB, "Headphones", 99.99, 5)

	cart, err := s.Get(ctx, 1)
	require.NoError(t, err)

	line := models.CartItem{CartID: cart.ID, Name: "headphones", Price: 89.99, Quantity: 2}
	require.NoError(t, s.DB.Create(&line).Error)

	cart, err = s.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.False(t, cart.Items[0].Resolved)
	require.Nil(t, cart.Items[0].ProductID)

	// unresolved lines still count into the recomputed total
	require.Equal(t, 179.98, cart.Total)
}
