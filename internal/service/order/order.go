package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/pricing"
	"github.com/Skotchmaster/marketplace/internal/service"
)

// Notifier runs the post-order side effects. Implementations must be
// best-effort: CreateOrder has already committed when it is called.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order, buyer *models.User)
}

type Service struct {
	DB       *gorm.DB
	Notifier Notifier
	Log      *slog.Logger
}

type ItemInput struct {
	ProductID uint    `json:"product_id" validate:"required"`
	Name      string  `json:"name"       validate:"required"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"      validate:"gte=0"`
	Quantity  uint    `json:"quantity"   validate:"gte=1"`
}

type CreateInput struct {
	Items           []ItemInput            `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
}

// Create persists an immutable order snapshot, decrements stock for every
// line, and then triggers the notification fan-out. The totals are
// recomputed server-side from the line snapshots, never taken from the
// client. A line whose product can no longer be found is kept in the
// snapshot but skips the stock adjustment; a line exceeding available
// stock rejects the whole order.
func (s *Service) Create(ctx context.Context, userID uint, in CreateInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("no order items: %w", service.ErrInvalidInput)
	}
	if in.PaymentMethod != models.PaymentMethodCOD && in.PaymentMethod != models.PaymentMethodStripe {
		return nil, fmt.Errorf("unsupported payment method %q: %w", in.PaymentMethod, service.ErrInvalidInput)
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("quantity must be at least 1: %w", service.ErrInvalidInput)
		}
	}

	var buyer models.User
	if err := s.DB.WithContext(ctx).First(&buyer, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, service.ErrNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	items := make([]models.OrderItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}
	totals := pricing.ComputeTotals(pricing.OrderItemsSubtotal(items))

	order := models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		TotalPrice:      totals.TotalPrice,
		Status:          models.OrderStatusPending,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for _, it := range order.Items {
			if err := s.decrementStock(tx, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.OrderCreated(ctx, &order, &buyer)
	}

	return &order, nil
}

// decrementStock is guarded so stock can never go negative. A missing
// product is tolerated: the snapshot stands, only the adjustment is skipped.
func (s *Service) decrementStock(tx *gorm.DB, it models.OrderItem) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND count_in_stock >= ?", it.ProductID, it.Quantity).
		UpdateColumn("count_in_stock", gorm.Expr("count_in_stock - ?", it.Quantity))
	if res.Error != nil {
		return fmt.Errorf("decrement stock for product %d: %w", it.ProductID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var exists int64
	if err := tx.Model(&models.Product{}).Where("id = ?", it.ProductID).Count(&exists).Error; err != nil {
		return fmt.Errorf("check product %d: %w", it.ProductID, err)
	}
	if exists == 0 {
		s.Log.Warn("order: product missing, stock not adjusted", "product_id", it.ProductID, "name", it.Name)
		return nil
	}
	return fmt.Errorf("insufficient stock for %q: %w", it.Name, service.ErrInvalidInput)
}

// Get returns the order to its buyer, or to the seller of any product it
// contains. Seller access is recomputed from current product ownership,
// not stored on the order.
func (s *Service) Get(ctx context.Context, orderID, requesterID uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Preload("User").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, service.ErrNotFound)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	if order.UserID != requesterID && !s.isSeller(ctx, &order, requesterID) {
		return nil, fmt.Errorf("order %d: %w", orderID, service.ErrForbidden)
	}
	return &order, nil
}

func (s *Service) isSeller(ctx context.Context, order *models.Order, userID uint) bool {
	productIDs := make([]uint, 0, len(order.Items))
	for _, it := range order.Items {
		productIDs = append(productIDs, it.ProductID)
	}
	if len(productIDs) == 0 {
		return false
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id IN ? AND owner_id = ?", productIDs, userID).
		Count(&count).Error; err != nil {
		s.Log.Error("order: seller check", "order_id", order.ID, "error", err)
		return false
	}
	return count > 0
}

// ListMine returns the buyer's orders, newest first.
func (s *Service) ListMine(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// MarkPaid records the payment confirmation. Paying an already-paid order
// is rejected; there is no fuller state machine than that.
func (s *Service) MarkPaid(ctx context.Context, orderID uint, result models.PaymentResult) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, service.ErrNotFound)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.IsPaid {
		return nil, fmt.Errorf("order %d already paid: %w", orderID, service.ErrInvalidInput)
	}

	now := time.Now()
	order.IsPaid = true
	order.PaidAt = &now
	order.PaymentResult = result
	if err := s.DB.WithContext(ctx).Save(&order).Error; err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	return &order, nil
}

func (s *Service) MarkDelivered(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, service.ErrNotFound)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.IsDelivered {
		return nil, fmt.Errorf("order %d already delivered: %w", orderID, service.ErrInvalidInput)
	}

	now := time.Now()
	order.IsDelivered = true
	order.DeliveredAt = &now
	order.Status = models.OrderStatusDelivered
	if err := s.DB.WithContext(ctx).Save(&order).Error; err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	return &order, nil
}
