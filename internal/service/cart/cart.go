package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/pricing"
	"github.com/Skotchmaster/marketplace/internal/service"
)

// Service owns the per-user cart and keeps its lines consistent with the
// catalog. Every read re-resolves product references and repairs lines that
// lost them; the cart total is always recomputed, never stored.
type Service struct {
	DB  *gorm.DB
	Log *slog.Logger
}

// Get returns the user's cart, creating and persisting an empty one on
// first access.
func (s *Service) Get(ctx context.Context, userID uint) (*models.Cart, error) {
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, cart.ID)
}

func (s *Service) getOrCreate(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		if err := s.DB.WithContext(ctx).Create(&cart).Error; err != nil {
			return nil, fmt.Errorf("create cart: %w", err)
		}
		return &cart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}

// populate loads the cart lines in insertion order, joins each against the
// catalog and repairs lines whose product reference is gone. Unrepaired
// lines stay in the cart for visibility but are flagged unresolved.
func (s *Service) populate(ctx context.Context, cartID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.Product").
		First(&cart, cartID).Error
	if err != nil {
		return nil, fmt.Errorf("load cart %d: %w", cartID, err)
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		if item.Product == nil {
			s.repair(ctx, item)
		}
		item.Resolved = item.Product != nil
	}

	cart.Total = pricing.CartTotal(cart.Items)
	return &cart, nil
}

// repair tries to restore a lost product reference from the line's
// snapshot: first an exact (name, price) match, then a case-insensitive
// name match which is only logged because the price no longer agrees.
func (s *Service) repair(ctx context.Context, item *models.CartItem) {
	var product models.Product
	err := s.DB.WithContext(ctx).
		Where("name = ? AND price = ?", item.Name, item.Price).
		First(&product).Error
	if err == nil {
		item.ProductID = &product.ID
		item.Product = &product
		if err := s.DB.WithContext(ctx).Model(item).Update("product_id", product.ID).Error; err != nil {
			s.Log.Error("cart repair: persist product reference", "item_id", item.ID, "error", err)
		}
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.Log.Error("cart repair: lookup by name and price", "item_id", item.ID, "error", err)
		return
	}

	var byName models.Product
	err = s.DB.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", item.Name).
		First(&byName).Error
	switch {
	case err == nil:
		s.Log.Warn("cart repair: price mismatch, reference not restored",
			"item_id", item.ID, "name", item.Name,
			"cart_price", item.Price, "product_price", byName.Price)
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.Log.Warn("cart repair: no matching product", "item_id", item.ID, "name", item.Name)
	default:
		s.Log.Error("cart repair: lookup by name", "item_id", item.ID, "error", err)
	}
}

// AddItem merges into an existing line for the same product or appends a
// new line snapshotting the product's current name, price and image.
func (s *Service) AddItem(ctx context.Context, userID, productID uint, quantity uint) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", service.ErrInvalidInput)
	}

	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, service.ErrNotFound)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}

	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	var line models.CartItem
	err = s.DB.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cart.ID, productID).
		First(&line).Error
	switch {
	case err == nil:
		line.Quantity += quantity
		if err := s.DB.WithContext(ctx).Save(&line).Error; err != nil {
			return nil, fmt.Errorf("update cart line: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		line = models.CartItem{
			CartID:    cart.ID,
			ProductID: &product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Quantity:  quantity,
		}
		if err := s.DB.WithContext(ctx).Create(&line).Error; err != nil {
			return nil, fmt.Errorf("create cart line: %w", err)
		}
	default:
		return nil, fmt.Errorf("load cart line: %w", err)
	}

	return s.populate(ctx, cart.ID)
}

// UpdateQuantity overwrites the quantity of an existing line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID uint, quantity uint) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", service.ErrInvalidInput)
	}

	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	var line models.CartItem
	err = s.DB.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cart.ID, productID).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart line for product %d: %w", productID, service.ErrNotFound)
		}
		return nil, fmt.Errorf("load cart line: %w", err)
	}

	line.Quantity = quantity
	if err := s.DB.WithContext(ctx).Save(&line).Error; err != nil {
		return nil, fmt.Errorf("update cart line: %w", err)
	}

	return s.populate(ctx, cart.ID)
}

// RemoveItem removes lines matching the product reference. When no line
// matches, the id is retried as a cart-line id: callers that only hold the
// line id (after a failed reference resolution) still get a removal.
func (s *Service) RemoveItem(ctx context.Context, userID, productID uint) (*models.Cart, error) {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cart.ID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return nil, fmt.Errorf("remove cart line: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		s.Log.Info("cart remove: no product match, falling back to line id", "id", productID)
		if err := s.DB.WithContext(ctx).
			Where("cart_id = ? AND id = ?", cart.ID, productID).
			Delete(&models.CartItem{}).Error; err != nil {
			return nil, fmt.Errorf("remove cart line by id: %w", err)
		}
	}

	return s.populate(ctx, cart.ID)
}

// RemoveItemByID removes strictly by cart-line identity.
func (s *Service) RemoveItemByID(ctx context.Context, userID, itemID uint) (*models.Cart, error) {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cart.ID, itemID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return nil, fmt.Errorf("remove cart line: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("cart line %d: %w", itemID, service.ErrNotFound)
	}

	return s.populate(ctx, cart.ID)
}

// Clear empties the item list, keeping the cart row itself.
func (s *Service) Clear(ctx context.Context, userID uint) (*models.Cart, error) {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Delete(&models.CartItem{}).Error; err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	return s.populate(ctx, cart.ID)
}

// SetBuyNow replaces the whole persisted cart with a single line to stage
// an instant purchase. This is destructive to the user's real cart.
func (s *Service) SetBuyNow(ctx context.Context, userID, productID uint, quantity uint) (*models.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, service.ErrNotFound)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}

	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		line := models.CartItem{
			CartID:    cart.ID,
			ProductID: &product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Quantity:  quantity,
		}
		return tx.Create(&line).Error
	})
	if err != nil {
		return nil, fmt.Errorf("replace cart: %w", err)
	}

	return s.populate(ctx, cart.ID)
}

func (s *Service) requireCart(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for user %d: %w", userID, service.ErrNotFound)
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}
