package notify

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

// Fanout runs the post-order side effects: buyer confirmation, per-seller
// system message and email, an order_created event, and the dormant SMS
// channel. Every send is best-effort; a failure is logged and never
// propagated, so one seller's broken inbox cannot block the others or the
// order itself.
type Fanout struct {
	DB     *gorm.DB
	Mailer Mailer
	SMS    *SMSSender
	Events Publisher
	Log    *slog.Logger
}

func (f *Fanout) OrderCreated(ctx context.Context, order *models.Order, buyer *models.User) {
	if f.Mailer != nil {
		if err := f.Mailer.Send(
			buyer.Email,
			"Order Confirmation - Marketplace",
			buyerConfirmationBody(buyer.Name, order),
		); err != nil {
			f.Log.Error("order fan-out: buyer confirmation email", "order_id", order.ID, "error", err)
		}
	}

	if f.SMS != nil && f.SMS.Enabled {
		if err := f.SMS.SendOrderConfirmation(order.ShippingAddress.Phone, buyer.Name, order); err != nil {
			f.Log.Error("order fan-out: buyer confirmation sms", "order_id", order.ID, "error", err)
		}
	}

	for ownerID, items := range f.itemsByOwner(ctx, order) {
		if err := f.notifyOwner(ctx, order, buyer, ownerID, items); err != nil {
			f.Log.Error("order fan-out: owner notification", "order_id", order.ID, "owner_id", ownerID, "error", err)
		}
	}

	if f.Events != nil {
		event := map[string]interface{}{
			"type":     "order_created",
			"orderID":  order.ID,
			"userID":   order.UserID,
			"total":    order.TotalPrice,
			"numItems": len(order.Items),
		}
		if err := f.Events.PublishEvent(ctx, "order_events", fmt.Sprint(order.UserID), event); err != nil {
			f.Log.Error("order fan-out: publish event", "order_id", order.ID, "error", err)
		}
	}
}

// itemsByOwner groups the order's lines by the current owner of each
// referenced product. Lines whose product or owner cannot be resolved are
// logged and skipped.
func (f *Fanout) itemsByOwner(ctx context.Context, order *models.Order) map[uint][]models.OrderItem {
	byOwner := make(map[uint][]models.OrderItem)
	for _, item := range order.Items {
		var product models.Product
		if err := f.DB.WithContext(ctx).First(&product, item.ProductID).Error; err != nil {
			f.Log.Error("order fan-out: resolve product", "order_id", order.ID, "product_id", item.ProductID, "error", err)
			continue
		}
		byOwner[product.OwnerID] = append(byOwner[product.OwnerID], item)
	}
	return byOwner
}

func (f *Fanout) notifyOwner(ctx context.Context, order *models.Order, buyer *models.User, ownerID uint, items []models.OrderItem) error {
	var owner models.User
	if err := f.DB.WithContext(ctx).First(&owner, ownerID).Error; err != nil {
		return fmt.Errorf("resolve owner %d: %w", ownerID, err)
	}

	for _, item := range items {
		msg := models.Message{
			OrderID:     order.ID,
			SenderID:    buyer.ID,
			RecipientID: owner.ID,
			Body: fmt.Sprintf("New order received for %s (Qty: %d). Order ID: %d",
				item.Name, item.Quantity, order.ID),
			Type: models.MessageTypeSystem,
		}
		if err := f.DB.WithContext(ctx).Create(&msg).Error; err != nil {
			f.Log.Error("order fan-out: system message", "order_id", order.ID, "owner_id", owner.ID, "error", err)
		}
	}

	if f.Mailer == nil {
		return nil
	}
	if err := f.Mailer.Send(
		owner.Email,
		"New Order Received - Marketplace",
		ownerNotificationBody(owner.Name, buyer.Name, order.ShippingAddress.Phone, order, items),
	); err != nil {
		return fmt.Errorf("owner email: %w", err)
	}
	return nil
}
