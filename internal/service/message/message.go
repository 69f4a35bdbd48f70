package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/service"
)

// Service handles buyer-seller messaging attached to orders. The Order
// Processor also writes into the same table directly for system messages.
type Service struct {
	DB  *gorm.DB
	Log *slog.Logger
}

// Send creates a message on an order thread. The recipient is derived from
// the message type: buyer_to_owner goes to the owner of the first ordered
// product, owner_to_buyer goes to the order's buyer.
func (s *Service) Send(ctx context.Context, senderID, orderID uint, body, msgType string) (*models.Message, error) {
	if body == "" {
		return nil, fmt.Errorf("message body is required: %w", service.ErrInvalidInput)
	}
	if msgType == "" {
		msgType = models.MessageTypeBuyerToOwner
	}
	if msgType != models.MessageTypeBuyerToOwner && msgType != models.MessageTypeOwnerToBuyer {
		return nil, fmt.Errorf("unsupported message type %q: %w", msgType, service.ErrInvalidInput)
	}

	order, firstOwnerID, err := s.loadOrderWithOwner(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var recipientID uint
	switch msgType {
	case models.MessageTypeBuyerToOwner:
		recipientID = firstOwnerID
	case models.MessageTypeOwnerToBuyer:
		recipientID = order.UserID
	}

	if senderID != order.UserID && senderID != firstOwnerID {
		return nil, fmt.Errorf("not a participant of order %d: %w", orderID, service.ErrForbidden)
	}

	msg := models.Message{
		OrderID:     orderID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		Type:        msgType,
	}
	if err := s.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	var full models.Message
	if err := s.DB.WithContext(ctx).Preload("Sender").Preload("Recipient").First(&full, msg.ID).Error; err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	return &full, nil
}

// Thread returns an order's messages in chronological order; only the
// buyer and the seller of a contained product may read it.
func (s *Service) Thread(ctx context.Context, requesterID, orderID uint) ([]models.Message, error) {
	order, firstOwnerID, err := s.loadOrderWithOwner(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if requesterID != order.UserID && requesterID != firstOwnerID {
		return nil, fmt.Errorf("not a participant of order %d: %w", orderID, service.ErrForbidden)
	}

	var msgs []models.Message
	err = s.DB.WithContext(ctx).
		Preload("Sender").
		Preload("Recipient").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// ListForUser returns every message the user sent or received, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.WithContext(ctx).
		Preload("Sender").
		Preload("Recipient").
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// MarkRead flips the read flag; only the recipient may do so.
func (s *Service) MarkRead(ctx context.Context, requesterID, messageID uint) (*models.Message, error) {
	var msg models.Message
	if err := s.DB.WithContext(ctx).First(&msg, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("message %d: %w", messageID, service.ErrNotFound)
		}
		return nil, fmt.Errorf("load message: %w", err)
	}
	if msg.RecipientID != requesterID {
		return nil, fmt.Errorf("message %d: %w", messageID, service.ErrForbidden)
	}

	msg.IsRead = true
	if err := s.DB.WithContext(ctx).Save(&msg).Error; err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	return &msg, nil
}

func (s *Service) loadOrderWithOwner(ctx context.Context, orderID uint) (*models.Order, uint, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).Preload("Items").First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, fmt.Errorf("order %d: %w", orderID, service.ErrNotFound)
		}
		return nil, 0, fmt.Errorf("load order: %w", err)
	}
	if len(order.Items) == 0 {
		return nil, 0, fmt.Errorf("order %d has no items: %w", orderID, service.ErrNotFound)
	}

	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, order.Items[0].ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, fmt.Errorf("product %d: %w", order.Items[0].ProductID, service.ErrNotFound)
		}
		return nil, 0, fmt.Errorf("load product: %w", err)
	}
	return &order, product.OwnerID, nil
}
