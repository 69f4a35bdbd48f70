package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	cartsvc "github.com/Skotchmaster/marketplace/internal/service/cart"
)

type CartHandler struct {
	Svc      *cartsvc.Service
	Producer Publisher
	Log      *slog.Logger
}

func (h *CartHandler) publish(c echo.Context, userID uint, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicCartEvents, fmt.Sprint(userID), event); err != nil {
		h.Log.Error("kafka publish", "topic", mykafka.TopicCartEvents, "error", err)
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID := auth.UserID(c)

	cart, err := h.Svc.Get(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	userID := auth.UserID(c)

	var req struct {
		ProductID uint `json:"product_id" validate:"required"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.Svc.AddItem(c.Request().Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, userID, map[string]interface{}{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	userID := auth.UserID(c)
	productID, err := paramUint(c, "productId")
	if err != nil {
		return err
	}

	var req struct {
		Quantity uint `json:"quantity" validate:"required,gte=1"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cart, err := h.Svc.UpdateQuantity(c.Request().Context(), userID, productID, req.Quantity)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, userID, map[string]interface{}{
		"type":      "cart_item_updated",
		"userID":    userID,
		"productID": productID,
		"quantity":  req.Quantity,
	})
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID := auth.UserID(c)
	productID, err := paramUint(c, "productId")
	if err != nil {
		return err
	}

	cart, err := h.Svc.RemoveItem(c.Request().Context(), userID, productID)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, userID, map[string]interface{}{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": productID,
	})
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) RemoveItemByID(c echo.Context) error {
	userID := auth.UserID(c)
	itemID, err := paramUint(c, "cartItemId")
	if err != nil {
		return err
	}

	cart, err := h.Svc.RemoveItemByID(c.Request().Context(), userID, itemID)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, userID, map[string]interface{}{
		"type":       "cart_item_removed",
		"userID":     userID,
		"cartItemID": itemID,
	})
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) Clear(c echo.Context) error {
	userID := auth.UserID(c)

	cart, err := h.Svc.Clear(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, userID, map[string]interface{}{
		"type":   "cart_cleared",
		"userID": userID,
	})
	return c.JSON(http.StatusOK, cart)
}

// BuyNow replaces the whole cart with one line to stage an instant
// purchase.
func (h *CartHandler) BuyNow(c echo.Context) error {
	userID := auth.UserID(c)

	var req struct {
		ProductID uint `json:"product_id" validate:"required"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cart, err := h.Svc.SetBuyNow(c.Request().Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, userID, map[string]interface{}{
		"type":      "cart_buy_now",
		"userID":    userID,
		"productID": req.ProductID,
	})
	return c.JSON(http.StatusOK, cart)
}
