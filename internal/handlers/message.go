package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/middleware/auth"
	messagesvc "github.com/Skotchmaster/marketplace/internal/service/message"
)

type MessageHandler struct {
	Svc *messagesvc.Service
}

type sendMessageRequest struct {
	OrderID uint   `json:"order_id"     validate:"required"`
	Body    string `json:"message"      validate:"required"`
	Type    string `json:"message_type"`
}

func (h *MessageHandler) Send(c echo.Context) error {
	userID := auth.UserID(c)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	msg, err := h.Svc.Send(c.Request().Context(), userID, req.OrderID, req.Body, req.Type)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) Thread(c echo.Context) error {
	userID := auth.UserID(c)
	orderID, err := paramUint(c, "orderId")
	if err != nil {
		return err
	}

	msgs, err := h.Svc.Thread(c.Request().Context(), userID, orderID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *MessageHandler) ListMine(c echo.Context) error {
	userID := auth.UserID(c)

	msgs, err := h.Svc.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	userID := auth.UserID(c)
	messageID, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	msg, err := h.Svc.MarkRead(c.Request().Context(), userID, messageID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, msg)
}
