package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/models"
	ordersvc "github.com/Skotchmaster/marketplace/internal/service/order"
)

type OrderHandler struct {
	Svc *ordersvc.Service
}

type createOrderRequest struct {
	Items           []ordersvc.ItemInput `json:"items"`
	ShippingAddress shippingAddress      `json:"shipping_address" validate:"required"`
	PaymentMethod   string               `json:"payment_method"   validate:"required"`
}

type shippingAddress struct {
	Address    string `json:"address"     validate:"required"`
	City       string `json:"city"        validate:"required"`
	State      string `json:"state"       validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country"     validate:"required"`
	Phone      string `json:"phone"       validate:"required"`
}

func (h *OrderHandler) Create(c echo.Context) error {
	userID := auth.UserID(c)

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.Svc.Create(c.Request().Context(), userID, ordersvc.CreateInput{
		Items: req.Items,
		ShippingAddress: models.ShippingAddress{
			Address:    req.ShippingAddress.Address,
			City:       req.ShippingAddress.City,
			State:      req.ShippingAddress.State,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
			Phone:      req.ShippingAddress.Phone,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c echo.Context) error {
	userID := auth.UserID(c)
	orderID, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	order, err := h.Svc.Get(c.Request().Context(), orderID, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	userID := auth.UserID(c)

	orders, err := h.Svc.ListMine(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Pay(c echo.Context) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		UpdateTime   string `json:"update_time"`
		EmailAddress string `json:"email_address"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.Svc.MarkPaid(c.Request().Context(), orderID, models.PaymentResult{
		ID:           req.ID,
		Status:       req.Status,
		UpdateTime:   req.UpdateTime,
		EmailAddress: req.EmailAddress,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Deliver(c echo.Context) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	order, err := h.Svc.MarkDelivered(c.Request().Context(), orderID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}
