package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/payments"
)

type PaymentHandler struct {
	Stripe *payments.Client
}

type paymentAmountRequest struct {
	Amount   float64 `json:"amount"   validate:"required,gt=0"`
	Currency string  `json:"currency"`
	Email    string  `json:"email"`
}

func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	var req paymentAmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	intent, err := h.Stripe.CreateIntent(req.Amount, req.Currency)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "payment provider error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, intent)
}

func (h *PaymentHandler) CreateCheckoutSession(c echo.Context) error {
	var req paymentAmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sessionID, err := h.Stripe.CreateCheckoutSession(req.Amount, req.Currency, req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "payment provider error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": sessionID})
}

func (h *PaymentHandler) Methods(c echo.Context) error {
	return c.JSON(http.StatusOK, payments.Methods())
}
