package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/middleware/auth"
	reviewsvc "github.com/Skotchmaster/marketplace/internal/service/review"
)

type ReviewHandler struct {
	Svc *reviewsvc.Service
}

type reviewRequest struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Rating    int    `json:"rating"     validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment"    validate:"required"`
}

func (h *ReviewHandler) Upsert(c echo.Context) error {
	userID := auth.UserID(c)

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	review, agg, err := h.Svc.Upsert(c.Request().Context(), userID, req.ProductID, req.Rating, req.Comment)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"review":      review,
		"rating":      agg.Rating,
		"num_reviews": agg.NumReviews,
	})
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	userID := auth.UserID(c)
	reviewID, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	agg, err := h.Svc.Delete(c.Request().Context(), reviewID, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"rating":      agg.Rating,
		"num_reviews": agg.NumReviews,
	})
}

func (h *ReviewHandler) ListForProduct(c echo.Context) error {
	productID, err := paramUint(c, "productId")
	if err != nil {
		return err
	}

	reviews, err := h.Svc.ListForProduct(c.Request().Context(), productID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) Mine(c echo.Context) error {
	userID := auth.UserID(c)
	productID, err := paramUint(c, "productId")
	if err != nil {
		return err
	}

	review, err := h.Svc.ForUser(c.Request().Context(), userID, productID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, review)
}
