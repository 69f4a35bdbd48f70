package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/es"
	"github.com/Skotchmaster/marketplace/internal/imagestore"
	"github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/util"
)

// ProductHandler owns the catalog surface: the public active-only views
// and the per-owner management views. The search index and the image store
// are replicas of the catalog row, synced best-effort.
type ProductHandler struct {
	DB       *gorm.DB
	ES       *elasticsearch.Client
	Images   *imagestore.Store
	Producer Publisher
	Log      *slog.Logger
}

type productRequest struct {
	Name           string            `json:"name"           validate:"required"`
	Description    string            `json:"description"    validate:"required"`
	Price          float64           `json:"price"          validate:"gte=0"`
	OriginalPrice  *float64          `json:"original_price" validate:"omitempty,gte=0"`
	Discount       int               `json:"discount"       validate:"gte=0,lte=100"`
	Image          string            `json:"image"          validate:"required"`
	Images         []string          `json:"images"`
	Category       string            `json:"category"       validate:"required"`
	Brand          string            `json:"brand"          validate:"required"`
	CountInStock   int               `json:"count_in_stock" validate:"gte=0"`
	DeliveryTime   string            `json:"delivery_time"`
	Warranty       string            `json:"warranty"`
	Features       []string          `json:"features"`
	Specifications map[string]string `json:"specifications"`
	Tags           []string          `json:"tags"`
	IsActive       *bool             `json:"is_active"`
}

func (h *ProductHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicProductEvents, key, event); err != nil {
		h.Log.Error("kafka publish", "topic", mykafka.TopicProductEvents, "error", err)
	}
}

func (h *ProductHandler) syncIndex(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := es.IndexProduct(ctx, h.ES, p); err != nil {
		h.Log.Error("product index sync", "product_id", p.ID, "error", err)
	}
}

// ListActive is the public storefront listing: active products only,
// newest first.
func (h *ProductHandler) ListActive(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Product{}).Where("is_active = ?", true).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error").SetInternal(err)
	}

	var items []models.Product
	err := h.DB.Preload("Owner").
		Where("is_active = ?", true).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error").SetInternal(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": items,
		"meta": map[string]interface{}{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *ProductHandler) GetActive(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.Preload("Owner").Where("id = ? AND is_active = ?", id, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, product)
}

// ListAll is the management view over the whole catalog.
func (h *ProductHandler) ListAll(c echo.Context) error {
	var items []models.Product
	if err := h.DB.Order("created_at DESC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, items)
}

// ListMine returns only the caller's own products.
func (h *ProductHandler) ListMine(c echo.Context) error {
	userID := auth.UserID(c)

	var items []models.Product
	if err := h.DB.Where("owner_id = ?", userID).Order("created_at DESC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create makes the caller the product's owner; any authenticated user can
// become a vendor.
func (h *ProductHandler) Create(c echo.Context) error {
	userID := auth.UserID(c)

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	product := models.Product{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		OriginalPrice:  req.OriginalPrice,
		Discount:       req.Discount,
		Image:          req.Image,
		Images:         req.Images,
		Category:       req.Category,
		Brand:          req.Brand,
		CountInStock:   req.CountInStock,
		DeliveryTime:   req.DeliveryTime,
		Warranty:       req.Warranty,
		Features:       req.Features,
		Specifications: req.Specifications,
		Tags:           req.Tags,
		IsActive:       true,
		OwnerID:        userID,
	}
	if product.DeliveryTime == "" {
		product.DeliveryTime = "3-5 days"
	}
	if product.Warranty == "" {
		product.Warranty = "1 year"
	}
	if len(product.Images) == 0 {
		product.Images = []string{product.Image}
	}

	if err := h.DB.Create(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error").SetInternal(err)
	}

	h.syncIndex(c, &product)
	h.publish(c, fmt.Sprint(product.ID), map[string]interface{}{
		"type":      "product_created",
		"productID": product.ID,
		"ownerID":   userID,
		"name":      product.Name,
	})

	return c.JSON(http.StatusCreated, product)
}

// Update mutates a product; only its owner may do so.
func (h *ProductHandler) Update(c echo.Context) error {
	userID := auth.UserID(c)
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "server error").SetInternal(err)
	}
	if product.OwnerID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "only the owner can edit this product")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.OriginalPrice = req.OriginalPrice
	product.Discount = req.Discount
	product.Image = req.Image
	product.Images = req.Images
	product.Category = req.Category
	product.Brand = req.Brand
	product.CountInStock = req.CountInStock
	product.DeliveryTime = req.DeliveryTime
	product.Warranty = req.Warranty
	product.Features = req.Features
	product.Specifications = req.Specifications
	product.Tags = req.Tags
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error").SetInternal(err)
	}

	h.syncIndex(c, &product)
	h.publish(c, fmt.Sprint(product.ID), map[string]interface{}{
		"type":      "product_updated",
		"productID": product.ID,
	})

	return c.JSON(http.StatusOK, product)
}

// Delete hard-deletes the product. Image blobs are cleaned up best-effort
// afterwards; a blob that refuses to die never blocks the deletion.
func (h *ProductHandler) Delete(c echo.Context) error {
	userID := auth.UserID(c)
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "server error").SetInternal(err)
	}
	if product.OwnerID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "only the owner can delete this product")
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error").SetInternal(err)
	}

	if h.Images != nil {
		urls := product.Images
		if len(urls) == 0 && product.Image != "" {
			urls = []string{product.Image}
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
		defer cancel()
		h.Images.DeleteImages(ctx, urls)
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := es.DeleteProduct(ctx, h.ES, product.ID); err != nil {
			h.Log.Error("product index delete", "product_id", product.ID, "error", err)
		}
	}

	h.publish(c, fmt.Sprint(product.ID), map[string]interface{}{
		"type":      "product_deleted",
		"productID": product.ID,
	})

	return c.NoContent(http.StatusNoContent)
}
