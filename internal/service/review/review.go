package review

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

type Service struct {
	DB  *gorm.DB
	Log *slog.Logger
}

// Aggregates are the product-level derived fields recomputed on every
// review mutation.
type Aggregates struct {
	Rating     float64 `json:"rating"`
	NumReviews int     `json:"num_reviews"`
}

// Upsert creates the (user, product) review or updates it in place;
// a user never gets two reviews on one product. The product's aggregate
// rating and review count are recomputed after the write.
func (s *Service) Upsert(ctx context.Context, userID, productID uint, rating int, comment string) (*models.Review, Aggregates, error) {
	if rating < 1 || rating > 5 {
		return nil, Aggregates{}, fmt.Errorf("rating must be between 1 and 5: %w", service.ErrInvalidInput)
	}
	if comment == "" {
		return nil, Aggregates{}, fmt.Errorf("comment is required: %w", service.ErrInvalidInput)
	}

	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Aggregates{}, fmt.Errorf("product %d: %w", productID, service.ErrNotFound)
		}
		return nil, Aggregates{}, fmt.Errorf("load product: %w", err)
	}

	var review models.Review
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&review).Error
	switch {
	case err == nil:
		review.Rating = rating
		review.Comment = comment
		if err := s.DB.WithContext(ctx).Save(&review).Error; err != nil {
			return nil, Aggregates{}, fmt.Errorf("update review: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = models.Review{
			UserID:    userID,
			ProductID: productID,
			Rating:    rating,
			Comment:   comment,
		}
		if err := s.DB.WithContext(ctx).Create(&review).Error; err != nil {
			return nil, Aggregates{}, fmt.Errorf("create review: %w", err)
		}
	default:
		return nil, Aggregates{}, fmt.Errorf("load review: %w", err)
	}

	agg, err := s.recomputeProduct(ctx, productID)
	if err != nil {
		return nil, Aggregates{}, err
	}
	return &review, agg, nil
}

// Delete removes the review; only its author may do so. Aggregates are
// recomputed afterwards, resetting to 0/0 when no reviews remain.
func (s *Service) Delete(ctx context.Context, reviewID, requesterID uint) (Aggregates, error) {
	var review models.Review
	if err := s.DB.WithContext(ctx).First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Aggregates{}, fmt.Errorf("review %d: %w", reviewID, service.ErrNotFound)
		}
		return Aggregates{}, fmt.Errorf("load review: %w", err)
	}
	if review.UserID != requesterID {
		return Aggregates{}, fmt.Errorf("review %d belongs to another user: %w", reviewID, service.ErrForbidden)
	}

	if err := s.DB.WithContext(ctx).Delete(&review).Error; err != nil {
		return Aggregates{}, fmt.Errorf("delete review: %w", err)
	}

	return s.recomputeProduct(ctx, review.ProductID)
}

// ListForProduct returns a product's reviews, newest first.
func (s *Service) ListForProduct(ctx context.Context, productID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.DB.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// ForUser returns the caller's own review of the product, or ErrNotFound.
func (s *Service) ForUser(ctx context.Context, userID, productID uint) (*models.Review, error) {
	var review models.Review
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review: %w", service.ErrNotFound)
		}
		return nil, fmt.Errorf("load review: %w", err)
	}
	return &review, nil
}

func (s *Service) recomputeProduct(ctx context.Context, productID uint) (Aggregates, error) {
	var ratings []int
	err := s.DB.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ?", productID).
		Order("id ASC").
		Pluck("rating", &ratings).Error
	if err != nil {
		return Aggregates{}, fmt.Errorf("load ratings: %w", err)
	}

	agg := Aggregates{
		Rating:     pricing.AverageRating(ratings),
		NumReviews: len(ratings),
	}
	if err := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"rating":      agg.Rating,
			"num_reviews": agg.NumReviews,
		}).Error; err != nil {
		return Aggregates{}, fmt.Errorf("update product aggregates: %w", err)
	}
	return agg, nil
}
