package review

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/service"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return &Service{DB: db, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func seedProduct(t *testing.T, db *gorm.DB) *models.Product {
	t.Helper()
	p := models.Product{
		Name: "Keyboard", Description: "d", Price: 120, Image: "img.jpg",
		Category: "c", Brand: "b", CountInStock: 10, IsActive: true, OwnerID: 99,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func productAggregates(t *testing.T, db *gorm.DB, id uint) (float64, int) {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Rating, p.NumReviews
}

func TestUpsertRecomputesAggregates(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB)

	_, agg, err := s.Upsert(ctx, 1, p.ID, 4, "good")
	require.NoError(t, err)
	require.Equal(t, 4.0, agg.Rating)
	require.Equal(t, 1, agg.NumReviews)

	_, agg, err = s.Upsert(ctx, 2, p.ID, 5, "great")
	require.NoError(t, err)
	require.Equal(t, 4.5, agg.Rating)
	require.Equal(t, 2, agg.NumReviews)

	rating, num := productAggregates(t, s.DB, p.ID)
	require.Equal(t, 4.5, rating)
	require.Equal(t, 2, num)
}

func TestUpsertUpdatesInPlace(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB)

	first, _, err := s.Upsert(ctx, 1, p.ID, 2, "meh")
	require.NoError(t, err)

	second, agg, err := s.Upsert(ctx, 1, p.ID, 5, "grew on me")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 5.0, agg.Rating)
	require.Equal(t, 1, agg.NumReviews)

	var count int64
	require.NoError(t, s.DB.Model(&models.Review{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestUpsertValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB)

	_, _, err := s.Upsert(ctx, 1, p.ID, 0, "x")
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, _, err = s.Upsert(ctx, 1, p.ID, 6, "x")
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, _, err = s.Upsert(ctx, 1, p.ID, 3, "")
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, _, err = s.Upsert(ctx, 1, 404, 3, "x")
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteRecomputesAggregates(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB)

	_, _, err := s.Upsert(ctx, 1, p.ID, 4, "good")
	require.NoError(t, err)
	second, _, err := s.Upsert(ctx, 2, p.ID, 5, "great")
	require.NoError(t, err)

	agg, err := s.Delete(ctx, second.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 4.0, agg.Rating)
	require.Equal(t, 1, agg.NumReviews)
}

func TestDeleteLastReviewResetsAggregates(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB)

	only, _, err := s.Upsert(ctx, 1, p.ID, 5, "great")
	require.NoError(t, err)

	agg, err := s.Delete(ctx, only.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 0.0, agg.Rating)
	require.Equal(t, 0, agg.NumReviews)

	rating, num := productAggregates(t, s.DB, p.ID)
	require.Equal(t, 0.0, rating)
	require.Equal(t, 0, num)
}

func TestDeleteAuthorOnly(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB)

	review, _, err := s.Upsert(ctx, 1, p.ID, 5, "great")
	require.NoError(t, err)

	_, err = s.Delete(ctx, review.ID, 2)
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = s.Delete(ctx, 404, 1)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestForUser(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, s.DB)

	_, _, err := s.Upsert(ctx, 1, p.ID, 4, "good")
	require.NoError(t, err)

	mine, err := s.ForUser(ctx, 1, p.ID)
	require.NoError(t, err)
	require.Equal(t, 4, mine.Rating)

	_, err = s.ForUser(ctx, 2, p.ID)
	require.ErrorIs(t, err, service.ErrNotFound)
}
