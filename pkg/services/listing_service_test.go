package services

import (
	"context"
	"testing"
	"time"

	"car-market-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testListingService(t *testing.T) *ListingService {
	t.Helper()
	s := NewListingService(testDatabase(t), testCatalog(t))
	s.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func sampleListing(seller string) models.CarListing {
	return models.CarListing{
		SellerID:     seller,
		Brand:        "Hyundai",
		Model:        "Creta",
		Year:         2020,
		MileageKm:    32000,
		Transmission: models.TransmissionAutomatic,
		OwnerRank:    "First",
		FuelType:     models.FuelDiesel,
		Price:        1380000,
		Description:  "single owner",
	}
}

func TestListingCreateAndGet(t *testing.T) {
	s := testListingService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, sampleListing("seller-1"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, models.OwnerFirst, created.OwnerRank)
	assert.False(t, created.IsSold)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.SellerID, got.SellerID)
	assert.Equal(t, created.Price, got.Price)
	assert.Equal(t, "single owner", got.Description)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestListingCreateValidation(t *testing.T) {
	s := testListingService(t)

	tests := []struct {
		name  string
		field string
		edit  func(*models.CarListing)
	}{
		{"missing seller", "seller_id", func(l *models.CarListing) { l.SellerID = " " }},
		{"bad year", "year", func(l *models.CarListing) { l.Year = 2030 }},
		{"negative mileage", "mileage_km", func(l *models.CarListing) { l.MileageKm = -5 }},
		{"zero price", "price", func(l *models.CarListing) { l.Price = 0 }},
		{"bad transmission", "transmission", func(l *models.CarListing) { l.Transmission = "CVT" }},
		{"bad owner", "owner_rank", func(l *models.CarListing) { l.OwnerRank = "tenth" }},
		{"unknown model", "model", func(l *models.CarListing) { l.Model = "City" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := sampleListing("seller-1")
			tt.edit(&l)
			_, err := s.Create(context.Background(), l)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestListingMarkSold(t *testing.T) {
	s := testListingService(t)
	ctx := context.Background()

	a, err := s.Create(ctx, sampleListing("seller-1"))
	require.NoError(t, err)
	b, err := s.Create(ctx, sampleListing("seller-2"))
	require.NoError(t, err)

	_, err = s.MarkSold(ctx, a.ID, "seller-2")
	assert.ErrorIs(t, err, ErrNotOwner)

	sold, err := s.MarkSold(ctx, a.ID, "seller-1")
	require.NoError(t, err)
	assert.True(t, sold.IsSold)

	available, err := s.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, b.ID, available[0].ID)

	mine, err := s.ListBySeller(ctx, "seller-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].IsSold)
}

func TestListingNotFound(t *testing.T) {
	s := testListingService(t)
	_, err := s.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrListingNotFound)

	_, err = s.MarkSold(context.Background(), 999, "seller-1")
	assert.ErrorIs(t, err, ErrListingNotFound)

	empty, err := s.ListBySeller(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
