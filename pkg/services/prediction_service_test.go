package services

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"car-market-api/pkg/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testForest(t *testing.T) *RandomForest {
	t.Helper()
	ds, err := LoadReferenceDataset(testDatasetPath)
	require.NoError(t, err)
	forest, err := NewModelBootstrap(testDatasetPath, smallForestOptions()).Train(ds)
	require.NoError(t, err)
	return forest
}

type stubRegressor struct {
	price float64
	err   error
}

func (r stubRegressor) Predict([]float64) (float64, error) { return r.price, r.err }

type failingStore struct{}

func (failingStore) Append(context.Context, models.PredictionRecord) error {
	return errors.New("disk full")
}

func TestPredictHondaCity(t *testing.T) {
	db := testDatabase(t)
	store := NewPredictionStore(db)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := NewPredictionService(testCatalog(t), testForest(t), store, WithClock(func() time.Time { return fixed }))

	result, err := svc.Predict(context.Background(), hondaCity())
	require.NoError(t, err)
	assert.Greater(t, result.PredictedPrice, 0.0)
	assert.False(t, math.IsInf(result.PredictedPrice, 0))
	assert.Equal(t, 10, result.ModelTrees)
	assert.Empty(t, result.Degraded)
	assert.Equal(t, "2024-05-01T10:00:00Z", result.GeneratedAt)

	records, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.RecordID, records[0].ID)
	assert.Equal(t, hondaCity(), records[0].Input)
	assert.Equal(t, result.PredictedPrice, records[0].PredictedPrice)
	assert.True(t, fixed.Equal(records[0].CreatedAt))
}

func TestPredictSameInputSamePrice(t *testing.T) {
	svc := NewPredictionService(testCatalog(t), testForest(t), NewPredictionStore(testDatabase(t)))

	a, err := svc.Predict(context.Background(), hondaCity())
	require.NoError(t, err)
	b, err := svc.Predict(context.Background(), hondaCity())
	require.NoError(t, err)
	assert.Equal(t, a.PredictedPrice, b.PredictedPrice)
	assert.NotEqual(t, a.RecordID, b.RecordID)
}

func TestPredictValidationHasNoSideEffects(t *testing.T) {
	store := NewPredictionStore(testDatabase(t))
	svc := NewPredictionService(testCatalog(t), stubRegressor{price: 1}, store)

	tests := []struct {
		name  string
		field string
		edit  func(*models.CarDescription)
	}{
		{"unknown brand", "brand", func(c *models.CarDescription) { c.Brand = "Lada" }},
		{"model of another brand", "model", func(c *models.CarDescription) { c.Model = "Swift" }},
		{"year too old", "year", func(c *models.CarDescription) { c.Year = 1985 }},
		{"year in future", "year", func(c *models.CarDescription) { c.Year = ReferenceYear + 1 }},
		{"negative mileage", "mileage_km", func(c *models.CarDescription) { c.MileageKm = -1 }},
		{"nan mileage", "mileage_km", func(c *models.CarDescription) { c.MileageKm = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			car := hondaCity()
			tt.edit(&car)
			_, err := svc.Predict(context.Background(), car)
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPredictDegradedCategories(t *testing.T) {
	store := NewPredictionStore(testDatabase(t))
	car := hondaCity()
	car.FuelType = "Hydrogen"
	car.Transmission = "automatic"

	lenient := NewPredictionService(testCatalog(t), stubRegressor{price: 500000}, store)
	result, err := lenient.Predict(context.Background(), car)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"transmission", "fuel_type"}, result.Degraded)

	strict := NewPredictionService(testCatalog(t), stubRegressor{price: 500000}, store, WithStrictEncoding(true))
	_, err = strict.Predict(context.Background(), car)
	assert.True(t, IsValidationError(err))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPredictModelFailures(t *testing.T) {
	store := NewPredictionStore(testDatabase(t))

	_, err := NewPredictionService(testCatalog(t), stubRegressor{err: ErrFeatureMismatch}, store).
		Predict(context.Background(), hondaCity())
	assert.ErrorIs(t, err, ErrFeatureMismatch)
	assert.False(t, IsValidationError(err))

	_, err = NewPredictionService(testCatalog(t), stubRegressor{price: math.Inf(1)}, store).
		Predict(context.Background(), hondaCity())
	assert.Error(t, err)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPredictStoreFailure(t *testing.T) {
	svc := NewPredictionService(testCatalog(t), stubRegressor{price: 1}, failingStore{})
	_, err := svc.Predict(context.Background(), hondaCity())
	assert.EqualError(t, err, "disk full")
}

func TestPredictRecordsMetrics(t *testing.T) {
	m := NewMonitoringService()
	svc := NewPredictionService(testCatalog(t), stubRegressor{price: 400000}, NewPredictionStore(testDatabase(t)), WithMetrics(m))

	_, err := svc.Predict(context.Background(), hondaCity())
	require.NoError(t, err)
	car := hondaCity()
	car.Year = 1900
	_, err = svc.Predict(context.Background(), car)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictionsTotal.WithLabelValues("Honda")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictionFailures.WithLabelValues("validation")))
}
