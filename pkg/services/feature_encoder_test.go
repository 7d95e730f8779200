package services

import (
	"testing"

	"car-market-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hondaCity() models.CarDescription {
	return models.CarDescription{
		Brand:        "Honda",
		Model:        "City",
		Year:         2018,
		MileageKm:    40000,
		Transmission: models.TransmissionAutomatic,
		OwnerRank:    models.OwnerFirst,
		FuelType:     models.FuelPetrol,
	}
}

func brandSegment(v FeatureVector) []float64 {
	return v[leadingFeatureCount : len(v)-trailingFeatureCount]
}

func TestFeatureNamesLayout(t *testing.T) {
	names := FeatureNames()
	require.Len(t, names, 4+models.BrandCount()+1)
	assert.Equal(t, FeatureWidth(), len(names))
	assert.Equal(t, []string{"Age", "kmDriven", "Transmission", "FuelType"}, names[:4])
	assert.Equal(t, "Brand_Ashok", names[4])
	assert.Equal(t, "Brand_Volvo", names[len(names)-2])
	assert.Equal(t, "Owner_second", names[len(names)-1])
	assert.Equal(t, 42, models.BrandCount())
}

func TestEncodeKnownBrands(t *testing.T) {
	enc := NewFeatureEncoder()
	for i, brand := range models.KnownBrands() {
		car := hondaCity()
		car.Brand = brand
		v := enc.Encode(car)

		require.Len(t, v, 4+models.BrandCount()+1, brand)
		ones := 0
		for _, x := range brandSegment(v) {
			if x == 1 {
				ones++
			}
		}
		assert.Equal(t, 1, ones, brand)
		assert.Equal(t, 1.0, v[leadingFeatureCount+i], brand)
	}
}

func TestEncodeHondaCity(t *testing.T) {
	v := NewFeatureEncoder().Encode(hondaCity())

	assert.Equal(t, 6.0, v[0])
	assert.Equal(t, 40000.0, v[1])
	assert.Equal(t, 1.0, v[2])
	assert.Equal(t, 0.0, v[3])
	assert.Equal(t, 1.0, v[leadingFeatureCount+models.BrandIndex("Honda")])
	assert.Equal(t, 0.0, v[len(v)-1])
}

func TestEncodeAge(t *testing.T) {
	car := hondaCity()
	car.Year = 2020
	v := NewFeatureEncoder().Encode(car)
	assert.Equal(t, 4.0, v[0])
}

func TestEncodeDeterministic(t *testing.T) {
	enc := NewFeatureEncoder()
	car := hondaCity()
	first := enc.Encode(car)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, enc.Encode(car))
	}
}

func TestTransmissionFlag(t *testing.T) {
	testCases := []struct {
		in   string
		want float64
	}{
		{"Automatic", 1},
		{"Manual", 0},
		{"automatic", 0},
		{"CVT", 0},
		{"", 0},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, transmissionFlag(tc.in), tc.in)
	}
}

func TestFuelTypeCode(t *testing.T) {
	testCases := []struct {
		in   string
		want float64
	}{
		{"Petrol", 0},
		{"Diesel", 1},
		{"CNG", 2},
		{"Electric", 2},
		{"Hydrogen", 2},
		{"", 2},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, fuelTypeCode(tc.in), tc.in)
	}
}

func TestOwnerSecondFlag(t *testing.T) {
	testCases := []struct {
		in   string
		want float64
	}{
		{"second", 1},
		{"Second", 1},
		{"first", 0},
		{"third", 0},
		{"fourth", 0},
		{"Fourth & Above", 0},
		{"", 0},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, ownerSecondFlag(tc.in), tc.in)
	}
}

func TestEncodeUnknownBrand(t *testing.T) {
	enc := NewFeatureEncoder()
	car := hondaCity()
	car.Brand = "NotARealBrand"

	var v FeatureVector
	assert.NotPanics(t, func() { v = enc.Encode(car) })
	require.Len(t, v, FeatureWidth())
	for _, x := range brandSegment(v) {
		assert.Equal(t, 0.0, x)
	}
	assert.Equal(t, []string{"brand"}, enc.Unrecognized(car))
}

func TestUnrecognized(t *testing.T) {
	enc := NewFeatureEncoder()
	assert.Empty(t, enc.Unrecognized(hondaCity()))

	car := models.CarDescription{Brand: "Honda", Model: "City", Year: 2018, Transmission: "CVT", OwnerRank: "fifth", FuelType: "Hydrogen"}
	assert.Equal(t, []string{"transmission", "fuel_type", "owner_rank"}, enc.Unrecognized(car))
}

func TestNormalizeOwnerRank(t *testing.T) {
	assert.Equal(t, "first", NormalizeOwnerRank("First"))
	assert.Equal(t, "second", NormalizeOwnerRank(" second "))
	assert.Equal(t, "fourth", NormalizeOwnerRank("Fourth & Above"))
	assert.Equal(t, "", NormalizeOwnerRank("fifth"))
}
