package services

import (
	"strings"

	"car-market-api/pkg/models"
)

// ReferenceYear 学習時に車齢の基準とした年。壁時計は使わない。
const ReferenceYear = 2024

// 数値・カテゴリ列の数（ブランド one-hot の前に 4 列、後に 1 列）
const (
	leadingFeatureCount  = 4
	trailingFeatureCount = 1
)

// FeatureVector 回帰モデルへの入力。列の並びは FeatureNames と一致する。
type FeatureVector []float64

// FeatureWidth returns the length of every encoded vector.
func FeatureWidth() int {
	return leadingFeatureCount + models.BrandCount() + trailingFeatureCount
}

// FeatureNames returns the column names in the order the model was trained with.
func FeatureNames() []string {
	names := make([]string, 0, FeatureWidth())
	names = append(names, "Age", "kmDriven", "Transmission", "FuelType")
	for _, b := range models.KnownBrands() {
		names = append(names, "Brand_"+b)
	}
	names = append(names, "Owner_second")
	return names
}

// FeatureEncoder 車両属性を学習時と同じ特徴量ベクトルへ変換する
type FeatureEncoder struct{}

// NewFeatureEncoder 新しいエンコーダーを作成
func NewFeatureEncoder() *FeatureEncoder {
	return &FeatureEncoder{}
}

// Encode maps a car description to its feature vector. It never fails: unknown
// categorical values encode as zero.
func (e *FeatureEncoder) Encode(car models.CarDescription) FeatureVector {
	v := make(FeatureVector, FeatureWidth())
	v[0] = carAge(car.Year)
	v[1] = car.MileageKm
	v[2] = transmissionFlag(car.Transmission)
	v[3] = fuelTypeCode(car.FuelType)
	if i := models.BrandIndex(car.Brand); i >= 0 {
		v[leadingFeatureCount+i] = 1
	}
	v[len(v)-1] = ownerSecondFlag(car.OwnerRank)
	return v
}

// Unrecognized lists the categorical fields of car that Encode silently degraded.
func (e *FeatureEncoder) Unrecognized(car models.CarDescription) []string {
	var fields []string
	if models.BrandIndex(car.Brand) < 0 {
		fields = append(fields, "brand")
	}
	if car.Transmission != models.TransmissionAutomatic && car.Transmission != models.TransmissionManual {
		fields = append(fields, "transmission")
	}
	switch car.FuelType {
	case models.FuelPetrol, models.FuelDiesel, models.FuelCNG, models.FuelElectric:
	default:
		fields = append(fields, "fuel_type")
	}
	if NormalizeOwnerRank(car.OwnerRank) == "" {
		fields = append(fields, "owner_rank")
	}
	return fields
}

func carAge(year int) float64 {
	return float64(ReferenceYear - year)
}

// transmissionFlag 1 = Automatic, それ以外はすべて 0
func transmissionFlag(transmission string) float64 {
	if transmission == models.TransmissionAutomatic {
		return 1
	}
	return 0
}

// fuelTypeCode 序数エンコーディング: Petrol=0, Diesel=1, その他=2
func fuelTypeCode(fuel string) float64 {
	switch fuel {
	case models.FuelPetrol:
		return 0
	case models.FuelDiesel:
		return 1
	default:
		return 2
	}
}

// ownerSecondFlag 学習データに残った所有者列は Owner_second のみ。
// first / third / fourth はすべて 0 になる。
func ownerSecondFlag(owner string) float64 {
	if NormalizeOwnerRank(owner) == models.OwnerSecond {
		return 1
	}
	return 0
}

// NormalizeOwnerRank maps form spellings ("Second", "Fourth & Above") to the
// canonical ranks. Unknown values return "".
func NormalizeOwnerRank(owner string) string {
	o := strings.ToLower(strings.TrimSpace(owner))
	switch {
	case o == models.OwnerFirst, o == models.OwnerSecond, o == models.OwnerThird:
		return o
	case strings.HasPrefix(o, models.OwnerFourth):
		return models.OwnerFourth
	}
	return ""
}
