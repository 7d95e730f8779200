package models

import "time"

// 変速機
const (
	TransmissionManual    = "Manual"
	TransmissionAutomatic = "Automatic"
)

// 所有者ランク
const (
	OwnerFirst  = "first"
	OwnerSecond = "second"
	OwnerThird  = "third"
	OwnerFourth = "fourth"
)

// 燃料種別
const (
	FuelPetrol   = "Petrol"
	FuelDiesel   = "Diesel"
	FuelCNG      = "CNG"
	FuelElectric = "Electric"
)

// CarDescription 価格予測・出品に使う車両の属性
type CarDescription struct {
	Brand        string  `json:"brand" binding:"required"`
	Model        string  `json:"model" binding:"required"`
	Year         int     `json:"year" binding:"required"`
	MileageKm    float64 `json:"mileage_km"`
	Transmission string  `json:"transmission"`
	OwnerRank    string  `json:"owner_rank"`
	FuelType     string  `json:"fuel_type"`
}

// PredictionRecord 予測結果の監査ログ。作成後は変更しない。
type PredictionRecord struct {
	ID             string         `json:"id"`
	Input          CarDescription `json:"input"`
	PredictedPrice float64        `json:"predicted_price"`
	CreatedAt      time.Time      `json:"created_at"`
}

// PredictionResult 予測APIのレスポンス
type PredictionResult struct {
	RecordID       string         `json:"record_id"`
	PredictedPrice float64        `json:"predicted_price"`
	Input          CarDescription `json:"input"`
	Degraded       []string       `json:"degraded_fields,omitempty"` // 0 に丸められたカテゴリ
	ModelTrees     int            `json:"model_trees"`
	GeneratedAt    string         `json:"generated_at"`
}

// CarListing 出品情報
type CarListing struct {
	ID           int64     `json:"id"`
	SellerID     string    `json:"seller_id" binding:"required"`
	Brand        string    `json:"brand" binding:"required"`
	Model        string    `json:"model" binding:"required"`
	Year         int       `json:"year" binding:"required"`
	MileageKm    float64   `json:"mileage_km"`
	Transmission string    `json:"transmission"`
	OwnerRank    string    `json:"owner_rank"`
	FuelType     string    `json:"fuel_type"`
	Price        float64   `json:"price" binding:"required"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	IsSold       bool      `json:"is_sold"`
	CreatedAt    time.Time `json:"created_at"`
}

// Car returns the vehicle attributes of the listing.
func (l CarListing) Car() CarDescription {
	return CarDescription{
		Brand:        l.Brand,
		Model:        l.Model,
		Year:         l.Year,
		MileageKm:    l.MileageKm,
		Transmission: l.Transmission,
		OwnerRank:    l.OwnerRank,
		FuelType:     l.FuelType,
	}
}

// MarkSoldRequest 売却済み更新リクエスト
type MarkSoldRequest struct {
	SellerID string `json:"seller_id" binding:"required"`
}
