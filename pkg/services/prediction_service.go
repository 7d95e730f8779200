package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"car-market-api/pkg/models"

	"github.com/google/uuid"
)

// 予測フォームで受け付ける年式の下限
const minModelYear = 1990

// Regressor 特徴量ベクトルから価格を返すモデル
type Regressor interface {
	Predict(features []float64) (float64, error)
}

// PredictionService 検証 → エンコード → 予測 → 履歴保存 を行う
type PredictionService struct {
	catalog *CatalogService
	encoder *FeatureEncoder
	model   Regressor
	store   RecordStore
	metrics *MonitoringService
	strict  bool
	trees   int
	now     func() time.Time
}

// PredictionOption PredictionService の任意設定
type PredictionOption func(*PredictionService)

// WithStrictEncoding rejects inputs whose categorical values would encode as zero.
func WithStrictEncoding(strict bool) PredictionOption {
	return func(s *PredictionService) { s.strict = strict }
}

// WithMetrics 予測メトリクスの記録先を設定
func WithMetrics(m *MonitoringService) PredictionOption {
	return func(s *PredictionService) { s.metrics = m }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) PredictionOption {
	return func(s *PredictionService) { s.now = now }
}

// NewPredictionService 新しい価格予測サービスを作成。モデルとカタログは起動時に読み込んだものを渡す。
func NewPredictionService(catalog *CatalogService, model Regressor, store RecordStore, opts ...PredictionOption) *PredictionService {
	s := &PredictionService{
		catalog: catalog,
		encoder: NewFeatureEncoder(),
		model:   model,
		store:   store,
		now:     time.Now,
	}
	if f, ok := model.(*RandomForest); ok {
		s.trees = len(f.Trees)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict estimates the resale price of car and appends one PredictionRecord.
// Validation failures return a *ValidationError and have no side effects.
func (s *PredictionService) Predict(ctx context.Context, car models.CarDescription) (*models.PredictionResult, error) {
	if err := s.Validate(car); err != nil {
		s.metrics.RecordPredictionFailure("validation")
		return nil, err
	}

	degraded := s.encoder.Unrecognized(car)
	if len(degraded) > 0 {
		if s.strict {
			s.metrics.RecordPredictionFailure("validation")
			return nil, &ValidationError{Field: strings.Join(degraded, ","), Message: "未対応のカテゴリ値です"}
		}
		log.Printf("⚠️ [predict] 未知のカテゴリを0としてエンコードしました: %v (brand=%s model=%s)", degraded, car.Brand, car.Model)
	}

	features := s.encoder.Encode(car)
	price, err := s.model.Predict(features)
	if err != nil {
		s.metrics.RecordPredictionFailure("model")
		return nil, fmt.Errorf("価格予測に失敗: %w", err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		s.metrics.RecordPredictionFailure("model")
		return nil, fmt.Errorf("価格予測に失敗: non-finite result %v", price)
	}

	rec := models.PredictionRecord{
		ID:             uuid.NewString(),
		Input:          car,
		PredictedPrice: price,
		CreatedAt:      s.now(),
	}
	if err := s.store.Append(ctx, rec); err != nil {
		s.metrics.RecordPredictionFailure("store")
		return nil, err
	}
	s.metrics.RecordPrediction(car.Brand, price)

	return &models.PredictionResult{
		RecordID:       rec.ID,
		PredictedPrice: price,
		Input:          car,
		Degraded:       degraded,
		ModelTrees:     s.trees,
		GeneratedAt:    rec.CreatedAt.Format(time.RFC3339),
	}, nil
}

// Validate checks the request the same way the prediction form does.
func (s *PredictionService) Validate(car models.CarDescription) error {
	if car.Year < minModelYear || car.Year > ReferenceYear {
		return &ValidationError{Field: "year", Message: fmt.Sprintf("年式は%dから%dの範囲で指定してください", minModelYear, ReferenceYear)}
	}
	if car.MileageKm < 0 || math.IsNaN(car.MileageKm) || math.IsInf(car.MileageKm, 0) {
		return &ValidationError{Field: "mileage_km", Message: "走行距離は0以上で指定してください"}
	}
	return s.catalog.ValidateCar(car)
}
