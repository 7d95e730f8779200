package services

import (
	"context"
	"fmt"
	"time"

	"car-market-api/pkg/models"
)

// RecordStore 予測履歴の追記先
type RecordStore interface {
	Append(ctx context.Context, rec models.PredictionRecord) error
}

// PredictionStore SQLite に予測履歴を追記する。読み出しは監査・履歴表示専用。
type PredictionStore struct {
	db *Database
}

// NewPredictionStore 新しい予測履歴ストアを作成
func NewPredictionStore(db *Database) *PredictionStore {
	return &PredictionStore{db: db}
}

// Append inserts one immutable record.
func (s *PredictionStore) Append(ctx context.Context, rec models.PredictionRecord) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO price_predictions
			(id, brand, model, year, mileage, transmission, owner, fuel_type, predicted_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Input.Brand, rec.Input.Model, rec.Input.Year, rec.Input.MileageKm,
		rec.Input.Transmission, rec.Input.OwnerRank, rec.Input.FuelType,
		rec.PredictedPrice, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("予測履歴の保存に失敗: %w", err)
	}
	return nil
}

// Recent returns the newest records first.
func (s *PredictionStore) Recent(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, brand, model, year, mileage, transmission, owner, fuel_type, predicted_price, created_at
		FROM price_predictions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("予測履歴の取得に失敗: %w", err)
	}
	defer rows.Close()

	records := make([]models.PredictionRecord, 0)
	for rows.Next() {
		var rec models.PredictionRecord
		var createdAt time.Time
		if err := rows.Scan(
			&rec.ID, &rec.Input.Brand, &rec.Input.Model, &rec.Input.Year, &rec.Input.MileageKm,
			&rec.Input.Transmission, &rec.Input.OwnerRank, &rec.Input.FuelType,
			&rec.PredictedPrice, &createdAt,
		); err != nil {
			return nil, err
		}
		rec.CreatedAt = createdAt
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count 保存済みの予測件数
func (s *PredictionStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM price_predictions`).Scan(&n)
	return n, err
}
