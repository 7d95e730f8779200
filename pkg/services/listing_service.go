package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"car-market-api/pkg/models"
)

// ListingService 出品情報の登録・参照・売却済み更新
type ListingService struct {
	db      *Database
	catalog *CatalogService
	now     func() time.Time
}

// NewListingService 新しい出品サービスを作成
func NewListingService(db *Database, catalog *CatalogService) *ListingService {
	return &ListingService{db: db, catalog: catalog, now: time.Now}
}

const listingColumns = `id, seller_id, brand, model, year, mileage, transmission, owner, fuel_type,
	price, description, image_url, is_sold, created_at`

// Create validates and stores a new listing; the stored row is returned.
func (s *ListingService) Create(ctx context.Context, l models.CarListing) (*models.CarListing, error) {
	if err := s.validate(l); err != nil {
		return nil, err
	}
	l.OwnerRank = NormalizeOwnerRank(l.OwnerRank)
	l.IsSold = false
	l.CreatedAt = s.now().UTC()

	res, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO car_listings
			(seller_id, brand, model, year, mileage, transmission, owner, fuel_type, price, description, image_url, is_sold, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		l.SellerID, l.Brand, l.Model, l.Year, l.MileageKm, l.Transmission, l.OwnerRank, l.FuelType,
		l.Price, l.Description, l.ImageURL, l.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("出品の保存に失敗: %w", err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *ListingService) validate(l models.CarListing) error {
	if strings.TrimSpace(l.SellerID) == "" {
		return &ValidationError{Field: "seller_id", Message: "出品者IDは必須です"}
	}
	if l.Year < minModelYear || l.Year > s.now().Year()+1 {
		return &ValidationError{Field: "year", Message: "年式が不正です"}
	}
	if l.MileageKm < 0 {
		return &ValidationError{Field: "mileage_km", Message: "走行距離は0以上で指定してください"}
	}
	if l.Price <= 0 {
		return &ValidationError{Field: "price", Message: "価格は0より大きい値を指定してください"}
	}
	if l.Transmission != models.TransmissionManual && l.Transmission != models.TransmissionAutomatic {
		return &ValidationError{Field: "transmission", Message: "Manual または Automatic を指定してください"}
	}
	if NormalizeOwnerRank(l.OwnerRank) == "" {
		return &ValidationError{Field: "owner_rank", Message: "first / second / third / fourth のいずれかを指定してください"}
	}
	return s.catalog.ValidateCar(l.Car())
}

// Get 出品を1件取得
func (s *ListingService) Get(ctx context.Context, id int64) (*models.CarListing, error) {
	row := s.db.Conn().QueryRowContext(ctx, `SELECT `+listingColumns+` FROM car_listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	return l, err
}

// ListAvailable returns unsold listings, newest first.
func (s *ListingService) ListAvailable(ctx context.Context) ([]models.CarListing, error) {
	return s.query(ctx, `SELECT `+listingColumns+` FROM car_listings WHERE is_sold = 0 ORDER BY created_at DESC, id DESC`)
}

// ListBySeller returns every listing of a seller, sold or not.
func (s *ListingService) ListBySeller(ctx context.Context, sellerID string) ([]models.CarListing, error) {
	return s.query(ctx, `SELECT `+listingColumns+` FROM car_listings WHERE seller_id = ? ORDER BY created_at DESC, id DESC`, sellerID)
}

// MarkSold flags the listing as sold. Only the owning seller may do so.
func (s *ListingService) MarkSold(ctx context.Context, id int64, sellerID string) (*models.CarListing, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.SellerID != sellerID {
		return nil, ErrNotOwner
	}
	if _, err := s.db.Conn().ExecContext(ctx, `UPDATE car_listings SET is_sold = 1 WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("出品の更新に失敗: %w", err)
	}
	l.IsSold = true
	return l, nil
}

func (s *ListingService) query(ctx context.Context, q string, args ...interface{}) ([]models.CarListing, error) {
	rows, err := s.db.Conn().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("出品の取得に失敗: %w", err)
	}
	defer rows.Close()

	listings := make([]models.CarListing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(r rowScanner) (*models.CarListing, error) {
	var l models.CarListing
	var sold int
	if err := r.Scan(
		&l.ID, &l.SellerID, &l.Brand, &l.Model, &l.Year, &l.MileageKm, &l.Transmission, &l.OwnerRank,
		&l.FuelType, &l.Price, &l.Description, &l.ImageURL, &sold, &l.CreatedAt,
	); err != nil {
		return nil, err
	}
	l.IsSold = sold != 0
	return &l, nil
}
