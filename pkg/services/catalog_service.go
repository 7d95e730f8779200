package services

import (
	"log"
	"sort"

	"car-market-api/pkg/models"
)

// CatalogService ブランドと車種の参照データ。起動時に一度だけ構築し、以降は読み取り専用。
type CatalogService struct {
	brands        []string
	modelsByBrand map[string][]string
	modelSets     map[string]map[string]struct{}
}

// NewCatalogService builds the catalog from the reference dataset.
func NewCatalogService(ds *ReferenceDataset) *CatalogService {
	sets := make(map[string]map[string]struct{})
	for _, r := range ds.Rows {
		set, ok := sets[r.Brand]
		if !ok {
			set = make(map[string]struct{})
			sets[r.Brand] = set
		}
		set[r.Model] = struct{}{}
	}

	c := &CatalogService{
		brands:        make([]string, 0, len(sets)),
		modelsByBrand: make(map[string][]string, len(sets)),
		modelSets:     sets,
	}
	var unencoded []string
	for brand, set := range sets {
		c.brands = append(c.brands, brand)
		list := make([]string, 0, len(set))
		for m := range set {
			list = append(list, m)
		}
		sort.Strings(list)
		c.modelsByBrand[brand] = list
		if models.BrandIndex(brand) < 0 {
			unencoded = append(unencoded, brand)
		}
	}
	sort.Strings(c.brands)

	if len(unencoded) > 0 {
		sort.Strings(unencoded)
		log.Printf("⚠️ [catalog] モデルの列挙にないブランドがあります（one-hot は全て0）: %v", unencoded)
	}
	return c
}

// Brands returns the sorted brands present in the dataset.
func (c *CatalogService) Brands() []string {
	out := make([]string, len(c.brands))
	copy(out, c.brands)
	return out
}

// ModelsForBrand returns the sorted, deduplicated models of brand.
// Unknown brands yield an empty slice.
func (c *CatalogService) ModelsForBrand(brand string) []string {
	list := c.modelsByBrand[brand]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// HasBrand ブランドがカタログに存在するか
func (c *CatalogService) HasBrand(brand string) bool {
	_, ok := c.modelSets[brand]
	return ok
}

// IsValidModel reports whether model belongs to brand.
func (c *CatalogService) IsValidModel(brand, model string) bool {
	_, ok := c.modelSets[brand][model]
	return ok
}

// ValidateCar checks the brand/model pair against the catalog.
func (c *CatalogService) ValidateCar(car models.CarDescription) error {
	if !c.HasBrand(car.Brand) {
		return &ValidationError{Field: "brand", Message: "不明なブランドです: " + car.Brand}
	}
	if !c.IsValidModel(car.Brand, car.Model) {
		return &ValidationError{Field: "model", Message: "このブランドに対して有効な車種を選択してください"}
	}
	return nil
}
