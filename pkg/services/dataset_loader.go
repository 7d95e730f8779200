package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrDatasetEmpty データ行が1行もない
var ErrDatasetEmpty = errors.New("dataset: no valid rows")

// DatasetRow リファレンスデータセットの1行
type DatasetRow struct {
	Brand        string
	Model        string
	Year         int
	Age          float64
	HasAge       bool
	KmDriven     float64
	Price        float64
	Transmission string
	Owner        string
	FuelType     string
}

// ReferenceDataset 学習・カタログ用の中古車データ
type ReferenceDataset struct {
	Source string
	Rows   []DatasetRow
}

// datasetColumns accepted header spellings per column, compared lowercased.
var datasetColumns = map[string][]string{
	"brand":        {"brand", "make", "メーカー"},
	"model":        {"model", "車種"},
	"year":         {"year", "年式"},
	"age":          {"age", "車齢"},
	"km":           {"kmdriven", "km_driven", "mileage", "走行距離"},
	"price":        {"price", "askprice", "価格"},
	"transmission": {"transmission", "変速機"},
	"owner":        {"owner", "所有者"},
	"fuel":         {"fueltype", "fuel_type", "fuel", "燃料"},
}

// LoadReferenceDataset reads a CSV or XLSX reference dataset from path.
func LoadReferenceDataset(path string) (*ReferenceDataset, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("Excelファイルの読み込みに失敗: %w", err)
		}
		defer f.Close()
		rows, err = f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("Excelシートの行取得に失敗: %w", err)
		}
	case ".csv", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("CSVファイルを開けません: %w", err)
		}
		defer f.Close()
		rows, err = readCSVRows(f)
		if err != nil {
			return nil, fmt.Errorf("CSVファイルの解析に失敗: %w", err)
		}
	default:
		return nil, fmt.Errorf("サポートされていないファイル形式です: %s", path)
	}

	ds, err := parseDatasetRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ds.Source = path
	return ds, nil
}

// ParseDatasetCSV parses CSV content already held in memory.
func ParseDatasetCSV(r io.Reader) (*ReferenceDataset, error) {
	rows, err := readCSVRows(r)
	if err != nil {
		return nil, err
	}
	return parseDatasetRows(rows)
}

func readCSVRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

func parseDatasetRows(rows [][]string) (*ReferenceDataset, error) {
	if len(rows) < 2 {
		return nil, ErrDatasetEmpty
	}

	header := normalizeHeader(rows[0])
	idx := make(map[string]int, len(datasetColumns))
	for key, names := range datasetColumns {
		idx[key] = columnIndex(header, names)
	}

	var missing []string
	for _, key := range []string{"brand", "model", "km", "price"} {
		if idx[key] == -1 {
			missing = append(missing, key)
		}
	}
	if idx["year"] == -1 && idx["age"] == -1 {
		missing = append(missing, "year|age")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("dataset: required columns not found: %s", strings.Join(missing, ", "))
	}

	ds := &ReferenceDataset{Rows: make([]DatasetRow, 0, len(rows)-1)}
	skipped := 0
	for _, row := range rows[1:] {
		r, ok := parseDatasetRow(row, idx)
		if !ok {
			skipped++
			continue
		}
		ds.Rows = append(ds.Rows, r)
	}
	if skipped > 0 {
		log.Printf("⚠️ [dataset] 不正な行を %d 件スキップしました", skipped)
	}
	if len(ds.Rows) == 0 {
		return nil, ErrDatasetEmpty
	}
	return ds, nil
}

func parseDatasetRow(row []string, idx map[string]int) (DatasetRow, bool) {
	cell := func(key string) string {
		i := idx[key]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	r := DatasetRow{
		Brand:        cell("brand"),
		Model:        cell("model"),
		Transmission: cell("transmission"),
		Owner:        cell("owner"),
		FuelType:     cell("fuel"),
	}
	if r.Brand == "" || r.Model == "" {
		return r, false
	}

	var ok bool
	if r.KmDriven, ok = parseNumber(cell("km")); !ok {
		return r, false
	}
	if r.Price, ok = parseNumber(cell("price")); !ok {
		return r, false
	}

	year, hasYear := parseNumber(cell("year"))
	age, hasAge := parseNumber(cell("age"))
	switch {
	case hasYear && hasAge:
		r.Year, r.Age, r.HasAge = int(year), age, true
	case hasYear:
		r.Year = int(year)
	case hasAge:
		r.Year, r.Age, r.HasAge = ReferenceYear-int(age), age, true
	default:
		return r, false
	}
	return r, true
}

// parseNumber accepts values such as "40,000 km" or "₹ 5,50,000".
func parseNumber(s string) (float64, bool) {
	b := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b = append(b, r)
		}
	}
	if len(b) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func normalizeHeader(hdr []string) []string {
	out := make([]string, len(hdr))
	for i, v := range hdr {
		// Remove UTF-8 BOM if present, then trim and lowercase
		v = strings.TrimPrefix(v, "\ufeff")
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

func columnIndex(hdr []string, candidates []string) int {
	for _, c := range candidates {
		for i, v := range hdr {
			if v == c {
				return i
			}
		}
	}
	return -1
}
