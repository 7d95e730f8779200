package services

import (
	"fmt"
	"log"
	"math"
	"sort"

	"car-market-api/pkg/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// 異常とみなす z スコアの既定値
const defaultAnomalyZScore = 2.0

// MarketStatsService リファレンスデータの相場統計。起動時に一度だけ構築する。
type MarketStatsService struct {
	rows      []DatasetRow
	summaries map[string]models.PriceSummary
	brands    []string
}

// NewMarketStatsService 新しい相場統計サービスを作成
func NewMarketStatsService(ds *ReferenceDataset) *MarketStatsService {
	prices := make(map[string][]float64)
	for _, r := range ds.Rows {
		prices[r.Brand] = append(prices[r.Brand], r.Price)
	}

	s := &MarketStatsService{
		rows:      ds.Rows,
		summaries: make(map[string]models.PriceSummary, len(prices)),
		brands:    make([]string, 0, len(prices)),
	}
	for brand, p := range prices {
		s.summaries[brand] = summarize(brand, p)
		s.brands = append(s.brands, brand)
	}
	sort.Strings(s.brands)
	return s
}

func summarize(brand string, prices []float64) models.PriceSummary {
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}
	return models.PriceSummary{
		Brand:  brand,
		Count:  len(sorted),
		Mean:   mean,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		StdDev: std,
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
	}
}

// Summaries returns the per-brand price summaries sorted by brand.
func (s *MarketStatsService) Summaries() []models.PriceSummary {
	out := make([]models.PriceSummary, 0, len(s.brands))
	for _, b := range s.brands {
		out = append(out, s.summaries[b])
	}
	return out
}

// BrandSummary ブランド1件の価格統計。存在しなければ false。
func (s *MarketStatsService) BrandSummary(brand string) (models.PriceSummary, bool) {
	summary, ok := s.summaries[brand]
	return summary, ok
}

// Correlations 価格と年数・走行距離のピアソン相関
func (s *MarketStatsService) Correlations() []models.CorrelationResult {
	price := make([]float64, len(s.rows))
	age := make([]float64, len(s.rows))
	km := make([]float64, len(s.rows))
	for i, r := range s.rows {
		price[i] = r.Price
		age[i] = carAge(r.Year)
		if r.HasAge {
			age[i] = r.Age
		}
		km[i] = r.KmDriven
	}

	results := make([]models.CorrelationResult, 0, 2)
	for _, f := range []struct {
		name string
		x    []float64
	}{{"Age", age}, {"kmDriven", km}} {
		r := stat.Correlation(f.x, price, nil)
		if math.IsNaN(r) {
			log.Printf("⚠️ [market] %s と価格の相関を計算できません（分散が0）", f.name)
			continue
		}
		p := correlationPValue(r, len(price))
		results = append(results, models.CorrelationResult{
			Factor:          f.name,
			CorrelationCoef: r,
			PValue:          p,
			SampleSize:      len(price),
			Interpretation:  interpretCorrelation(r, p),
		})
	}
	return results
}

// PriceAnomalies lists dataset rows whose price is more than zThreshold
// standard deviations away from their brand mean. Brands with fewer than three
// rows are skipped.
func (s *MarketStatsService) PriceAnomalies(zThreshold float64) []models.PriceAnomaly {
	if zThreshold <= 0 {
		zThreshold = defaultAnomalyZScore
	}

	anomalies := make([]models.PriceAnomaly, 0)
	for _, r := range s.rows {
		summary := s.summaries[r.Brand]
		if summary.Count < 3 || summary.StdDev == 0 {
			continue
		}
		deviation := r.Price - summary.Mean
		z := deviation / summary.StdDev
		if math.Abs(z) <= zThreshold {
			continue
		}
		anomalyType := "割高"
		if deviation < 0 {
			anomalyType = "割安"
		}
		anomalies = append(anomalies, models.PriceAnomaly{
			Brand:         r.Brand,
			Model:         r.Model,
			Year:          r.Year,
			ActualValue:   r.Price,
			ExpectedValue: summary.Mean,
			Deviation:     math.Abs(deviation),
			ZScore:        z,
			AnomalyType:   anomalyType,
			Severity:      anomalySeverity(math.Abs(z)),
		})
	}
	sort.SliceStable(anomalies, func(i, j int) bool {
		return math.Abs(anomalies[i].ZScore) > math.Abs(anomalies[j].ZScore)
	})
	return anomalies
}

// correlationPValue 相関係数の両側p値（t分布）
func correlationPValue(r float64, n int) float64 {
	if n < 3 {
		return 1.0
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(float64(n-2)) / math.Sqrt(1-r*r)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return math.Min(1, 2*dist.Survival(math.Abs(t)))
}

// interpretCorrelation 相関係数を人間が読める形で解釈
func interpretCorrelation(r float64, pValue float64) string {
	absR := math.Abs(r)
	strength := ""

	if absR >= 0.7 {
		strength = "強い"
	} else if absR >= 0.4 {
		strength = "中程度の"
	} else if absR >= 0.2 {
		strength = "弱い"
	} else {
		strength = "ほぼ無い"
	}

	direction := "正の"
	if r < 0 {
		direction = "負の"
	}

	significance := "（統計的に有意ではない）"
	if pValue < 0.05 {
		significance = "（統計的に有意）"
	}

	return fmt.Sprintf("%s%s相関 %s", strength, direction, significance)
}

// anomalySeverity 異常の深刻度
func anomalySeverity(absZScore float64) string {
	if absZScore > 4.0 {
		return "critical"
	} else if absZScore > 3.5 {
		return "high"
	} else if absZScore > 3.0 {
		return "medium"
	}
	return "low"
}
