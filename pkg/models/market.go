package models

// PriceSummary ブランド別の価格統計
type PriceSummary struct {
	Brand  string  `json:"brand"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CorrelationResult represents the result of correlation analysis
type CorrelationResult struct {
	Factor          string  `json:"factor"`           // e.g., "Age", "kmDriven"
	CorrelationCoef float64 `json:"correlation_coef"` // Pearson correlation coefficient (-1 to 1)
	PValue          float64 `json:"p_value"`          // Statistical significance
	SampleSize      int     `json:"sample_size"`      // Number of data points used
	Interpretation  string  `json:"interpretation"`   // Human-readable interpretation
}

// PriceAnomaly 同一ブランドの相場から大きく外れた掲載価格
type PriceAnomaly struct {
	Brand         string  `json:"brand"`
	Model         string  `json:"model"`
	Year          int     `json:"year"`
	ActualValue   float64 `json:"actual_value"`
	ExpectedValue float64 `json:"expected_value"`
	Deviation     float64 `json:"deviation"`    // Absolute deviation from expected
	ZScore        float64 `json:"z_score"`      // Standard deviations from mean
	AnomalyType   string  `json:"anomaly_type"` // "割高" or "割安"
	Severity      string  `json:"severity"`     // "low", "medium", "high", "critical"
}
