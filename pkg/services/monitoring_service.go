package services

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 記録するリクエストログの上限
const maxLogEntries = 10000

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService はAPIのモニタリング機能を提供します。
// リクエストログの集計と Prometheus メトリクスを持ちます。
type MonitoringService struct {
	logs []LogEntry
	mu   sync.RWMutex

	registry            *prometheus.Registry
	requestDuration     *prometheus.HistogramVec
	predictionsTotal    *prometheus.CounterVec
	predictionFailures  *prometheus.CounterVec
	predictedPriceValue prometheus.Histogram
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
func NewMonitoringService() *MonitoringService {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &MonitoringService{
		logs:     make([]LogEntry, 0),
		registry: reg,
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carmarket_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		predictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carmarket_predictions_total",
			Help: "Total number of successful price predictions.",
		}, []string{"brand"}),
		predictionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carmarket_prediction_failures_total",
			Help: "Total number of rejected or failed price predictions.",
		}, []string{"reason"}),
		predictedPriceValue: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "carmarket_predicted_price",
			Help:    "Distribution of predicted prices.",
			Buckets: prometheus.ExponentialBuckets(50000, 2, 10),
		}),
	}
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = append([]LogEntry(nil), s.logs[len(s.logs)-maxLogEntries:]...)
	}
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		s.requestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Observe(elapsed.Seconds())

		// 管理系・メトリクスは集計から除外
		if strings.HasPrefix(path, "/api/v1/admin") || strings.HasPrefix(path, "/api/v1/monitoring") || path == "/metrics" {
			return
		}

		s.LogRequest(LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: elapsed,
		})
	}
}

// RecordPrediction 成功した予測を記録
func (s *MonitoringService) RecordPrediction(brand string, price float64) {
	if s == nil {
		return
	}
	s.predictionsTotal.WithLabelValues(brand).Inc()
	s.predictedPriceValue.Observe(price)
}

// RecordPredictionFailure 失敗した予測を理由別に記録
func (s *MonitoringService) RecordPredictionFailure(reason string) {
	if s == nil {
		return
	}
	s.predictionFailures.WithLabelValues(reason).Inc()
}

// MetricsHandler exposes the service's registry in Prometheus text format.
func (s *MonitoringService) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry backing the service.
func (s *MonitoringService) Registry() *prometheus.Registry {
	return s.registry
}

// DashboardData はダッシュボードに表示するための集計済みデータです。
type DashboardData struct {
	RequestsOverTime []map[string]interface{} `json:"requestsOverTime"`
	Endpoints        map[string]int           `json:"endpoints"`
	StatusCodes      map[string]int           `json:"statusCodes"`
	AvgResponseTimes map[string]int64         `json:"avgResponseTimes"`
	RecentErrors     []LogEntry               `json:"recentErrors"`
}

// GetDashboardData は指定された期間のログを時間単位で集計します。
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	// 過去から現在の順に1時間ごとのバケットを作る
	buckets := make([]map[string]interface{}, periodHours)
	bucketIndex := make(map[int64]int, periodHours)
	for i := 0; i < periodHours; i++ {
		t := now.Add(-time.Duration(periodHours-1-i) * time.Hour).Truncate(time.Hour)
		bucketIndex[t.Unix()] = i
		buckets[i] = map[string]interface{}{"time": t.Format("15:00"), "requests": 0}
	}

	data := DashboardData{
		RequestsOverTime: buckets,
		Endpoints:        make(map[string]int),
		StatusCodes:      map[string]int{"2xx Success": 0, "4xx Client Error": 0, "5xx Server Error": 0},
		AvgResponseTimes: make(map[string]int64),
		RecentErrors:     make([]LogEntry, 0),
	}
	totals := make(map[string]time.Duration)

	for _, entry := range s.logs {
		if !entry.Timestamp.After(since) {
			continue
		}
		if i, ok := bucketIndex[entry.Timestamp.Truncate(time.Hour).Unix()]; ok {
			buckets[i]["requests"] = buckets[i]["requests"].(int) + 1
		}
		data.Endpoints[entry.Path]++
		totals[entry.Path] += entry.ResponseTime
		switch {
		case entry.StatusCode >= 500:
			data.StatusCodes["5xx Server Error"]++
		case entry.StatusCode >= 400:
			data.StatusCodes["4xx Client Error"]++
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			data.StatusCodes["2xx Success"]++
		}
	}
	for path, total := range totals {
		data.AvgResponseTimes[path] = total.Milliseconds() / int64(data.Endpoints[path])
	}

	// 新しい順に最大10件の5xx
	for i := len(s.logs) - 1; i >= 0 && len(data.RecentErrors) < 10; i-- {
		if s.logs[i].StatusCode >= 500 && s.logs[i].Timestamp.After(since) {
			data.RecentErrors = append(data.RecentErrors, s.logs[i])
		}
	}
	return data
}
