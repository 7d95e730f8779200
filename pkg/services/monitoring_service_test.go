package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMonitoringService()

	r := gin.New()
	r.Use(m.LoggingMiddleware())
	r.GET("/api/v1/catalog/brands", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/admin/status", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/api/v1/catalog/brands", "/api/v1/admin/status", "/boom"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	data := m.GetDashboardData(24)
	assert.Equal(t, 1, data.Endpoints["/api/v1/catalog/brands"])
	assert.NotContains(t, data.Endpoints, "/api/v1/admin/status")
	assert.Equal(t, 1, data.StatusCodes["2xx Success"])
	assert.Equal(t, 1, data.StatusCodes["5xx Server Error"])
	require.Len(t, data.RecentErrors, 1)
	assert.Equal(t, "/boom", data.RecentErrors[0].Path)

	// admin も含め全リクエストがヒストグラムに入る
	assert.Equal(t, 3, testutil.CollectAndCount(m.requestDuration))
}

func TestGetDashboardDataBuckets(t *testing.T) {
	m := NewMonitoringService()
	now := time.Now().UTC()
	m.LogRequest(LogEntry{Timestamp: now, Path: "/a", Method: "GET", StatusCode: 200, ResponseTime: 10 * time.Millisecond})
	m.LogRequest(LogEntry{Timestamp: now, Path: "/a", Method: "GET", StatusCode: 404, ResponseTime: 30 * time.Millisecond})
	m.LogRequest(LogEntry{Timestamp: now.Add(-48 * time.Hour), Path: "/old", StatusCode: 200})

	data := m.GetDashboardData(6)
	require.Len(t, data.RequestsOverTime, 6)
	assert.Equal(t, 2, data.RequestsOverTime[5]["requests"])
	assert.Equal(t, int64(20), data.AvgResponseTimes["/a"])
	assert.Equal(t, 1, data.StatusCodes["4xx Client Error"])
	assert.NotContains(t, data.Endpoints, "/old")
}

func TestLogRequestCap(t *testing.T) {
	m := NewMonitoringService()
	for i := 0; i < maxLogEntries+5; i++ {
		m.LogRequest(LogEntry{Timestamp: time.Now(), Path: "/p", StatusCode: 200})
	}
	assert.Len(t, m.logs, maxLogEntries)
}

func TestMetricsHandler(t *testing.T) {
	m := NewMonitoringService()
	m.RecordPrediction("Honda", 850000)
	m.RecordPredictionFailure("validation")

	var nilService *MonitoringService
	nilService.RecordPrediction("Honda", 1)
	nilService.RecordPredictionFailure("model")

	w := httptest.NewRecorder()
	m.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `carmarket_predictions_total{brand="Honda"} 1`))
	assert.True(t, strings.Contains(body, `carmarket_prediction_failures_total{reason="validation"} 1`))
}
