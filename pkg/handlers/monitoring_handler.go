package handlers

import (
	"net/http"

	"car-market-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler はモニタリング関連の操作のハンドラです。
type MonitoringHandler struct {
	service *services.MonitoringService
}

// NewMonitoringHandler は新しいMonitoringHandlerを生成します。
func NewMonitoringHandler(service *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{service: service}
}

// GetLogs は集計されたログデータを返します。
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	hours := 24
	switch c.DefaultQuery("period", "24h") {
	case "1h":
		hours = 1
	case "7d":
		hours = 24 * 7
	}
	c.JSON(http.StatusOK, h.service.GetDashboardData(hours))
}

// Metrics は Prometheus 形式のメトリクスを返します。
func (h *MonitoringHandler) Metrics(c *gin.Context) {
	h.service.MetricsHandler().ServeHTTP(c.Writer, c.Request)
}
