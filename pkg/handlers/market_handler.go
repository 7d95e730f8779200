package handlers

import (
	"net/http"
	"strconv"

	"car-market-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MarketHandler 相場統計ハンドラー
type MarketHandler struct {
	stats *services.MarketStatsService
}

// NewMarketHandler 新しい相場統計ハンドラーを作成
func NewMarketHandler(stats *services.MarketStatsService) *MarketHandler {
	return &MarketHandler{stats: stats}
}

// GetSummaries ブランド別の価格統計
func (h *MarketHandler) GetSummaries(c *gin.Context) {
	summaries := h.stats.Summaries()
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summaries, "count": len(summaries)})
}

// GetBrandSummary ブランド1件の価格統計
func (h *MarketHandler) GetBrandSummary(c *gin.Context) {
	summary, ok := h.stats.BrandSummary(c.Param("brand"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "ブランドが見つかりません"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

// GetCorrelations 価格と年数・走行距離の相関
func (h *MarketHandler) GetCorrelations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.stats.Correlations()})
}

// GetAnomalies 相場から外れた価格。?z= で閾値を指定
func (h *MarketHandler) GetAnomalies(c *gin.Context) {
	z, err := strconv.ParseFloat(c.DefaultQuery("z", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "z は数値で指定してください"})
		return
	}
	anomalies := h.stats.PriceAnomalies(z)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": anomalies, "count": len(anomalies)})
}
