package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Router ルーティングに必要なハンドラー一式
type Router struct {
	APIKey     string
	Admin      *AdminHandler
	Monitoring *MonitoringHandler
	Catalog    *CatalogHandler
	Prediction *PredictionHandler
	Listing    *ListingHandler
	Market     *MarketHandler
	Middleware []gin.HandlerFunc
}

// Engine builds the gin engine with every route registered.
func (rt *Router) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	for _, m := range rt.Middleware {
		r.Use(m)
	}
	r.Use(cors.Default())

	r.GET("/health", rt.Admin.HealthCheck)
	r.GET("/metrics", rt.Monitoring.Metrics)

	v1 := r.Group("/api/v1")
	v1.Use(apiKeyAuth(rt.APIKey), rt.Admin.MaintenanceGuard())
	{
		// 管理者向けAPI
		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", rt.Admin.GetHealthStatus)
			admin.POST("/maintenance/start", rt.Admin.StartMaintenance)
			admin.POST("/maintenance/stop", rt.Admin.StopMaintenance)
		}

		// モニタリングAPI
		v1.GET("/monitoring/logs", rt.Monitoring.GetLogs)

		// ブランド・車種
		catalog := v1.Group("/catalog")
		{
			catalog.GET("/brands", rt.Catalog.GetBrands)
			catalog.GET("/models/:brand", rt.Catalog.GetModels)
		}

		// 価格予測API
		v1.POST("/predict", rt.Prediction.PredictPrice)
		v1.GET("/predictions", rt.Prediction.GetPredictionHistory)
		v1.GET("/model", rt.Prediction.GetModelInfo)

		// 出品API
		listings := v1.Group("/listings")
		{
			listings.POST("", rt.Listing.CreateListing)
			listings.GET("", rt.Listing.ListAvailable)
			listings.GET("/:id", rt.Listing.GetListing)
			listings.POST("/:id/sold", rt.Listing.MarkSold)
		}
		v1.GET("/sellers/:sellerId/listings", rt.Listing.ListBySeller)

		// 相場統計API
		market := v1.Group("/market")
		{
			market.GET("/summaries", rt.Market.GetSummaries)
			market.GET("/summaries/:brand", rt.Market.GetBrandSummary)
			market.GET("/correlations", rt.Market.GetCorrelations)
			market.GET("/anomalies", rt.Market.GetAnomalies)
		}
	}
	return r
}

// apiKeyAuth は X-API-KEY ヘッダーを検証します。キー未設定なら素通し。
func apiKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
