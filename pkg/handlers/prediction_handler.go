package handlers

import (
	"net/http"

	"car-market-api/pkg/models"
	"car-market-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// PredictionHandler 価格予測ハンドラー
type PredictionHandler struct {
	service *services.PredictionService
	store   *services.PredictionStore
	forest  *services.RandomForest
}

// NewPredictionHandler 新しい価格予測ハンドラーを作成
func NewPredictionHandler(service *services.PredictionService, store *services.PredictionStore, forest *services.RandomForest) *PredictionHandler {
	return &PredictionHandler{service: service, store: store, forest: forest}
}

// PredictPrice 車両属性から中古価格を予測
func (h *PredictionHandler) PredictPrice(c *gin.Context) {
	var car models.CarDescription
	if err := c.ShouldBindJSON(&car); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "リクエストの解析に失敗しました: " + err.Error(),
		})
		return
	}

	result, err := h.service.Predict(c.Request.Context(), car)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetPredictionHistory 直近の予測履歴を取得
func (h *PredictionHandler) GetPredictionHistory(c *gin.Context) {
	limit := queryInt(c, "limit", 20, 1, 100)

	records, err := h.store.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"count":   len(records),
	})
}

// GetModelInfo 読み込み済みモデルの情報
func (h *PredictionHandler) GetModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"feature_names":  h.forest.FeatureNames,
			"feature_count":  len(h.forest.FeatureNames),
			"n_estimators":   len(h.forest.Trees),
			"seed":           h.forest.Seed,
			"max_depth":      h.forest.MaxDepth,
			"training_rows":  h.forest.TrainingRows,
			"training_r2":    h.forest.TrainingR2,
			"reference_year": services.ReferenceYear,
		},
	})
}
