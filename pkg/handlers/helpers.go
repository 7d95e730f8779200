package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"car-market-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// respondError はエラー種別に応じたステータスでJSONを返します。
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": ve.Message, "field": ve.Field})
	case errors.Is(err, services.ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "出品が見つかりません"})
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "この出品を更新する権限がありません"})
	default:
		log.Printf("❌ [%s %s] %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "内部エラーが発生しました"})
	}
}

// queryInt parses an integer query parameter clamped to [min, max].
func queryInt(c *gin.Context, key string, def, min, max int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
